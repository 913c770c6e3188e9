package main

import (
	"log"

	"chatgateway/internal/app"
)

func main() {

	// Initialize and start the application
	application, err := app.New()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Start the application (this handles graceful shutdown internally)
	if err := application.Start(); err != nil {
		log.Printf("Application stopped: %v", err)
	}

	// Stop the application (cleanup)
	if err := application.Stop(); err != nil {
		log.Printf("Error stopping application: %v", err)
	}

	log.Println("Application stopped gracefully")
}
