package container

import (
	"context"
	"fmt"

	"chatgateway/internal/http/handler"
	"chatgateway/internal/http/routes"
	"chatgateway/internal/http/server"
	"chatgateway/internal/infra/config"
	"chatgateway/internal/infra/container"
	"chatgateway/pkg/logger"
)

// httpContainer implements HTTPContainer interface
type httpContainer struct {
	instanceHandler *handler.InstanceHandler
	webhookHandler  *handler.WebhookHandler
	healthHandler   *handler.HealthHandler
	router          *routes.Router
	httpServer      *server.Server
	serverManager   *server.ServerManager
	logger          logger.Logger
	isInitialized   bool
}

// NewHTTPContainer creates a new HTTP container
func NewHTTPContainer(
	infraContainer *container.Container,
	useCaseContainer UseCaseContainer,
	cfg *config.Config,
) (HTTPContainer, error) {
	hc := &httpContainer{
		logger: infraContainer.Logger,
	}

	if err := hc.initialize(infraContainer, useCaseContainer, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize HTTP container: %w", err)
	}

	return hc, nil
}

// initialize sets up HTTP layer components
func (hc *httpContainer) initialize(
	infraContainer *container.Container,
	useCaseContainer UseCaseContainer,
	cfg *config.Config,
) error {
	logger := infraContainer.Logger
	validator := infraContainer.Validator

	instanceUseCases := useCaseContainer.GetInstanceUseCases()
	webhookUseCases := useCaseContainer.GetWebhookUseCases()

	hc.instanceHandler = handler.NewInstanceHandler(
		instanceUseCases.Create,
		instanceUseCases.List,
		instanceUseCases.Get,
		instanceUseCases.Update,
		instanceUseCases.Delete,
		instanceUseCases.Start,
		instanceUseCases.Restart,
		instanceUseCases.SendText,
		instanceUseCases.SendMedia,
		instanceUseCases.GroupMetadata,
		instanceUseCases.Plugins,
		logger,
		validator,
	)

	hc.webhookHandler = handler.NewWebhookHandler(
		webhookUseCases.Subscriptions,
		webhookUseCases.History,
		logger,
	)

	hc.healthHandler = handler.NewHealthHandler(
		infraContainer,
		logger,
	)

	// Create router
	hc.router = routes.NewRouter(
		hc.instanceHandler,
		hc.webhookHandler,
		hc.healthHandler,
		cfg,
		logger,
	)

	// Create HTTP server
	hc.httpServer = server.New(
		hc.router,
		&cfg.Server,
		logger,
	)

	// Create server manager
	hc.serverManager = server.NewServerManager(
		hc.httpServer,
		logger,
	)

	hc.isInitialized = true
	logger.Info("HTTP container initialized successfully")
	return nil
}

// GetServerManager returns the server manager
func (hc *httpContainer) GetServerManager() *server.ServerManager {
	return hc.serverManager
}

// GetServerInfo returns server information
func (hc *httpContainer) GetServerInfo() server.ServerInfo {
	if hc.serverManager != nil {
		return hc.serverManager.GetServerInfo()
	}
	return server.ServerInfo{}
}

// StartServer starts the HTTP server
func (hc *httpContainer) StartServer(ctx context.Context) error {
	if !hc.isInitialized {
		return fmt.Errorf("HTTP container not initialized")
	}

	hc.logger.InfoWithFields("Starting HTTP server", logger.Fields{
		"address": hc.httpServer.GetAddr(),
	})

	return hc.serverManager.StartWithGracefulShutdown(ctx)
}
