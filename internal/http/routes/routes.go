package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"chatgateway/internal/http/handler"
	"chatgateway/internal/http/middleware"
	"chatgateway/internal/infra/config"
	"chatgateway/pkg/logger"
)

// Router holds all route handlers and dependencies
type Router struct {
	instanceHandler *handler.InstanceHandler
	webhookHandler  *handler.WebhookHandler
	healthHandler   *handler.HealthHandler
	config          *config.Config
	logger          logger.Logger
}

// NewRouter creates a new router with all handlers
func NewRouter(
	instanceHandler *handler.InstanceHandler,
	webhookHandler *handler.WebhookHandler,
	healthHandler *handler.HealthHandler,
	config *config.Config,
	logger logger.Logger,
) *Router {
	return &Router{
		instanceHandler: instanceHandler,
		webhookHandler:  webhookHandler,
		healthHandler:   healthHandler,
		config:          config,
		logger:          logger,
	}
}

// SetupRoutes configures all routes and middleware
func (rt *Router) SetupRoutes() *chi.Mux {
	r := chi.NewRouter()

	rt.setupGlobalMiddleware(r)
	rt.setupHealthRoutes(r)
	rt.setupAPIRoutes(r)

	return r
}

// setupGlobalMiddleware configures global middleware
func (rt *Router) setupGlobalMiddleware(r *chi.Mux) {
	r.Use(middleware.RecoveryMiddleware(rt.logger))
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.SecurityHeadersMiddleware())

	corsConfig := &middleware.CORSConfig{
		AllowedOrigins:   rt.config.Server.CORS.AllowedOrigins,
		AllowedMethods:   rt.config.Server.CORS.AllowedMethods,
		AllowedHeaders:   rt.config.Server.CORS.AllowedHeaders,
		AllowCredentials: rt.config.Server.CORS.AllowCredentials,
		MaxAge:           rt.config.Server.CORS.MaxAge,
	}
	r.Use(middleware.CORSMiddleware(corsConfig))

	r.Use(middleware.LoggingMiddleware(rt.logger))

	rateLimitConfig := &middleware.RateLimitConfig{
		RequestsPerMinute: rt.config.Server.RateLimit.RequestsPerMinute,
		BurstSize:         rt.config.Server.RateLimit.BurstSize,
		KeyFunc: func(r *http.Request) string {
			return r.RemoteAddr
		},
	}
	r.Use(middleware.RateLimitMiddleware(rateLimitConfig, rt.logger))

	r.Use(middleware.ValidationMiddleware(rt.logger))
}

// setupHealthRoutes configures health and metrics routes
func (rt *Router) setupHealthRoutes(r *chi.Mux) {
	r.Get("/health", rt.healthHandler.Health)
	r.Get("/metrics", rt.healthHandler.Metrics)
}

// setupAPIRoutes configures API routes with authentication
func (rt *Router) setupAPIRoutes(r *chi.Mux) {
	var api chi.Router = r
	if rt.config.Auth.Enabled {
		switch rt.config.Auth.Type {
		case "api_key":
			authConfig := &middleware.AuthConfig{
				APIKeys:    rt.config.Auth.APIKeys,
				SkipPaths:  []string{"/health", "/metrics"},
				HeaderName: rt.config.Auth.HeaderName,
			}
			api = r.With(middleware.AuthMiddleware(authConfig, rt.logger))
		case "basic":
			api = r.With(middleware.BasicAuthMiddleware(
				rt.config.Auth.BasicAuth.Username,
				rt.config.Auth.BasicAuth.Password,
				rt.logger,
			))
		}
	}

	rt.setupInstanceRoutes(api)
	rt.setupWebhookRoutes(api)
}

// setupInstanceRoutes configures instance-related routes (4.1-4.3, 4.5, 6).
func (rt *Router) setupInstanceRoutes(r chi.Router) {
	r.Route("/instances", func(r chi.Router) {
		r.Post("/", rt.instanceHandler.CreateInstance)
		r.Get("/", rt.instanceHandler.ListInstances)

		r.Route("/{phone}", func(r chi.Router) {
			r.Get("/", rt.instanceHandler.GetInstance)
			r.Patch("/", rt.instanceHandler.UpdateInstance)
			r.Delete("/", rt.instanceHandler.DeleteInstance)

			r.Post("/start", rt.instanceHandler.StartInstance)
			r.Post("/restart", rt.instanceHandler.RestartInstance)

			r.Post("/messages/text", rt.instanceHandler.SendText)
			r.Post("/messages/media", rt.instanceHandler.SendMedia)

			r.Get("/groups/{groupJID}", rt.instanceHandler.GroupMetadata)

			r.Route("/plugins", func(r chi.Router) {
				r.Get("/", rt.instanceHandler.PluginStatus)
				r.Post("/", rt.instanceHandler.BulkSetPlugins)
				r.Post("/sync", rt.instanceHandler.SyncPlugins)
				r.Post("/{plugin}", rt.instanceHandler.SetPlugin)
			})

			r.Route("/webhooks", func(r chi.Router) {
				r.Post("/", rt.webhookHandler.CreateSubscription)
				r.Get("/", rt.webhookHandler.ListSubscriptions)
			})
		})
	})
}

// setupWebhookRoutes configures webhook subscription and history routes
// not scoped to a single instance (4.4, 4.5, 6).
func (rt *Router) setupWebhookRoutes(r chi.Router) {
	r.Route("/webhooks", func(r chi.Router) {
		r.Route("/{id}", func(r chi.Router) {
			r.Patch("/", rt.webhookHandler.UpdateSubscription)
			r.Delete("/", rt.webhookHandler.DeleteSubscription)
		})

		r.Get("/history", rt.webhookHandler.ListHistory)
		r.Post("/history/purge", rt.webhookHandler.PurgeHistory)
		r.Get("/stats", rt.webhookHandler.Stats)
	})
}
