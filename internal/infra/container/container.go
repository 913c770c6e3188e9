package container

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3" // Import SQLite driver for whatsmeow
	"github.com/uptrace/bun"
	"go.mau.fi/whatsmeow/store/sqlstore"

	"chatgateway/internal/core"
	"chatgateway/internal/domain/instance"
	"chatgateway/internal/domain/logentry"
	"chatgateway/internal/domain/message"
	"chatgateway/internal/domain/webhook"
	"chatgateway/internal/infra/chattransport"
	"chatgateway/internal/infra/config"
	"chatgateway/internal/infra/database"
	"chatgateway/internal/infra/database/migrations"
	infraLogger "chatgateway/internal/infra/logger"
	"chatgateway/internal/infra/plugins"
	"chatgateway/internal/infra/repository"
	"chatgateway/internal/infra/webhookdispatch"
	"chatgateway/internal/infra/whats"
	"chatgateway/pkg/logger"
	"chatgateway/pkg/validator"
)

// Container holds all infrastructure dependencies
type Container struct {
	// Configuration
	Config *config.Config

	// Core infrastructure
	Logger    logger.Logger
	Validator validator.Validator
	DB        *bun.DB

	// Database components
	DBConnection database.Connection
	Migrator     *migrations.Migrator

	// Repositories
	InstanceRepo    instance.Repository
	MessageRepo     message.Repository
	WebhookSubsRepo webhook.SubscriptionRepository
	WebhookHistRepo webhook.HistoryRepository
	LogRepo         logentry.Repository

	// Webhook dispatcher
	Dispatcher *webhookdispatch.Dispatcher

	// WhatsApp device store, shared by every instance's Chat Transport
	WhatsAppStore *sqlstore.Container

	// Manager is the Instance Manager (4.1) binding every live Runtime
	Manager *core.Manager

	// Internal state
	isInitialized bool
}

// New creates a new infrastructure container
func New(cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	if err := container.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize container: %w", err)
	}

	return container, nil
}

// initialize sets up all infrastructure components
func (c *Container) initialize() error {
	// Initialize logger first
	if err := c.initializeLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	c.Logger.Info("initializing infrastructure container")

	// Initialize validator
	if err := c.initializeValidator(); err != nil {
		return fmt.Errorf("failed to initialize validator: %w", err)
	}

	// Initialize database
	if err := c.initializeDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize repositories
	if err := c.initializeRepositories(); err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	// Initialize the WhatsApp device store and the Instance Manager
	if err := c.initializeManager(); err != nil {
		return fmt.Errorf("failed to initialize instance manager: %w", err)
	}

	c.isInitialized = true
	c.Logger.Info("infrastructure container initialized successfully")

	return nil
}

// initializeLogger sets up the logger
func (c *Container) initializeLogger() error {
	c.Logger = infraLogger.New(&c.Config.Log)
	return nil
}

// initializeValidator sets up the validator
func (c *Container) initializeValidator() error {
	c.Validator = validator.New()
	return nil
}

// initializeDatabase sets up the database connection and migrations
func (c *Container) initializeDatabase() error {
	// Create database connection
	dbConn, err := database.New(&c.Config.Database, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}

	c.DBConnection = dbConn
	c.DB = dbConn.GetDB()

	// Create migrator
	c.Migrator = migrations.NewMigrator(c.DB, c.Logger)

	// Run migrations if auto-migrate is enabled
	if c.Config.Database.AutoMigrate {
		ctx := context.Background()
		if err := c.Migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	return nil
}

// initializeRepositories sets up all repositories
func (c *Container) initializeRepositories() error {
	c.InstanceRepo = repository.NewInstanceRepository(c.DB, c.Logger)
	c.MessageRepo = repository.NewMessageRepository(c.DB, c.Logger)
	c.WebhookSubsRepo = repository.NewWebhookSubscriptionRepository(c.DB, c.Logger)
	c.WebhookHistRepo = repository.NewWebhookHistoryRepository(c.DB, c.Logger)
	c.LogRepo = repository.NewLogEntryRepository(c.DB, c.Logger)

	c.Logger.Info("repositories initialized")
	return nil
}

// whatsmeowDialect adjusts the configured driver/URL pair for whatsmeow's
// own sqlstore, which expects a bare "sqlite3"/"postgres" dialect name and
// (for SQLite) an explicit foreign-keys pragma.
func whatsmeowDialect(dbDriver, dbURL string) (string, string, error) {
	switch dbDriver {
	case "sqlite", "sqlite3":
		dbDriver = "sqlite3"
		if !strings.Contains(dbURL, ":memory:") && !strings.Contains(dbURL, "mode=memory") && !strings.Contains(dbURL, "_foreign_keys") {
			if strings.Contains(dbURL, "?") {
				dbURL += "&_foreign_keys=on"
			} else {
				dbURL += "?_foreign_keys=on"
			}
		}
	case "postgres", "postgresql":
		dbDriver = "postgres"
	default:
		return "", "", fmt.Errorf("unsupported database driver for WhatsApp store: %s", dbDriver)
	}
	return dbDriver, dbURL, nil
}

// initializeManager wires the WhatsApp device store, Webhook Dispatcher,
// Plugin Registry and Chat Transport factory into a core.Manager - the
// Instance Manager driving every per-phone Runtime (4.1, 4.2, 4.3, 4.4, 4.6).
func (c *Container) initializeManager() error {
	dbDriver, dbURL, err := whatsmeowDialect(c.Config.Database.Driver, c.Config.Database.URL)
	if err != nil {
		return err
	}

	waLogger := whats.NewLoggerAdapter(c.Logger, "WhatsApp")

	whatsappStore, err := sqlstore.New(context.Background(), dbDriver, dbURL, waLogger)
	if err != nil {
		return fmt.Errorf("failed to create WhatsApp store: %w", err)
	}
	if err := whatsappStore.Upgrade(context.Background()); err != nil {
		return fmt.Errorf("failed to upgrade WhatsApp store: %w", err)
	}
	c.WhatsAppStore = whatsappStore

	c.Dispatcher = webhookdispatch.New(c.WebhookSubsRepo, c.WebhookHistRepo, c.Logger)

	transportFactory := chattransport.NewFactory(c.WhatsAppStore, c.Logger)
	pluginRegistry := plugins.NewStaticRegistry()

	policy := core.PolicyFromGateway(
		c.Config.Gateway.MaxReconnects,
		int(c.Config.Gateway.ReconnectDelay.Seconds()),
		c.Config.Gateway.TransientCodes,
	)

	c.Manager = core.NewManager(core.Dependencies{
		Instances:        c.InstanceRepo,
		Messages:         c.MessageRepo,
		WebhookSubs:      c.WebhookSubsRepo,
		Logs:             c.LogRepo,
		Dispatcher:       c.Dispatcher,
		PluginRegistry:   pluginRegistry,
		TransportFactory: transportFactory,
		Policy:           policy,
		AuthRootDir:      c.Config.Gateway.AuthRootDir,
		Log:              c.Logger,
	})

	c.Logger.Info("instance manager initialized")
	return nil
}

// Close gracefully shuts down all infrastructure components
func (c *Container) Close() error {
	if !c.isInitialized {
		return nil
	}

	c.Logger.Info("shutting down infrastructure container")

	var errs []error

	if c.Manager != nil {
		c.Manager.Shutdown()
	}

	if c.WhatsAppStore != nil {
		if err := c.WhatsAppStore.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close WhatsApp store: %w", err))
		}
	}

	if c.DBConnection != nil {
		if err := c.DBConnection.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database connection: %w", err))
		}
	}

	if len(errs) > 0 {
		for _, err := range errs {
			c.Logger.ErrorWithError("error during container shutdown", err, nil)
		}
		return fmt.Errorf("multiple errors during shutdown: %v", errs)
	}

	c.Logger.Info("infrastructure container shut down successfully")
	return nil
}

// Health checks the health of all infrastructure components
func (c *Container) Health() error {
	if !c.isInitialized {
		return fmt.Errorf("container not initialized")
	}

	if err := c.DBConnection.Health(); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}

// IsInitialized returns true if the container is initialized
func (c *Container) IsInitialized() bool {
	return c.isInitialized
}

// GetDatabaseStats returns database connection statistics
func (c *Container) GetDatabaseStats() interface{} {
	if c.DB == nil {
		return sql.DBStats{}
	}
	return c.DB.DB.Stats()
}

// GetManagerStats returns the Instance Manager's per-Runtime status snapshot
func (c *Container) GetManagerStats() []core.ManagerStatus {
	if c.Manager == nil {
		return nil
	}
	return c.Manager.Status()
}

// StartManager resumes every non-terminal persisted instance (4.1's
// startup-resume behaviour).
func (c *Container) StartManager() error {
	if c.Manager == nil {
		return fmt.Errorf("instance manager not initialized")
	}
	return c.Manager.Initialise(context.Background())
}

// ResetDatabase drops and recreates all database tables
func (c *Container) ResetDatabase() error {
	if c.Migrator == nil {
		return fmt.Errorf("migrator not initialized")
	}

	c.Logger.Warn("resetting database")
	ctx := context.Background()
	return c.Migrator.Reset(ctx)
}

// MigrateDatabase runs database migrations
func (c *Container) MigrateDatabase() error {
	if c.Migrator == nil {
		return fmt.Errorf("migrator not initialized")
	}

	c.Logger.Info("running database migrations")
	ctx := context.Background()
	return c.Migrator.Migrate(ctx)
}
