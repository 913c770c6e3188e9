package migrations

import (
	"context"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"chatgateway/internal/infra/database"
	"chatgateway/pkg/logger"
)

// Migrator handles database migrations
type Migrator struct {
	db     *bun.DB
	logger logger.Logger
}

// NewMigrator creates a new migrator instance
func NewMigrator(db *bun.DB, log logger.Logger) *Migrator {
	return &Migrator{
		db:     db,
		logger: log,
	}
}

// Migrate runs all database migrations
func (m *Migrator) Migrate(ctx context.Context) error {
	m.logger.Info("starting database migrations")

	// Create our application tables - whatsmeow manages its own tables
	// via sqlstore.Container.Upgrade separately.
	models := []interface{}{
		(*database.InstanceModel)(nil),
		(*database.MessageModel)(nil),
		(*database.WebhookSubscriptionModel)(nil),
		(*database.WebhookHistoryModel)(nil),
		(*database.LogEntryModel)(nil),
	}

	for _, model := range models {
		if err := m.createTable(ctx, model); err != nil {
			return fmt.Errorf("failed to create table for model %T: %w", model, err)
		}
	}

	// Create indexes
	if err := m.createIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	// Create triggers for updated_at
	if err := m.createTriggers(ctx); err != nil {
		return fmt.Errorf("failed to create triggers: %w", err)
	}

	// Run schema migrations
	if err := m.runSchemaMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run schema migrations: %w", err)
	}

	m.logger.Info("database migrations completed successfully")
	return nil
}

// createTable creates a table if it doesn't exist
func (m *Migrator) createTable(ctx context.Context, model interface{}) error {
	// Log table creation with simple name extraction
	tableName := modelTableName(model)

	m.logger.InfoWithFields("creating table", logger.Fields{
		"table": tableName,
	})

	// Use Bun's CreateTable
	query := m.db.NewCreateTable().
		Model(model).
		IfNotExists()

	// Log the SQL query for debugging
	sqlQuery, args := query.AppendQuery(m.db.Formatter(), nil)
	m.logger.DebugWithFields("executing create table query", logger.Fields{
		"table": tableName,
		"sql":   string(sqlQuery),
		"args":  args,
	})

	_, err := query.Exec(ctx)

	if err != nil {
		m.logger.ErrorWithError("failed to create table", err, logger.Fields{
			"table": tableName,
			"sql":   string(sqlQuery),
		})
		return err
	}

	// Table creation completed successfully
	m.logger.DebugWithFields("table creation completed", logger.Fields{
		"table": tableName,
	})

	m.logger.InfoWithFields("table created or verified", logger.Fields{
		"table": tableName,
	})

	return nil
}

// createIndexes creates database indexes
func (m *Migrator) createIndexes(ctx context.Context) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_instances_phone ON instances(phone)",
		"CREATE INDEX IF NOT EXISTS idx_instances_status ON instances(status)",
		"CREATE INDEX IF NOT EXISTS idx_instances_created_at ON instances(created_at)",

		"CREATE INDEX IF NOT EXISTS idx_messages_instance_id ON messages(instance_id)",
		"CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_messages_from_addr ON messages(from_addr)",
		"CREATE INDEX IF NOT EXISTS idx_messages_to_addr ON messages(to_addr)",

		"CREATE INDEX IF NOT EXISTS idx_webhook_subscriptions_instance_id ON webhook_subscriptions(instance_id)",
		"CREATE INDEX IF NOT EXISTS idx_webhook_subscriptions_event ON webhook_subscriptions(event)",

		"CREATE INDEX IF NOT EXISTS idx_webhook_history_instance_id ON webhook_history(instance_id)",
		"CREATE INDEX IF NOT EXISTS idx_webhook_history_webhook_id ON webhook_history(webhook_id)",
		"CREATE INDEX IF NOT EXISTS idx_webhook_history_triggered_at ON webhook_history(triggered_at)",

		"CREATE INDEX IF NOT EXISTS idx_instance_logs_instance_id ON instance_logs(instance_id)",
		"CREATE INDEX IF NOT EXISTS idx_instance_logs_timestamp ON instance_logs(timestamp)",
	}

	for _, indexSQL := range indexes {
		if _, err := m.db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", indexSQL, err)
		}
	}

	m.logger.InfoWithFields("database indexes created", logger.Fields{
		"count": len(indexes),
	})

	return nil
}

// createTriggers creates database triggers for automatic updated_at timestamps
func (m *Migrator) createTriggers(ctx context.Context) error {
	// Detect database type by checking dialect
	dialectName := fmt.Sprintf("%T", m.db.Dialect())

	var triggers []string

	switch dialectName {
	case "*sqlitedialect.Dialect":
		triggers = []string{
			`CREATE TRIGGER IF NOT EXISTS update_instances_updated_at
			 AFTER UPDATE ON instances
			 BEGIN
			   UPDATE instances SET updated_at = CURRENT_TIMESTAMP WHERE id = NEW.id;
			 END`,
		}
	case "*pgdialect.Dialect":
		// PostgreSQL uses functions and triggers differently
		triggers = []string{
			// Create function for updating timestamp
			`CREATE OR REPLACE FUNCTION update_updated_at_column()
			 RETURNS TRIGGER AS $$
			 BEGIN
			   NEW.updated_at = CURRENT_TIMESTAMP;
			   RETURN NEW;
			 END;
			 $$ language 'plpgsql'`,

			`DROP TRIGGER IF EXISTS update_instances_updated_at ON instances`,
			`CREATE TRIGGER update_instances_updated_at
			 BEFORE UPDATE ON instances
			 FOR EACH ROW EXECUTE FUNCTION update_updated_at_column()`,
		}
	default:
		m.logger.WarnWithFields("unknown database type, skipping triggers", logger.Fields{
			"database": dialectName,
		})
		return nil
	}

	for _, triggerSQL := range triggers {
		if _, err := m.db.ExecContext(ctx, triggerSQL); err != nil {
			return fmt.Errorf("failed to create trigger: %s: %w", triggerSQL, err)
		}
	}

	m.logger.InfoWithFields("database triggers created", logger.Fields{
		"count":    len(triggers),
		"database": dialectName,
	})

	return nil
}

// runSchemaMigrations runs additive schema migrations (new columns on
// existing tables) that CreateTable's IfNotExists won't apply to an
// already-created table from an earlier release.
func (m *Migrator) runSchemaMigrations(ctx context.Context) error {
	m.logger.Info("running schema migrations")

	// No additive column migrations pending; current columns ship directly
	// in the CreateTable definitions above.
	var migrations []string

	for _, migrationSQL := range migrations {
		if _, err := m.db.ExecContext(ctx, migrationSQL); err != nil {
			// Check if error is about column already existing
			if strings.Contains(err.Error(), "duplicate column name") ||
				strings.Contains(err.Error(), "already exists") ||
				strings.Contains(err.Error(), "column already exists") {
				m.logger.InfoWithFields("column already exists, skipping migration", logger.Fields{
					"migration": migrationSQL,
				})
				continue
			}
			return fmt.Errorf("failed to run schema migration: %s: %w", migrationSQL, err)
		}
	}

	m.logger.InfoWithFields("schema migrations completed", logger.Fields{
		"count": len(migrations),
	})

	return nil
}

// Drop drops all tables (useful for testing)
func (m *Migrator) Drop(ctx context.Context) error {
	m.logger.Warn("dropping all database tables")

	models := []interface{}{
		(*database.InstanceModel)(nil),
		(*database.MessageModel)(nil),
		(*database.WebhookSubscriptionModel)(nil),
		(*database.WebhookHistoryModel)(nil),
		(*database.LogEntryModel)(nil),
	}

	for _, model := range models {
		if err := m.dropTable(ctx, model); err != nil {
			return fmt.Errorf("failed to drop table for model %T: %w", model, err)
		}
	}

	m.logger.Info("all database tables dropped")
	return nil
}

// dropTable drops a table
func (m *Migrator) dropTable(ctx context.Context, model interface{}) error {
	_, err := m.db.NewDropTable().
		Model(model).
		IfExists().
		Exec(ctx)

	if err != nil {
		return err
	}

	tableName := modelTableName(model)

	m.logger.InfoWithFields("table dropped", logger.Fields{
		"table": tableName,
	})

	return nil
}

// modelTableName extracts a human-readable table name for logging.
func modelTableName(model interface{}) string {
	switch model.(type) {
	case *database.InstanceModel:
		return "instances"
	case *database.MessageModel:
		return "messages"
	case *database.WebhookSubscriptionModel:
		return "webhook_subscriptions"
	case *database.WebhookHistoryModel:
		return "webhook_history"
	case *database.LogEntryModel:
		return "instance_logs"
	default:
		return "unknown"
	}
}

// Reset drops and recreates all tables
func (m *Migrator) Reset(ctx context.Context) error {
	m.logger.Warn("resetting database (drop and recreate all tables)")

	if err := m.Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}

	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to recreate tables: %w", err)
	}

	m.logger.Info("database reset completed")
	return nil
}
