package migrations

import (
	"context"
	"database/sql"
	"testing"

	"chatgateway/internal/infra/database/migrations"
	"chatgateway/pkg/logger"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func setupTestDB(t *testing.T) *bun.DB {
	// Create in-memory SQLite database for testing
	sqldb, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)

	// Create bun DB instance
	db := bun.NewDB(sqldb, sqlitedialect.New())
	return db
}

func TestMigrator_Migrate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	logger := &logger.NoopLogger{}
	migrator := migrations.NewMigrator(db, logger)

	ctx := context.Background()
	err := migrator.Migrate(ctx)
	require.NoError(t, err)

	// Verify all application tables exist
	expectedTables := []string{
		"instances", "messages", "webhook_subscriptions", "webhook_history", "instance_logs",
	}
	for _, table := range expectedTables {
		var count int
		err = db.NewSelect().
			ColumnExpr("COUNT(*)").
			TableExpr("sqlite_master").
			Where("type = ? AND name = ?", "table", table).
			Scan(ctx, &count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "%s table should exist", table)
	}

	// Verify the instances table structure
	rows, err := db.QueryContext(ctx, "PRAGMA table_info(instances)")
	require.NoError(t, err)
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var cid int
		var name, dataType string
		var notNull, pk int
		var defaultValue sql.NullString

		err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &pk)
		require.NoError(t, err)
		columns[name] = true
	}

	expectedColumns := []string{
		"id", "phone", "name", "alias", "status", "wa_jid", "qr_code",
		"proxy_url", "plugin_overrides", "reconnect_attempts", "created_at", "updated_at",
	}

	for _, col := range expectedColumns {
		assert.True(t, columns[col], "Column %s should exist", col)
	}
}

func TestMigrator_CreateTable(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	logger := &logger.NoopLogger{}
	migrator := migrations.NewMigrator(db, logger)

	ctx := context.Background()

	err := migrator.Migrate(ctx)
	require.NoError(t, err)

	// Verify we can insert data
	_, err = db.ExecContext(ctx, `
		INSERT INTO instances (id, phone, name, status, reconnect_attempts, created_at, updated_at)
		VALUES ('test-id', '5511999999999', 'test-instance', 'pending', 0, datetime('now'), datetime('now'))
	`)
	require.NoError(t, err)

	// Verify we can read data
	var count int
	err = db.NewSelect().
		ColumnExpr("COUNT(*)").
		TableExpr("instances").
		Where("name = ?", "test-instance").
		Scan(ctx, &count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMigrator_Reset(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	logger := &logger.NoopLogger{}
	migrator := migrations.NewMigrator(db, logger)

	ctx := context.Background()
	require.NoError(t, migrator.Migrate(ctx))
	require.NoError(t, migrator.Reset(ctx))

	var count int
	err := db.NewSelect().
		ColumnExpr("COUNT(*)").
		TableExpr("sqlite_master").
		Where("type = ? AND name = ?", "table", "instances").
		Scan(ctx, &count)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "instances table should exist after reset")
}
