package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"chatgateway/internal/domain/logentry"
	"chatgateway/internal/infra/database"
	"chatgateway/pkg/logger"
)

// LogEntryRepository implements logentry.Repository using Bun ORM.
type LogEntryRepository struct {
	db     *bun.DB
	logger logger.Logger
}

func NewLogEntryRepository(db *bun.DB, log logger.Logger) logentry.Repository {
	return &LogEntryRepository{db: db, logger: log}
}

func (r *LogEntryRepository) Create(ctx context.Context, e *logentry.Entry) error {
	model := database.ToLogEntryModel(e)
	if _, err := r.db.NewInsert().Model(model).Exec(ctx); err != nil {
		r.logger.ErrorWithError("failed to create log entry", err, logger.Fields{"instance_id": e.InstanceID()})
		return fmt.Errorf("failed to create log entry: %w", err)
	}
	return nil
}

func (r *LogEntryRepository) ListByInstance(ctx context.Context, instanceID string, limit, offset int) ([]*logentry.Entry, int, error) {
	var models []database.LogEntryModel
	err := r.db.NewSelect().
		Model(&models).
		Where("instance_id = ?", instanceID).
		Order("timestamp DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)

	if err != nil {
		r.logger.ErrorWithError("failed to list log entries", err, logger.Fields{"instance_id": instanceID})
		return nil, 0, fmt.Errorf("failed to list log entries: %w", err)
	}

	total, err := r.db.NewSelect().
		Model((*database.LogEntryModel)(nil)).
		Where("instance_id = ?", instanceID).
		Count(ctx)

	if err != nil {
		r.logger.ErrorWithError("failed to count log entries", err, logger.Fields{"instance_id": instanceID})
		return nil, 0, fmt.Errorf("failed to count log entries: %w", err)
	}

	out := make([]*logentry.Entry, 0, len(models))
	for _, model := range models {
		out = append(out, database.FromLogEntryModel(&model))
	}
	return out, total, nil
}

func (r *LogEntryRepository) DeleteByInstance(ctx context.Context, instanceID string) (int, error) {
	result, err := r.db.NewDelete().Model((*database.LogEntryModel)(nil)).Where("instance_id = ?", instanceID).Exec(ctx)
	if err != nil {
		r.logger.ErrorWithError("failed to delete log entries by instance", err, logger.Fields{"instance_id": instanceID})
		return 0, fmt.Errorf("failed to delete log entries by instance: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rows), nil
}

func (r *LogEntryRepository) DeleteOlderThan(ctx context.Context, cutoff int64) (int, error) {
	result, err := r.db.NewDelete().
		Model((*database.LogEntryModel)(nil)).
		Where("timestamp < ?", time.Unix(cutoff, 0)).
		Exec(ctx)

	if err != nil {
		r.logger.ErrorWithError("failed to delete stale log entries", err, logger.Fields{"cutoff": cutoff})
		return 0, fmt.Errorf("failed to delete stale log entries: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rows), nil
}
