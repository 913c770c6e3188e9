package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"chatgateway/internal/domain/webhook"
	"chatgateway/internal/infra/database"
	"chatgateway/pkg/logger"
)

// WebhookSubscriptionRepository implements webhook.SubscriptionRepository
// using Bun ORM.
type WebhookSubscriptionRepository struct {
	db     *bun.DB
	logger logger.Logger
}

func NewWebhookSubscriptionRepository(db *bun.DB, log logger.Logger) webhook.SubscriptionRepository {
	return &WebhookSubscriptionRepository{db: db, logger: log}
}

func (r *WebhookSubscriptionRepository) Create(ctx context.Context, sub *webhook.Subscription) error {
	model := database.ToWebhookSubscriptionModel(sub)
	if _, err := r.db.NewInsert().Model(model).Exec(ctx); err != nil {
		r.logger.ErrorWithError("failed to create webhook subscription", err, logger.Fields{"webhook_id": sub.ID()})
		return fmt.Errorf("failed to create webhook subscription: %w", err)
	}
	return nil
}

func (r *WebhookSubscriptionRepository) GetByID(ctx context.Context, id string) (*webhook.Subscription, error) {
	var model database.WebhookSubscriptionModel
	err := r.db.NewSelect().Model(&model).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, webhook.ErrSubscriptionNotFound
		}
		r.logger.ErrorWithError("failed to get webhook subscription", err, logger.Fields{"webhook_id": id})
		return nil, fmt.Errorf("failed to get webhook subscription: %w", err)
	}
	return database.FromWebhookSubscriptionModel(&model), nil
}

func (r *WebhookSubscriptionRepository) ListByInstance(ctx context.Context, instanceID string) ([]*webhook.Subscription, error) {
	var models []database.WebhookSubscriptionModel
	err := r.db.NewSelect().Model(&models).Where("instance_id = ?", instanceID).Order("created_at DESC").Scan(ctx)
	if err != nil {
		r.logger.ErrorWithError("failed to list webhook subscriptions", err, logger.Fields{"instance_id": instanceID})
		return nil, fmt.Errorf("failed to list webhook subscriptions: %w", err)
	}
	return subscriptionsFromModels(models), nil
}

// ListEnabledForEvent resolves matching subscriptions for a dispatch, i.e.
// event-name match or wildcard, enabled only.
func (r *WebhookSubscriptionRepository) ListEnabledForEvent(ctx context.Context, instanceID, event string) ([]*webhook.Subscription, error) {
	var models []database.WebhookSubscriptionModel
	err := r.db.NewSelect().
		Model(&models).
		Where("instance_id = ?", instanceID).
		Where("enabled = ?", true).
		Where("(event = ? OR event = '*')", event).
		Scan(ctx)

	if err != nil {
		r.logger.ErrorWithError("failed to list enabled webhook subscriptions", err, logger.Fields{
			"instance_id": instanceID,
			"event":       event,
		})
		return nil, fmt.Errorf("failed to list enabled webhook subscriptions: %w", err)
	}
	return subscriptionsFromModels(models), nil
}

func (r *WebhookSubscriptionRepository) Update(ctx context.Context, sub *webhook.Subscription) error {
	model := database.ToWebhookSubscriptionModel(sub)
	result, err := r.db.NewUpdate().Model(model).Where("id = ?", sub.ID()).Exec(ctx)
	if err != nil {
		r.logger.ErrorWithError("failed to update webhook subscription", err, logger.Fields{"webhook_id": sub.ID()})
		return fmt.Errorf("failed to update webhook subscription: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return webhook.ErrSubscriptionNotFound
	}
	return nil
}

func (r *WebhookSubscriptionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.NewDelete().Model((*database.WebhookSubscriptionModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		r.logger.ErrorWithError("failed to delete webhook subscription", err, logger.Fields{"webhook_id": id})
		return fmt.Errorf("failed to delete webhook subscription: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return webhook.ErrSubscriptionNotFound
	}
	return nil
}

func (r *WebhookSubscriptionRepository) DeleteByInstance(ctx context.Context, instanceID string) (int, error) {
	result, err := r.db.NewDelete().Model((*database.WebhookSubscriptionModel)(nil)).Where("instance_id = ?", instanceID).Exec(ctx)
	if err != nil {
		r.logger.ErrorWithError("failed to delete webhook subscriptions by instance", err, logger.Fields{"instance_id": instanceID})
		return 0, fmt.Errorf("failed to delete webhook subscriptions by instance: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rows), nil
}

func subscriptionsFromModels(models []database.WebhookSubscriptionModel) []*webhook.Subscription {
	out := make([]*webhook.Subscription, 0, len(models))
	for _, model := range models {
		out = append(out, database.FromWebhookSubscriptionModel(&model))
	}
	return out
}

// WebhookHistoryRepository implements webhook.HistoryRepository using Bun ORM.
type WebhookHistoryRepository struct {
	db     *bun.DB
	logger logger.Logger
}

func NewWebhookHistoryRepository(db *bun.DB, log logger.Logger) webhook.HistoryRepository {
	return &WebhookHistoryRepository{db: db, logger: log}
}

func (r *WebhookHistoryRepository) Create(ctx context.Context, h *webhook.History) error {
	model, err := database.ToWebhookHistoryModel(h)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook history: %w", err)
	}
	if _, err := r.db.NewInsert().Model(model).Exec(ctx); err != nil {
		r.logger.ErrorWithError("failed to create webhook history", err, logger.Fields{"history_id": h.ID()})
		return fmt.Errorf("failed to create webhook history: %w", err)
	}
	return nil
}

func (r *WebhookHistoryRepository) Update(ctx context.Context, h *webhook.History) error {
	model, err := database.ToWebhookHistoryModel(h)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook history: %w", err)
	}
	result, err := r.db.NewUpdate().Model(model).Where("id = ?", h.ID()).Exec(ctx)
	if err != nil {
		r.logger.ErrorWithError("failed to update webhook history", err, logger.Fields{"history_id": h.ID()})
		return fmt.Errorf("failed to update webhook history: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return webhook.ErrHistoryNotFound
	}
	return nil
}

func (r *WebhookHistoryRepository) GetByID(ctx context.Context, id string) (*webhook.History, error) {
	var model database.WebhookHistoryModel
	err := r.db.NewSelect().Model(&model).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, webhook.ErrHistoryNotFound
		}
		r.logger.ErrorWithError("failed to get webhook history", err, logger.Fields{"history_id": id})
		return nil, fmt.Errorf("failed to get webhook history: %w", err)
	}
	return database.FromWebhookHistoryModel(&model)
}

func (r *WebhookHistoryRepository) List(ctx context.Context, filter webhook.HistoryFilter, limit, offset int) ([]*webhook.History, int, error) {
	query := r.db.NewSelect().Model((*database.WebhookHistoryModel)(nil))
	query = applyHistoryFilter(query, filter)

	var models []database.WebhookHistoryModel
	if err := query.Order("triggered_at DESC").Limit(limit).Offset(offset).Scan(ctx, &models); err != nil {
		r.logger.ErrorWithError("failed to list webhook history", err, logger.Fields{"instance_id": filter.InstanceID})
		return nil, 0, fmt.Errorf("failed to list webhook history: %w", err)
	}

	countQuery := r.db.NewSelect().Model((*database.WebhookHistoryModel)(nil))
	countQuery = applyHistoryFilter(countQuery, filter)
	total, err := countQuery.Count(ctx)
	if err != nil {
		r.logger.ErrorWithError("failed to count webhook history", err, logger.Fields{"instance_id": filter.InstanceID})
		return nil, 0, fmt.Errorf("failed to count webhook history: %w", err)
	}

	out := make([]*webhook.History, 0, len(models))
	for _, model := range models {
		h, err := database.FromWebhookHistoryModel(&model)
		if err != nil {
			r.logger.ErrorWithError("failed to convert webhook history model", err, logger.Fields{"history_id": model.ID})
			continue
		}
		out = append(out, h)
	}
	return out, total, nil
}

// Stats aggregates the group-by/average queries required by 4.5: counts by
// event, counts by status, and average response time across matching rows.
func (r *WebhookHistoryRepository) Stats(ctx context.Context, filter webhook.HistoryFilter) (*webhook.HistoryStats, error) {
	stats := &webhook.HistoryStats{
		ByEvent:  make(map[string]int),
		ByStatus: make(map[webhook.HistoryStatus]int),
	}

	type eventCount struct {
		Event string
		Count int
	}
	var eventCounts []eventCount
	eventQuery := r.db.NewSelect().Model((*database.WebhookHistoryModel)(nil)).
		ColumnExpr("event").ColumnExpr("COUNT(*) AS count").Group("event")
	eventQuery = applyHistoryFilter(eventQuery, filter)
	if err := eventQuery.Scan(ctx, &eventCounts); err != nil {
		r.logger.ErrorWithError("failed to aggregate webhook history by event", err, nil)
		return nil, fmt.Errorf("failed to aggregate webhook history by event: %w", err)
	}
	for _, ec := range eventCounts {
		stats.ByEvent[ec.Event] = ec.Count
	}

	type statusCount struct {
		Status string
		Count  int
	}
	var statusCounts []statusCount
	statusQuery := r.db.NewSelect().Model((*database.WebhookHistoryModel)(nil)).
		ColumnExpr("status").ColumnExpr("COUNT(*) AS count").Group("status")
	statusQuery = applyHistoryFilter(statusQuery, filter)
	if err := statusQuery.Scan(ctx, &statusCounts); err != nil {
		r.logger.ErrorWithError("failed to aggregate webhook history by status", err, nil)
		return nil, fmt.Errorf("failed to aggregate webhook history by status: %w", err)
	}
	for _, sc := range statusCounts {
		status := webhook.HistoryStatus(sc.Status)
		stats.ByStatus[status] = sc.Count
		switch status {
		case webhook.HistorySuccess:
			stats.SuccessCount += sc.Count
		case webhook.HistoryFailed, webhook.HistoryTimeout:
			stats.FailureCount += sc.Count
		}
	}

	var avg sql.NullFloat64
	avgQuery := r.db.NewSelect().Model((*database.WebhookHistoryModel)(nil)).
		ColumnExpr("AVG(response_time_ms) AS avg").Where("response_time_ms IS NOT NULL")
	avgQuery = applyHistoryFilter(avgQuery, filter)
	if err := avgQuery.Scan(ctx, &avg); err != nil {
		r.logger.ErrorWithError("failed to average webhook response time", err, nil)
		return nil, fmt.Errorf("failed to average webhook response time: %w", err)
	}
	if avg.Valid {
		stats.AverageResponseMs = avg.Float64
	}

	return stats, nil
}

func (r *WebhookHistoryRepository) DeleteByInstance(ctx context.Context, instanceID string) (int, error) {
	result, err := r.db.NewDelete().Model((*database.WebhookHistoryModel)(nil)).Where("instance_id = ?", instanceID).Exec(ctx)
	if err != nil {
		r.logger.ErrorWithError("failed to delete webhook history by instance", err, logger.Fields{"instance_id": instanceID})
		return 0, fmt.Errorf("failed to delete webhook history by instance: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rows), nil
}

func (r *WebhookHistoryRepository) DeleteOlderThan(ctx context.Context, cutoff int64) (int, error) {
	result, err := r.db.NewDelete().
		Model((*database.WebhookHistoryModel)(nil)).
		Where("triggered_at < ?", time.Unix(cutoff, 0)).
		Exec(ctx)

	if err != nil {
		r.logger.ErrorWithError("failed to delete stale webhook history", err, logger.Fields{"cutoff": cutoff})
		return 0, fmt.Errorf("failed to delete stale webhook history: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rows), nil
}

func applyHistoryFilter(query *bun.SelectQuery, filter webhook.HistoryFilter) *bun.SelectQuery {
	if filter.InstanceID != "" {
		query = query.Where("instance_id = ?", filter.InstanceID)
	}
	if filter.WebhookID != "" {
		query = query.Where("webhook_id = ?", filter.WebhookID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.Event != "" {
		query = query.Where("event = ?", filter.Event)
	}
	if filter.From > 0 {
		query = query.Where("triggered_at >= ?", time.Unix(filter.From, 0))
	}
	if filter.To > 0 {
		query = query.Where("triggered_at <= ?", time.Unix(filter.To, 0))
	}
	return query
}
