package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"chatgateway/internal/domain/message"
	"chatgateway/internal/infra/database"
	"chatgateway/pkg/logger"
)

// MessageRepository implements message.Repository using Bun ORM.
type MessageRepository struct {
	db     *bun.DB
	logger logger.Logger
}

func NewMessageRepository(db *bun.DB, log logger.Logger) message.Repository {
	return &MessageRepository{db: db, logger: log}
}

func (r *MessageRepository) Create(ctx context.Context, msg *message.Message) error {
	model, err := database.ToMessageModel(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if _, err := r.db.NewInsert().Model(model).Exec(ctx); err != nil {
		r.logger.ErrorWithError("failed to create message", err, logger.Fields{
			"message_id":  msg.ID(),
			"instance_id": msg.InstanceID(),
		})
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id string) (*message.Message, error) {
	var model database.MessageModel
	err := r.db.NewSelect().Model(&model).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, message.ErrMessageNotFound
		}
		r.logger.ErrorWithError("failed to get message by id", err, logger.Fields{"message_id": id})
		return nil, fmt.Errorf("failed to get message by id: %w", err)
	}
	return database.FromMessageModel(&model)
}

func (r *MessageRepository) List(ctx context.Context, filter message.Filter, limit, offset int) ([]*message.Message, int, error) {
	query := r.db.NewSelect().Model((*database.MessageModel)(nil))
	query = applyMessageFilter(query, filter)

	var models []database.MessageModel
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Scan(ctx, &models)
	if err != nil {
		r.logger.ErrorWithError("failed to list messages", err, logger.Fields{"instance_id": filter.InstanceID})
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}

	countQuery := r.db.NewSelect().Model((*database.MessageModel)(nil))
	countQuery = applyMessageFilter(countQuery, filter)
	total, err := countQuery.Count(ctx)
	if err != nil {
		r.logger.ErrorWithError("failed to count messages", err, logger.Fields{"instance_id": filter.InstanceID})
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	return messagesFromModels(r.logger, models), total, nil
}

// Conversation returns messages between the owning instance and a contact,
// ordered ascending by creation time (4.5).
func (r *MessageRepository) Conversation(ctx context.Context, instanceID, contact string, limit, offset int) ([]*message.Message, int, error) {
	var models []database.MessageModel
	err := r.db.NewSelect().
		Model(&models).
		Where("instance_id = ?", instanceID).
		Where("(from_addr = ? OR to_addr = ?)", contact, contact).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)

	if err != nil {
		r.logger.ErrorWithError("failed to get conversation", err, logger.Fields{
			"instance_id": instanceID,
			"contact":     contact,
		})
		return nil, 0, fmt.Errorf("failed to get conversation: %w", err)
	}

	total, err := r.db.NewSelect().
		Model((*database.MessageModel)(nil)).
		Where("instance_id = ?", instanceID).
		Where("(from_addr = ? OR to_addr = ?)", contact, contact).
		Count(ctx)

	if err != nil {
		r.logger.ErrorWithError("failed to count conversation", err, logger.Fields{
			"instance_id": instanceID,
			"contact":     contact,
		})
		return nil, 0, fmt.Errorf("failed to count conversation: %w", err)
	}

	return messagesFromModels(r.logger, models), total, nil
}

func (r *MessageRepository) UpdateStatus(ctx context.Context, id string, status message.Status) error {
	result, err := r.db.NewUpdate().
		Model((*database.MessageModel)(nil)).
		Set("status = ?", string(status)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		r.logger.ErrorWithError("failed to update message status", err, logger.Fields{"message_id": id})
		return fmt.Errorf("failed to update message status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return message.ErrMessageNotFound
	}
	return nil
}

func (r *MessageRepository) DeleteByInstance(ctx context.Context, instanceID string) (int, error) {
	result, err := r.db.NewDelete().Model((*database.MessageModel)(nil)).Where("instance_id = ?", instanceID).Exec(ctx)
	if err != nil {
		r.logger.ErrorWithError("failed to delete messages by instance", err, logger.Fields{"instance_id": instanceID})
		return 0, fmt.Errorf("failed to delete messages by instance: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rows), nil
}

func (r *MessageRepository) DeleteOlderThan(ctx context.Context, cutoff int64) (int, error) {
	result, err := r.db.NewDelete().
		Model((*database.MessageModel)(nil)).
		Where("created_at < ?", time.Unix(cutoff, 0)).
		Exec(ctx)

	if err != nil {
		r.logger.ErrorWithError("failed to delete stale messages", err, logger.Fields{"cutoff": cutoff})
		return 0, fmt.Errorf("failed to delete stale messages: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rows), nil
}

func applyMessageFilter(query *bun.SelectQuery, filter message.Filter) *bun.SelectQuery {
	if filter.InstanceID != "" {
		query = query.Where("instance_id = ?", filter.InstanceID)
	}
	if filter.Direction != nil {
		query = query.Where("direction = ?", string(*filter.Direction))
	}
	if filter.Type != nil {
		query = query.Where("msg_type = ?", string(*filter.Type))
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	return query
}

func messagesFromModels(log logger.Logger, models []database.MessageModel) []*message.Message {
	out := make([]*message.Message, 0, len(models))
	for _, model := range models {
		msg, err := database.FromMessageModel(&model)
		if err != nil {
			log.ErrorWithError("failed to convert message model", err, logger.Fields{"message_id": model.ID})
			continue
		}
		out = append(out, msg)
	}
	return out
}
