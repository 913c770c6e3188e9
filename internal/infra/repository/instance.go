package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"chatgateway/internal/domain/instance"
	"chatgateway/internal/infra/database"
	"chatgateway/pkg/logger"
)

// InstanceRepository implements instance.Repository using Bun ORM.
type InstanceRepository struct {
	db     *bun.DB
	logger logger.Logger
}

func NewInstanceRepository(db *bun.DB, log logger.Logger) instance.Repository {
	return &InstanceRepository{db: db, logger: log}
}

func (r *InstanceRepository) Create(ctx context.Context, inst *instance.Instance) error {
	model, err := database.ToInstanceModel(inst)
	if err != nil {
		return fmt.Errorf("failed to marshal instance: %w", err)
	}

	if _, err := r.db.NewInsert().Model(model).Exec(ctx); err != nil {
		r.logger.ErrorWithError("failed to create instance", err, logger.Fields{
			"instance_id": inst.ID().String(),
			"phone":       inst.Phone().String(),
		})
		return fmt.Errorf("failed to create instance: %w", err)
	}

	r.logger.InfoWithFields("instance created", logger.Fields{
		"instance_id": inst.ID().String(),
		"phone":       inst.Phone().String(),
	})
	return nil
}

func (r *InstanceRepository) GetByID(ctx context.Context, id instance.ID) (*instance.Instance, error) {
	var model database.InstanceModel
	err := r.db.NewSelect().Model(&model).Where("id = ?", id.String()).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, instance.ErrInstanceNotFound
		}
		r.logger.ErrorWithError("failed to get instance by id", err, logger.Fields{"instance_id": id.String()})
		return nil, fmt.Errorf("failed to get instance by id: %w", err)
	}
	return database.FromInstanceModel(&model)
}

func (r *InstanceRepository) GetByPhone(ctx context.Context, phone instance.Phone) (*instance.Instance, error) {
	var model database.InstanceModel
	err := r.db.NewSelect().Model(&model).Where("phone = ?", phone.String()).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, instance.ErrInstanceNotFound
		}
		r.logger.ErrorWithError("failed to get instance by phone", err, logger.Fields{"phone": phone.String()})
		return nil, fmt.Errorf("failed to get instance by phone: %w", err)
	}
	return database.FromInstanceModel(&model)
}

func (r *InstanceRepository) List(ctx context.Context, limit, offset int) ([]*instance.Instance, int, error) {
	var models []database.InstanceModel
	err := r.db.NewSelect().Model(&models).Order("created_at DESC").Limit(limit).Offset(offset).Scan(ctx)
	if err != nil {
		r.logger.ErrorWithError("failed to list instances", err, logger.Fields{"limit": limit, "offset": offset})
		return nil, 0, fmt.Errorf("failed to list instances: %w", err)
	}

	total, err := r.db.NewSelect().Model((*database.InstanceModel)(nil)).Count(ctx)
	if err != nil {
		r.logger.ErrorWithError("failed to count instances", err, nil)
		return nil, 0, fmt.Errorf("failed to count instances: %w", err)
	}

	return instancesFromModels(r.logger, models), total, nil
}

func (r *InstanceRepository) Update(ctx context.Context, inst *instance.Instance) error {
	model, err := database.ToInstanceModel(inst)
	if err != nil {
		return fmt.Errorf("failed to marshal instance: %w", err)
	}

	result, err := r.db.NewUpdate().Model(model).Where("id = ?", inst.ID().String()).Exec(ctx)
	if err != nil {
		r.logger.ErrorWithError("failed to update instance", err, logger.Fields{"instance_id": inst.ID().String()})
		return fmt.Errorf("failed to update instance: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return instance.ErrInstanceNotFound
	}

	r.logger.InfoWithFields("instance updated", logger.Fields{
		"instance_id": inst.ID().String(),
		"status":      inst.Status().String(),
	})
	return nil
}

func (r *InstanceRepository) UpdateStatus(ctx context.Context, id instance.ID, status instance.Status) error {
	result, err := r.db.NewUpdate().
		Model((*database.InstanceModel)(nil)).
		Set("status = ?", status.String()).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id.String()).
		Exec(ctx)

	if err != nil {
		r.logger.ErrorWithError("failed to update instance status", err, logger.Fields{"instance_id": id.String()})
		return fmt.Errorf("failed to update instance status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return instance.ErrInstanceNotFound
	}
	return nil
}

func (r *InstanceRepository) Delete(ctx context.Context, id instance.ID) error {
	result, err := r.db.NewDelete().Model((*database.InstanceModel)(nil)).Where("id = ?", id.String()).Exec(ctx)
	if err != nil {
		r.logger.ErrorWithError("failed to delete instance", err, logger.Fields{"instance_id": id.String()})
		return fmt.Errorf("failed to delete instance: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return instance.ErrInstanceNotFound
	}

	r.logger.InfoWithFields("instance deleted", logger.Fields{"instance_id": id.String()})
	return nil
}

func (r *InstanceRepository) Exists(ctx context.Context, phone instance.Phone) (bool, error) {
	count, err := r.db.NewSelect().Model((*database.InstanceModel)(nil)).Where("phone = ?", phone.String()).Count(ctx)
	if err != nil {
		r.logger.ErrorWithError("failed to check instance existence", err, logger.Fields{"phone": phone.String()})
		return false, fmt.Errorf("failed to check instance existence: %w", err)
	}
	return count > 0, nil
}

func (r *InstanceRepository) GetByStatus(ctx context.Context, status instance.Status, limit, offset int) ([]*instance.Instance, int, error) {
	var models []database.InstanceModel
	err := r.db.NewSelect().
		Model(&models).
		Where("status = ?", status.String()).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)

	if err != nil {
		r.logger.ErrorWithError("failed to get instances by status", err, logger.Fields{"status": status.String()})
		return nil, 0, fmt.Errorf("failed to get instances by status: %w", err)
	}

	total, err := r.db.NewSelect().
		Model((*database.InstanceModel)(nil)).
		Where("status = ?", status.String()).
		Count(ctx)

	if err != nil {
		r.logger.ErrorWithError("failed to count instances by status", err, logger.Fields{"status": status.String()})
		return nil, 0, fmt.Errorf("failed to count instances by status: %w", err)
	}

	return instancesFromModels(r.logger, models), total, nil
}

// DeleteOlderThan supports the retention sweep (scenario 6): rows whose
// updated_at falls before the unix cutoff are removed.
func (r *InstanceRepository) DeleteOlderThan(ctx context.Context, cutoff int64) (int, error) {
	result, err := r.db.NewDelete().
		Model((*database.InstanceModel)(nil)).
		Where("updated_at < ?", time.Unix(cutoff, 0)).
		Exec(ctx)

	if err != nil {
		r.logger.ErrorWithError("failed to delete stale instances", err, logger.Fields{"cutoff": cutoff})
		return 0, fmt.Errorf("failed to delete stale instances: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rows), nil
}

func instancesFromModels(log logger.Logger, models []database.InstanceModel) []*instance.Instance {
	out := make([]*instance.Instance, 0, len(models))
	for _, model := range models {
		inst, err := database.FromInstanceModel(&model)
		if err != nil {
			log.ErrorWithError("failed to convert instance model", err, logger.Fields{"instance_id": model.ID})
			continue
		}
		out = append(out, inst)
	}
	return out
}
