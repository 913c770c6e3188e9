package instance

import (
	"context"

	"chatgateway/internal/core"
	"chatgateway/internal/domain/instance"
	"chatgateway/pkg/logger"
	"chatgateway/pkg/validator"
)

// UpdateUseCase patches an instance's name/alias/proxy fields (4.1, supplemented
// proxy feature SPEC_FULL.md §C).
type UpdateUseCase struct {
	manager   *core.Manager
	logger    logger.Logger
	validator validator.Validator
}

func NewUpdateUseCase(manager *core.Manager, log logger.Logger, v validator.Validator) *UpdateUseCase {
	return &UpdateUseCase{manager: manager, logger: log, validator: v}
}

type UpdateRequest struct {
	Phone    string  `json:"phone" validate:"required"`
	Name     *string `json:"name,omitempty"`
	Alias    *string `json:"alias,omitempty"`
	ProxyURL *string `json:"proxy_url,omitempty"`
}

type UpdateResponse struct {
	Instance *instance.Instance `json:"instance"`
}

func (uc *UpdateUseCase) Execute(ctx context.Context, req UpdateRequest) (*UpdateResponse, error) {
	if err := uc.validator.Validate(req); err != nil {
		uc.logger.ErrorWithError("validation failed for update instance", err, logger.Fields{"phone": req.Phone})
		return nil, err
	}

	phone, err := instance.NewPhone(req.Phone)
	if err != nil {
		return nil, err
	}

	var name *instance.Name
	if req.Name != nil {
		n, err := instance.NewName(*req.Name)
		if err != nil {
			return nil, err
		}
		name = &n
	}

	inst, err := uc.manager.Update(ctx, phone, name, req.Alias, req.ProxyURL)
	if err != nil {
		uc.logger.ErrorWithError("failed to update instance", err, logger.Fields{"phone": req.Phone})
		return nil, err
	}

	uc.logger.InfoWithFields("instance updated successfully", logger.Fields{"instance_id": inst.ID().String()})
	return &UpdateResponse{Instance: inst}, nil
}

// DeleteUseCase removes an instance, optionally keeping its persisted record
// (soft-clean semantics, 4.2).
type DeleteUseCase struct {
	manager *core.Manager
	logger  logger.Logger
}

func NewDeleteUseCase(manager *core.Manager, log logger.Logger) *DeleteUseCase {
	return &DeleteUseCase{manager: manager, logger: log}
}

type DeleteRequest struct {
	Phone      string `json:"phone" validate:"required"`
	KeepRecord bool   `json:"keep_record"`
}

func (uc *DeleteUseCase) Execute(ctx context.Context, req DeleteRequest) error {
	phone, err := instance.NewPhone(req.Phone)
	if err != nil {
		return err
	}
	if err := uc.manager.Delete(ctx, phone, req.KeepRecord); err != nil {
		uc.logger.ErrorWithError("failed to delete instance", err, logger.Fields{"phone": req.Phone})
		return err
	}
	uc.logger.InfoWithFields("instance deleted successfully", logger.Fields{"phone": req.Phone, "keep_record": req.KeepRecord})
	return nil
}
