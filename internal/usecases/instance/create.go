package instance

import (
	"context"

	"chatgateway/internal/core"
	"chatgateway/internal/domain/instance"
	"chatgateway/pkg/logger"
	"chatgateway/pkg/validator"
)

// CreateUseCase handles instance creation (4.1).
type CreateUseCase struct {
	manager   *core.Manager
	logger    logger.Logger
	validator validator.Validator
}

func NewCreateUseCase(manager *core.Manager, log logger.Logger, v validator.Validator) *CreateUseCase {
	return &CreateUseCase{manager: manager, logger: log, validator: v}
}

type CreateRequest struct {
	Phone string `json:"phone" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Alias string `json:"alias"`
}

type CreateResponse struct {
	Instance *instance.Instance `json:"instance"`
}

func (uc *CreateUseCase) Execute(ctx context.Context, req CreateRequest) (*CreateResponse, error) {
	if err := uc.validator.Validate(req); err != nil {
		uc.logger.ErrorWithError("validation failed for create instance", err, logger.Fields{"phone": req.Phone})
		return nil, err
	}

	phone, err := instance.NewPhone(req.Phone)
	if err != nil {
		uc.logger.WarnWithFields("invalid phone for create instance", logger.Fields{"phone": req.Phone})
		return nil, err
	}
	name, err := instance.NewName(req.Name)
	if err != nil {
		uc.logger.WarnWithFields("invalid name for create instance", logger.Fields{"name": req.Name})
		return nil, err
	}

	inst, err := uc.manager.Create(ctx, phone, name, req.Alias)
	if err != nil {
		uc.logger.ErrorWithError("failed to create instance", err, logger.Fields{"phone": req.Phone})
		return nil, err
	}

	uc.logger.InfoWithFields("instance created successfully", logger.Fields{
		"instance_id": inst.ID().String(),
		"phone":       inst.Phone().String(),
	})

	return &CreateResponse{Instance: inst}, nil
}
