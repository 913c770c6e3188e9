package instance

import (
	"context"

	"chatgateway/internal/core"
	"chatgateway/internal/domain/instance"
	"chatgateway/pkg/logger"
)

// StartUseCase begins (or resumes) connecting an instance's transport.
type StartUseCase struct {
	manager *core.Manager
	logger  logger.Logger
}

func NewStartUseCase(manager *core.Manager, log logger.Logger) *StartUseCase {
	return &StartUseCase{manager: manager, logger: log}
}

type StartRequest struct {
	Phone string `json:"phone" validate:"required"`
}

func (uc *StartUseCase) Execute(ctx context.Context, req StartRequest) error {
	phone, err := instance.NewPhone(req.Phone)
	if err != nil {
		return err
	}
	if err := uc.manager.Start(ctx, phone); err != nil {
		uc.logger.ErrorWithError("failed to start instance", err, logger.Fields{"phone": req.Phone})
		return err
	}
	return nil
}

// RestartUseCase cycles an instance's transport closed then open
// (Manager.Restart).
type RestartUseCase struct {
	manager *core.Manager
	logger  logger.Logger
}

func NewRestartUseCase(manager *core.Manager, log logger.Logger) *RestartUseCase {
	return &RestartUseCase{manager: manager, logger: log}
}

type RestartRequest struct {
	Phone string `json:"phone" validate:"required"`
}

func (uc *RestartUseCase) Execute(ctx context.Context, req RestartRequest) error {
	phone, err := instance.NewPhone(req.Phone)
	if err != nil {
		return err
	}
	if err := uc.manager.Restart(ctx, phone); err != nil {
		uc.logger.ErrorWithError("failed to restart instance", err, logger.Fields{"phone": req.Phone})
		return err
	}
	return nil
}
