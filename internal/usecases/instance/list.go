package instance

import (
	"context"

	"chatgateway/internal/core"
	"chatgateway/internal/domain/instance"
	"chatgateway/pkg/logger"
)

// ListUseCase handles listing and fetching instances.
type ListUseCase struct {
	manager *core.Manager
	logger  logger.Logger
}

func NewListUseCase(manager *core.Manager, log logger.Logger) *ListUseCase {
	return &ListUseCase{manager: manager, logger: log}
}

type ListRequest struct {
	Limit  int `json:"limit" validate:"min=1,max=100"`
	Offset int `json:"offset" validate:"min=0"`
}

type ListResponse struct {
	Instances []*instance.Instance `json:"instances"`
	Total     int                  `json:"total"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
}

func (uc *ListUseCase) Execute(ctx context.Context, req ListRequest) (*ListResponse, error) {
	if req.Limit <= 0 {
		req.Limit = 10
	}
	if req.Limit > 100 {
		req.Limit = 100
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	insts, total, err := uc.manager.List(ctx, req.Limit, req.Offset)
	if err != nil {
		uc.logger.ErrorWithError("failed to list instances", err, logger.Fields{"limit": req.Limit, "offset": req.Offset})
		return nil, err
	}

	return &ListResponse{Instances: insts, Total: total, Limit: req.Limit, Offset: req.Offset}, nil
}

type GetRequest struct {
	Phone string `json:"phone" validate:"required"`
}

type GetResponse struct {
	Instance *instance.Instance `json:"instance"`
}

// GetUseCase fetches a single instance by phone, preferring the live Runtime
// snapshot over the persisted row when one is bound.
type GetUseCase struct {
	manager *core.Manager
	logger  logger.Logger
}

func NewGetUseCase(manager *core.Manager, log logger.Logger) *GetUseCase {
	return &GetUseCase{manager: manager, logger: log}
}

func (uc *GetUseCase) Execute(ctx context.Context, req GetRequest) (*GetResponse, error) {
	phone, err := instance.NewPhone(req.Phone)
	if err != nil {
		return nil, err
	}
	inst, err := uc.manager.Get(ctx, phone)
	if err != nil {
		uc.logger.ErrorWithError("failed to get instance", err, logger.Fields{"phone": req.Phone})
		return nil, err
	}
	return &GetResponse{Instance: inst}, nil
}
