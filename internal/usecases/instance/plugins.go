package instance

import (
	"context"

	"chatgateway/internal/core"
	"chatgateway/internal/domain/instance"
	"chatgateway/pkg/logger"
)

// PluginsUseCase implements the control API's plugin list/enable/disable/
// bulk-set/sync operations (4.3, 6) against an instance's live Plugin Chain.
type PluginsUseCase struct {
	manager *core.Manager
	logger  logger.Logger
}

func NewPluginsUseCase(manager *core.Manager, log logger.Logger) *PluginsUseCase {
	return &PluginsUseCase{manager: manager, logger: log}
}

type PluginStatusRequest struct {
	Phone string `json:"phone" validate:"required"`
}

type PluginStatusResponse struct {
	Status map[string]bool `json:"status"`
}

func (uc *PluginsUseCase) Status(ctx context.Context, req PluginStatusRequest) (*PluginStatusResponse, error) {
	phone, err := instance.NewPhone(req.Phone)
	if err != nil {
		return nil, err
	}
	chain, ok := uc.manager.Chain(phone)
	if !ok {
		return nil, instance.ErrInstanceNotFound
	}
	return &PluginStatusResponse{Status: chain.GetStatus()}, nil
}

type PluginSetRequest struct {
	Phone   string `json:"phone" validate:"required"`
	Plugin  string `json:"plugin" validate:"required"`
	Enabled bool   `json:"enabled"`
}

func (uc *PluginsUseCase) Set(ctx context.Context, req PluginSetRequest) error {
	phone, err := instance.NewPhone(req.Phone)
	if err != nil {
		return err
	}
	chain, ok := uc.manager.Chain(phone)
	if !ok {
		return instance.ErrInstanceNotFound
	}
	if req.Enabled {
		chain.Enable(req.Plugin)
	} else {
		chain.Disable(req.Plugin)
	}
	uc.logger.InfoWithFields("plugin override set", logger.Fields{
		"phone":   req.Phone,
		"plugin":  req.Plugin,
		"enabled": req.Enabled,
	})
	return nil
}

type PluginBulkSetRequest struct {
	Phone string          `json:"phone" validate:"required"`
	Set   map[string]bool `json:"set" validate:"required"`
}

func (uc *PluginsUseCase) BulkSet(ctx context.Context, req PluginBulkSetRequest) error {
	phone, err := instance.NewPhone(req.Phone)
	if err != nil {
		return err
	}
	chain, ok := uc.manager.Chain(phone)
	if !ok {
		return instance.ErrInstanceNotFound
	}
	chain.SetMap(req.Set)
	uc.logger.InfoWithFields("plugin overrides bulk-set", logger.Fields{"phone": req.Phone, "count": len(req.Set)})
	return nil
}

type PluginSyncRequest struct {
	Phone string `json:"phone" validate:"required"`
}

// Sync pulls the instance's persisted plugin override map back into its
// live Plugin Chain (4.3's SyncFromStore), used to reconcile concurrent
// control-API edits with a Runtime bound at a different process instance.
func (uc *PluginsUseCase) Sync(ctx context.Context, req PluginSyncRequest) error {
	phone, err := instance.NewPhone(req.Phone)
	if err != nil {
		return err
	}
	chain, ok := uc.manager.Chain(phone)
	if !ok {
		return instance.ErrInstanceNotFound
	}
	if err := chain.SyncFromStore(ctx); err != nil {
		uc.logger.ErrorWithError("failed to sync plugin overrides", err, logger.Fields{"phone": req.Phone})
		return err
	}
	return nil
}
