package webhook

import (
	"context"

	"chatgateway/internal/domain/instance"
	"chatgateway/internal/domain/webhook"
	"chatgateway/pkg/logger"
)

// HistoryUseCase serves the control API's webhook delivery-history
// query/stats/retention surface (4.5, 6).
type HistoryUseCase struct {
	instances instance.Repository
	history   webhook.HistoryRepository
	logger    logger.Logger
}

func NewHistoryUseCase(instances instance.Repository, history webhook.HistoryRepository, log logger.Logger) *HistoryUseCase {
	return &HistoryUseCase{instances: instances, history: history, logger: log}
}

type ListHistoryRequest struct {
	Phone     string               `json:"phone"`
	WebhookID string               `json:"webhook_id"`
	Status    *webhook.HistoryStatus `json:"status,omitempty"`
	Event     string               `json:"event"`
	From      int64                `json:"from"`
	To        int64                `json:"to"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
}

type ListHistoryResponse struct {
	History []*webhook.History `json:"history"`
	Total   int                `json:"total"`
	Limit   int                `json:"limit"`
	Offset  int                `json:"offset"`
}

func (uc *HistoryUseCase) List(ctx context.Context, req ListHistoryRequest) (*ListHistoryResponse, error) {
	filter, err := uc.buildFilter(ctx, req.Phone, req.WebhookID, req.Event, req.Status, req.From, req.To)
	if err != nil {
		return nil, err
	}

	if req.Limit <= 0 {
		req.Limit = 20
	}
	if req.Limit > 100 {
		req.Limit = 100
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	records, total, err := uc.history.List(ctx, *filter, req.Limit, req.Offset)
	if err != nil {
		uc.logger.ErrorWithError("failed to list webhook history", err, logger.Fields{"phone": req.Phone})
		return nil, err
	}
	return &ListHistoryResponse{History: records, Total: total, Limit: req.Limit, Offset: req.Offset}, nil
}

type StatsRequest struct {
	Phone string `json:"phone"`
	Event string `json:"event"`
	From  int64  `json:"from"`
	To    int64  `json:"to"`
}

type StatsResponse struct {
	Stats *webhook.HistoryStats `json:"stats"`
}

func (uc *HistoryUseCase) Stats(ctx context.Context, req StatsRequest) (*StatsResponse, error) {
	filter, err := uc.buildFilter(ctx, req.Phone, "", req.Event, nil, req.From, req.To)
	if err != nil {
		return nil, err
	}
	stats, err := uc.history.Stats(ctx, *filter)
	if err != nil {
		uc.logger.ErrorWithError("failed to compute webhook history stats", err, logger.Fields{"phone": req.Phone})
		return nil, err
	}
	return &StatsResponse{Stats: stats}, nil
}

type PurgeHistoryRequest struct {
	Cutoff int64 `json:"cutoff" validate:"required"`
}

// Purge deletes webhook history rows older than the cutoff (retention, scenario 6).
func (uc *HistoryUseCase) Purge(ctx context.Context, req PurgeHistoryRequest) (int, error) {
	count, err := uc.history.DeleteOlderThan(ctx, req.Cutoff)
	if err != nil {
		uc.logger.ErrorWithError("failed to purge webhook history", err, logger.Fields{"cutoff": req.Cutoff})
		return 0, err
	}
	uc.logger.InfoWithFields("webhook history purged", logger.Fields{"count": count, "cutoff": req.Cutoff})
	return count, nil
}

func (uc *HistoryUseCase) buildFilter(ctx context.Context, phoneStr, webhookID, event string, status *webhook.HistoryStatus, from, to int64) (*webhook.HistoryFilter, error) {
	filter := webhook.HistoryFilter{WebhookID: webhookID, Status: status, Event: event, From: from, To: to}
	if phoneStr == "" {
		return &filter, nil
	}
	phone, err := instance.NewPhone(phoneStr)
	if err != nil {
		return nil, err
	}
	inst, err := uc.instances.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	filter.InstanceID = inst.ID().String()
	return &filter, nil
}
