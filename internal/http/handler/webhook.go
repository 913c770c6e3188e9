package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"chatgateway/internal/domain/webhook"
	"chatgateway/internal/http/dto"
	webhookUC "chatgateway/internal/usecases/webhook"
	"chatgateway/pkg/logger"
)

// WebhookHandler handles webhook subscription and delivery-history HTTP
// requests (3, 4.4, 4.5, 6).
type WebhookHandler struct {
	subscriptionsUC *webhookUC.SubscriptionUseCase
	historyUC       *webhookUC.HistoryUseCase
	logger          logger.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(subscriptionsUC *webhookUC.SubscriptionUseCase, historyUC *webhookUC.HistoryUseCase, logger logger.Logger) *WebhookHandler {
	return &WebhookHandler{subscriptionsUC: subscriptionsUC, historyUC: historyUC, logger: logger}
}

// CreateSubscription handles POST /instances/{phone}/webhooks
func (h *WebhookHandler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")

	var req dto.CreateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.WriteError(w, err)
		return
	}

	result, err := h.subscriptionsUC.Create(r.Context(), webhookUC.CreateSubscriptionRequest{
		Phone:     phone,
		Type:      req.Type,
		Event:     req.Event,
		TargetURL: req.TargetURL,
		Enabled:   req.Enabled,
	})
	if err != nil {
		dto.WriteError(w, err)
		return
	}

	dto.WriteSuccess(w, http.StatusCreated, "webhook subscription created", dto.ToSubscriptionResponse(result.Subscription))
}

// ListSubscriptions handles GET /instances/{phone}/webhooks
func (h *WebhookHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")

	result, err := h.subscriptionsUC.List(r.Context(), webhookUC.ListSubscriptionsRequest{Phone: phone})
	if err != nil {
		dto.WriteError(w, err)
		return
	}

	dto.WriteSuccess(w, http.StatusOK, "webhook subscriptions retrieved", dto.ToSubscriptionListResponse(result.Subscriptions))
}

// UpdateSubscription handles PATCH /webhooks/{id}
func (h *WebhookHandler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.UpdateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.WriteError(w, err)
		return
	}

	result, err := h.subscriptionsUC.Update(r.Context(), webhookUC.UpdateSubscriptionRequest{
		ID:        id,
		Event:     req.Event,
		TargetURL: req.TargetURL,
		Enabled:   req.Enabled,
	})
	if err != nil {
		dto.WriteError(w, err)
		return
	}

	dto.WriteSuccess(w, http.StatusOK, "webhook subscription updated", dto.ToSubscriptionResponse(result.Subscription))
}

// DeleteSubscription handles DELETE /webhooks/{id}
func (h *WebhookHandler) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.subscriptionsUC.Delete(r.Context(), webhookUC.DeleteSubscriptionRequest{ID: id}); err != nil {
		dto.WriteError(w, err)
		return
	}

	dto.WriteSuccess(w, http.StatusOK, "webhook subscription deleted", nil)
}

// ListHistory handles GET /webhooks/history
func (h *WebhookHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := parsePagination(r)

	var status *webhook.HistoryStatus
	if v := q.Get("status"); v != "" {
		s := webhook.HistoryStatus(v)
		status = &s
	}

	result, err := h.historyUC.List(r.Context(), webhookUC.ListHistoryRequest{
		Phone:     q.Get("phone"),
		WebhookID: q.Get("webhook_id"),
		Status:    status,
		Event:     q.Get("event"),
		From:      int64(atoiOrZero(q.Get("from"))),
		To:        int64(atoiOrZero(q.Get("to"))),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		dto.WriteError(w, err)
		return
	}

	dto.WriteSuccess(w, http.StatusOK, "webhook history retrieved", dto.ToHistoryListResponse(result.History, result.Total, result.Limit, result.Offset))
}

// Stats handles GET /webhooks/stats
func (h *WebhookHandler) Stats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	result, err := h.historyUC.Stats(r.Context(), webhookUC.StatsRequest{
		Phone: q.Get("phone"),
		Event: q.Get("event"),
		From:  int64(atoiOrZero(q.Get("from"))),
		To:    int64(atoiOrZero(q.Get("to"))),
	})
	if err != nil {
		dto.WriteError(w, err)
		return
	}

	dto.WriteSuccess(w, http.StatusOK, "webhook stats retrieved", dto.ToStatsResponse(result.Stats))
}

// PurgeHistory handles POST /webhooks/history/purge
func (h *WebhookHandler) PurgeHistory(w http.ResponseWriter, r *http.Request) {
	var req dto.PurgeHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.WriteError(w, err)
		return
	}

	count, err := h.historyUC.Purge(r.Context(), webhookUC.PurgeHistoryRequest{Cutoff: req.Cutoff})
	if err != nil {
		dto.WriteError(w, err)
		return
	}

	dto.WriteSuccess(w, http.StatusOK, "webhook history purged", &dto.PurgeHistoryResponse{Deleted: count})
}
