package dto

import (
	"time"

	"chatgateway/internal/domain/webhook"
)

// CreateSubscriptionRequest is the control API's webhook-subscription
// creation body (4.4, 6).
type CreateSubscriptionRequest struct {
	Type      string `json:"type" validate:"required"`
	Event     string `json:"event" validate:"required"`
	TargetURL string `json:"target_url" validate:"required,url"`
	Enabled   bool   `json:"enabled"`
}

// UpdateSubscriptionRequest patches event/target_url/enabled; nil leaves a
// field untouched.
type UpdateSubscriptionRequest struct {
	Event     *string `json:"event,omitempty"`
	TargetURL *string `json:"target_url,omitempty"`
	Enabled   *bool   `json:"enabled,omitempty"`
}

// SubscriptionResponse is the wire representation of a webhook Subscription.
type SubscriptionResponse struct {
	ID         string    `json:"id"`
	InstanceID string    `json:"instance_id"`
	Type       string    `json:"type"`
	Event      string    `json:"event"`
	TargetURL  string    `json:"target_url"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"created_at"`
}

// SubscriptionListResponse is the webhook-subscription listing payload.
type SubscriptionListResponse struct {
	Subscriptions []*SubscriptionResponse `json:"subscriptions"`
}

// ToSubscriptionResponse converts a domain Subscription into its wire
// representation.
func ToSubscriptionResponse(sub *webhook.Subscription) *SubscriptionResponse {
	if sub == nil {
		return nil
	}
	return &SubscriptionResponse{
		ID:         sub.ID(),
		InstanceID: sub.InstanceID(),
		Type:       sub.Type(),
		Event:      sub.Event(),
		TargetURL:  sub.TargetURL(),
		Enabled:    sub.Enabled(),
		CreatedAt:  sub.CreatedAt(),
	}
}

// ToSubscriptionListResponse converts a slice of domain Subscriptions.
func ToSubscriptionListResponse(subs []*webhook.Subscription) *SubscriptionListResponse {
	out := make([]*SubscriptionResponse, len(subs))
	for i, sub := range subs {
		out[i] = ToSubscriptionResponse(sub)
	}
	return &SubscriptionListResponse{Subscriptions: out}
}

// HistoryResponse is the wire representation of a webhook delivery attempt.
type HistoryResponse struct {
	ID             string     `json:"id"`
	InstanceID     string     `json:"instance_id"`
	WebhookID      string     `json:"webhook_id"`
	Event          string     `json:"event"`
	Payload        map[string]interface{} `json:"payload,omitempty"`
	Status         string     `json:"status"`
	HTTPStatus     *int       `json:"http_status,omitempty"`
	ResponseTimeMs *int64     `json:"response_time_ms,omitempty"`
	Response       *string    `json:"response,omitempty"`
	ErrorMessage   *string    `json:"error_message,omitempty"`
	RetryCount     int        `json:"retry_count"`
	TriggeredAt    time.Time  `json:"triggered_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// HistoryListResponse is the paginated webhook-history query payload (6).
type HistoryListResponse struct {
	History []*HistoryResponse `json:"history"`
	Total   int                `json:"total"`
	Limit   int                `json:"limit"`
	Offset  int                `json:"offset"`
}

// StatsResponse is the webhook delivery-stats payload (4.5).
type StatsResponse struct {
	ByEvent           map[string]int            `json:"by_event"`
	ByStatus          map[webhook.HistoryStatus]int `json:"by_status"`
	AverageResponseMs float64                   `json:"average_response_ms"`
	SuccessCount      int                        `json:"success_count"`
	FailureCount      int                        `json:"failure_count"`
}

// PurgeHistoryRequest is the retention-cleanup body (scenario 6).
type PurgeHistoryRequest struct {
	Cutoff int64 `json:"cutoff" validate:"required"`
}

// PurgeHistoryResponse reports how many rows a purge removed.
type PurgeHistoryResponse struct {
	Deleted int `json:"deleted"`
}

// ToHistoryResponse converts a domain History record into its wire
// representation.
func ToHistoryResponse(h *webhook.History) *HistoryResponse {
	if h == nil {
		return nil
	}
	return &HistoryResponse{
		ID:             h.ID(),
		InstanceID:     h.InstanceID(),
		WebhookID:      h.WebhookID(),
		Event:          h.Event(),
		Payload:        h.Payload(),
		Status:         string(h.Status()),
		HTTPStatus:     h.HTTPStatus(),
		ResponseTimeMs: h.ResponseTimeMs(),
		Response:       h.Response(),
		ErrorMessage:   h.ErrorMessage(),
		RetryCount:     h.RetryCount(),
		TriggeredAt:    h.TriggeredAt(),
		CompletedAt:    h.CompletedAt(),
	}
}

// ToHistoryListResponse converts a page of domain History records.
func ToHistoryListResponse(records []*webhook.History, total, limit, offset int) *HistoryListResponse {
	out := make([]*HistoryResponse, len(records))
	for i, h := range records {
		out[i] = ToHistoryResponse(h)
	}
	return &HistoryListResponse{History: out, Total: total, Limit: limit, Offset: offset}
}

// ToStatsResponse converts domain HistoryStats into its wire representation.
func ToStatsResponse(stats *webhook.HistoryStats) *StatsResponse {
	if stats == nil {
		return nil
	}
	return &StatsResponse{
		ByEvent:           stats.ByEvent,
		ByStatus:          stats.ByStatus,
		AverageResponseMs: stats.AverageResponseMs,
		SuccessCount:      stats.SuccessCount,
		FailureCount:      stats.FailureCount,
	}
}
