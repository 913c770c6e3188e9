package database

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"

	"chatgateway/internal/domain/webhook"
)

// WebhookSubscriptionModel is the database model for webhook.Subscription
// rows (4.5).
type WebhookSubscriptionModel struct {
	bun.BaseModel `bun:"table:webhook_subscriptions"`

	ID         string    `bun:"id,pk,type:varchar(36)" json:"id"`
	InstanceID string    `bun:"instance_id,notnull,type:varchar(36)" json:"instance_id"`
	SubType    string    `bun:"sub_type,notnull,type:varchar(20)" json:"sub_type"`
	Event      string    `bun:"event,notnull,type:varchar(50)" json:"event"`
	TargetURL  string    `bun:"target_url,notnull,type:text" json:"target_url"`
	Enabled    bool      `bun:"enabled,notnull,default:true" json:"enabled"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp,type:datetime" json:"created_at"`
}

func ToWebhookSubscriptionModel(sub *webhook.Subscription) *WebhookSubscriptionModel {
	return &WebhookSubscriptionModel{
		ID:         sub.ID(),
		InstanceID: sub.InstanceID(),
		SubType:    sub.Type(),
		Event:      sub.Event(),
		TargetURL:  sub.TargetURL(),
		Enabled:    sub.Enabled(),
		CreatedAt:  sub.CreatedAt(),
	}
}

func FromWebhookSubscriptionModel(model *WebhookSubscriptionModel) *webhook.Subscription {
	return webhook.RestoreSubscription(
		model.ID, model.InstanceID, model.SubType, model.Event,
		model.TargetURL, model.Enabled, model.CreatedAt,
	)
}

// WebhookHistoryModel is the database model for webhook.History rows (4.5).
type WebhookHistoryModel struct {
	bun.BaseModel `bun:"table:webhook_history"`

	ID             string     `bun:"id,pk,type:varchar(36)" json:"id"`
	InstanceID     string     `bun:"instance_id,notnull,type:varchar(36)" json:"instance_id"`
	WebhookID      string     `bun:"webhook_id,notnull,type:varchar(36)" json:"webhook_id"`
	Event          string     `bun:"event,notnull,type:varchar(50)" json:"event"`
	Payload        string     `bun:"payload,type:text" json:"payload,omitempty"`
	Status         string     `bun:"status,notnull,type:varchar(20),default:'pending'" json:"status"`
	HTTPStatus     *int       `bun:"http_status" json:"http_status,omitempty"`
	ResponseTimeMs *int64     `bun:"response_time_ms" json:"response_time_ms,omitempty"`
	Response       *string    `bun:"response,type:text" json:"response,omitempty"`
	ErrorMessage   *string    `bun:"error_message,type:text" json:"error_message,omitempty"`
	RetryCount     int        `bun:"retry_count,notnull,default:0" json:"retry_count"`
	TriggeredAt    time.Time  `bun:"triggered_at,notnull,default:current_timestamp,type:datetime" json:"triggered_at"`
	CompletedAt    *time.Time `bun:"completed_at,type:datetime" json:"completed_at,omitempty"`
}

func ToWebhookHistoryModel(h *webhook.History) (*WebhookHistoryModel, error) {
	payloadJSON, err := json.Marshal(h.Payload())
	if err != nil {
		return nil, err
	}
	return &WebhookHistoryModel{
		ID:             h.ID(),
		InstanceID:     h.InstanceID(),
		WebhookID:      h.WebhookID(),
		Event:          h.Event(),
		Payload:        string(payloadJSON),
		Status:         string(h.Status()),
		HTTPStatus:     h.HTTPStatus(),
		ResponseTimeMs: h.ResponseTimeMs(),
		Response:       h.Response(),
		ErrorMessage:   h.ErrorMessage(),
		RetryCount:     h.RetryCount(),
		TriggeredAt:    h.TriggeredAt(),
		CompletedAt:    h.CompletedAt(),
	}, nil
}

func FromWebhookHistoryModel(model *WebhookHistoryModel) (*webhook.History, error) {
	var payload map[string]interface{}
	if model.Payload != "" {
		if err := json.Unmarshal([]byte(model.Payload), &payload); err != nil {
			return nil, err
		}
	}
	return webhook.RestoreHistory(
		model.ID, model.InstanceID, model.WebhookID, model.Event, payload,
		webhook.HistoryStatus(model.Status), model.HTTPStatus, model.ResponseTimeMs,
		model.Response, model.ErrorMessage, model.RetryCount,
		model.TriggeredAt, model.CompletedAt,
	), nil
}
