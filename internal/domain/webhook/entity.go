package webhook

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is a control-API-managed endpoint subscribed to a specific
// event on a specific Instance (3).
type Subscription struct {
	id         string
	instanceID string
	subType    string
	event      string
	targetURL  string
	enabled    bool
	createdAt  time.Time
}

func NewSubscription(instanceID, subType, event, targetURL string, enabled bool) *Subscription {
	return &Subscription{
		id:         uuid.New().String(),
		instanceID: instanceID,
		subType:    subType,
		event:      event,
		targetURL:  targetURL,
		enabled:    enabled,
		createdAt:  time.Now(),
	}
}

func RestoreSubscription(id, instanceID, subType, event, targetURL string, enabled bool, createdAt time.Time) *Subscription {
	return &Subscription{id: id, instanceID: instanceID, subType: subType, event: event, targetURL: targetURL, enabled: enabled, createdAt: createdAt}
}

func (s *Subscription) Update(event, targetURL *string, enabled *bool) {
	if event != nil {
		s.event = *event
	}
	if targetURL != nil {
		s.targetURL = *targetURL
	}
	if enabled != nil {
		s.enabled = *enabled
	}
}

func (s *Subscription) ID() string         { return s.id }
func (s *Subscription) InstanceID() string { return s.instanceID }
func (s *Subscription) Type() string       { return s.subType }
func (s *Subscription) Event() string      { return s.event }
func (s *Subscription) TargetURL() string  { return s.targetURL }
func (s *Subscription) Enabled() bool      { return s.enabled }
func (s *Subscription) CreatedAt() time.Time { return s.createdAt }

// Matches reports whether the subscription is enabled for the given event.
// "*" subscribes to every event emitted for the instance.
func (s *Subscription) Matches(event string) bool {
	return s.enabled && (s.event == event || s.event == "*")
}

// HistoryStatus is the outcome classification of a delivery attempt (4.4).
type HistoryStatus string

const (
	HistoryPending HistoryStatus = "pending"
	HistorySuccess HistoryStatus = "success"
	HistoryFailed  HistoryStatus = "failed"
	HistoryTimeout HistoryStatus = "timeout"
)

// History is an immutable-after-completion record of one delivery attempt
// against one subscription.
type History struct {
	id              string
	instanceID      string
	webhookID       string
	event           string
	payload         map[string]interface{}
	status          HistoryStatus
	httpStatus      *int
	responseTimeMs  *int64
	response        *string
	errorMessage    *string
	retryCount      int
	triggeredAt     time.Time
	completedAt     *time.Time
}

func NewHistory(instanceID, webhookID, event string, payload map[string]interface{}) *History {
	return &History{
		id:          uuid.New().String(),
		instanceID:  instanceID,
		webhookID:   webhookID,
		event:       event,
		payload:     payload,
		status:      HistoryPending,
		triggeredAt: time.Now(),
	}
}

func RestoreHistory(id, instanceID, webhookID, event string, payload map[string]interface{}, status HistoryStatus, httpStatus *int, responseTimeMs *int64, response, errorMessage *string, retryCount int, triggeredAt time.Time, completedAt *time.Time) *History {
	return &History{
		id: id, instanceID: instanceID, webhookID: webhookID, event: event, payload: payload,
		status: status, httpStatus: httpStatus, responseTimeMs: responseTimeMs, response: response,
		errorMessage: errorMessage, retryCount: retryCount, triggeredAt: triggeredAt, completedAt: completedAt,
	}
}

// Complete finalises the record with an outcome; I5 requires completedAt >= triggeredAt.
func (h *History) Complete(status HistoryStatus, httpStatus *int, responseTimeMs int64, response, errorMessage *string) {
	now := time.Now()
	if now.Before(h.triggeredAt) {
		now = h.triggeredAt
	}
	h.status = status
	h.httpStatus = httpStatus
	h.responseTimeMs = &responseTimeMs
	h.response = response
	h.errorMessage = errorMessage
	h.completedAt = &now
}

func (h *History) ID() string                 { return h.id }
func (h *History) InstanceID() string         { return h.instanceID }
func (h *History) WebhookID() string          { return h.webhookID }
func (h *History) Event() string              { return h.event }
func (h *History) Payload() map[string]interface{} { return h.payload }
func (h *History) Status() HistoryStatus      { return h.status }
func (h *History) HTTPStatus() *int           { return h.httpStatus }
func (h *History) ResponseTimeMs() *int64     { return h.responseTimeMs }
func (h *History) Response() *string          { return h.response }
func (h *History) ErrorMessage() *string      { return h.errorMessage }
func (h *History) RetryCount() int            { return h.retryCount }
func (h *History) TriggeredAt() time.Time     { return h.triggeredAt }
func (h *History) CompletedAt() *time.Time    { return h.completedAt }
