package webhook

import "context"

// SubscriptionRepository is the Persistent Store adapter for Webhook
// subscriptions (4.5).
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *Subscription) error
	GetByID(ctx context.Context, id string) (*Subscription, error)
	ListByInstance(ctx context.Context, instanceID string) ([]*Subscription, error)
	// ListEnabledForEvent resolves matching subscriptions for a dispatch,
	// i.e. event-name match or wildcard, enabled only.
	ListEnabledForEvent(ctx context.Context, instanceID, event string) ([]*Subscription, error)
	Update(ctx context.Context, sub *Subscription) error
	Delete(ctx context.Context, id string) error
	DeleteByInstance(ctx context.Context, instanceID string) (int, error)
}

// HistoryFilter narrows a history query (query webhook history per Instance
// and globally — by status, event, date range, id, §6).
type HistoryFilter struct {
	InstanceID string
	WebhookID  string
	Status     *HistoryStatus
	Event      string
	From       int64
	To         int64
}

// HistoryStats aggregates the group-by/average queries required by 4.5.
type HistoryStats struct {
	ByEvent            map[string]int
	ByStatus           map[HistoryStatus]int
	AverageResponseMs  float64
	SuccessCount       int
	FailureCount       int
}

// HistoryRepository is the Persistent Store adapter for Webhook history
// rows (4.5).
type HistoryRepository interface {
	Create(ctx context.Context, h *History) error
	Update(ctx context.Context, h *History) error
	GetByID(ctx context.Context, id string) (*History, error)
	List(ctx context.Context, filter HistoryFilter, limit, offset int) ([]*History, int, error)
	Stats(ctx context.Context, filter HistoryFilter) (*HistoryStats, error)
	DeleteByInstance(ctx context.Context, instanceID string) (int, error)
	// DeleteOlderThan supports retention cleanup (scenario 6).
	DeleteOlderThan(ctx context.Context, cutoff int64) (int, error)
}
