package logentry

import "context"

// Repository is the Persistent Store adapter for Instance log rows (4.5).
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	ListByInstance(ctx context.Context, instanceID string, limit, offset int) ([]*Entry, int, error)
	DeleteByInstance(ctx context.Context, instanceID string) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff int64) (int, error)
}
