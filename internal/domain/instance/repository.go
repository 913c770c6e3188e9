package instance

import "context"

// Repository is the Persistent Store adapter for Instance rows (4.5).
type Repository interface {
	Create(ctx context.Context, inst *Instance) error
	GetByID(ctx context.Context, id ID) (*Instance, error)
	GetByPhone(ctx context.Context, phone Phone) (*Instance, error)
	List(ctx context.Context, limit, offset int) ([]*Instance, int, error)
	Update(ctx context.Context, inst *Instance) error
	UpdateStatus(ctx context.Context, id ID, status Status) error
	Delete(ctx context.Context, id ID) error
	Exists(ctx context.Context, phone Phone) (bool, error)
	GetByStatus(ctx context.Context, status Status, limit, offset int) ([]*Instance, int, error)
	// DeleteOlderThan supports the retention sweep (scenario 6): removes
	// Instance rows whose updated_at is strictly older than cutoff.
	DeleteOlderThan(ctx context.Context, cutoff int64) (int, error)
}
