package message

import "context"

// Filter narrows a List query by instance and/or message metadata.
type Filter struct {
	InstanceID string
	Direction  *Direction
	Type       *Type
	Status     *Status
}

// Repository is the Persistent Store adapter for Message rows (4.5).
type Repository interface {
	Create(ctx context.Context, msg *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Message, int, error)
	// Conversation returns messages between the owning instance and a
	// contact, ordered ascending by creation time (4.5).
	Conversation(ctx context.Context, instanceID, contact string, limit, offset int) ([]*Message, int, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	DeleteByInstance(ctx context.Context, instanceID string) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff int64) (int, error)
}
