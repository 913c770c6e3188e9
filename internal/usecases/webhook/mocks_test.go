package webhook_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chatgateway/internal/domain/instance"
	"chatgateway/internal/domain/webhook"
)

// mockInstanceRepository is a mock implementation of instance.Repository.
type mockInstanceRepository struct {
	mock.Mock
}

func (m *mockInstanceRepository) Create(ctx context.Context, inst *instance.Instance) error {
	args := m.Called(ctx, inst)
	return args.Error(0)
}

func (m *mockInstanceRepository) GetByID(ctx context.Context, id instance.ID) (*instance.Instance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*instance.Instance), args.Error(1)
}

func (m *mockInstanceRepository) GetByPhone(ctx context.Context, phone instance.Phone) (*instance.Instance, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*instance.Instance), args.Error(1)
}

func (m *mockInstanceRepository) List(ctx context.Context, limit, offset int) ([]*instance.Instance, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*instance.Instance), args.Int(1), args.Error(2)
}

func (m *mockInstanceRepository) Update(ctx context.Context, inst *instance.Instance) error {
	args := m.Called(ctx, inst)
	return args.Error(0)
}

func (m *mockInstanceRepository) UpdateStatus(ctx context.Context, id instance.ID, status instance.Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockInstanceRepository) Delete(ctx context.Context, id instance.ID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockInstanceRepository) Exists(ctx context.Context, phone instance.Phone) (bool, error) {
	args := m.Called(ctx, phone)
	return args.Bool(0), args.Error(1)
}

func (m *mockInstanceRepository) GetByStatus(ctx context.Context, status instance.Status, limit, offset int) ([]*instance.Instance, int, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*instance.Instance), args.Int(1), args.Error(2)
}

func (m *mockInstanceRepository) DeleteOlderThan(ctx context.Context, cutoff int64) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}

// mockSubscriptionRepository is a mock implementation of webhook.SubscriptionRepository.
type mockSubscriptionRepository struct {
	mock.Mock
}

func (m *mockSubscriptionRepository) Create(ctx context.Context, sub *webhook.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *mockSubscriptionRepository) GetByID(ctx context.Context, id string) (*webhook.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*webhook.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepository) ListByInstance(ctx context.Context, instanceID string) ([]*webhook.Subscription, error) {
	args := m.Called(ctx, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*webhook.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepository) ListEnabledForEvent(ctx context.Context, instanceID, event string) ([]*webhook.Subscription, error) {
	args := m.Called(ctx, instanceID, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*webhook.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepository) Update(ctx context.Context, sub *webhook.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *mockSubscriptionRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockSubscriptionRepository) DeleteByInstance(ctx context.Context, instanceID string) (int, error) {
	args := m.Called(ctx, instanceID)
	return args.Int(0), args.Error(1)
}

// mockHistoryRepository is a mock implementation of webhook.HistoryRepository.
type mockHistoryRepository struct {
	mock.Mock
}

func (m *mockHistoryRepository) Create(ctx context.Context, h *webhook.History) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}

func (m *mockHistoryRepository) Update(ctx context.Context, h *webhook.History) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}

func (m *mockHistoryRepository) GetByID(ctx context.Context, id string) (*webhook.History, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*webhook.History), args.Error(1)
}

func (m *mockHistoryRepository) List(ctx context.Context, filter webhook.HistoryFilter, limit, offset int) ([]*webhook.History, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*webhook.History), args.Int(1), args.Error(2)
}

func (m *mockHistoryRepository) Stats(ctx context.Context, filter webhook.HistoryFilter) (*webhook.HistoryStats, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*webhook.HistoryStats), args.Error(1)
}

func (m *mockHistoryRepository) DeleteByInstance(ctx context.Context, instanceID string) (int, error) {
	args := m.Called(ctx, instanceID)
	return args.Int(0), args.Error(1)
}

func (m *mockHistoryRepository) DeleteOlderThan(ctx context.Context, cutoff int64) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}
