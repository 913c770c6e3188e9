package instance_test

import (
	"context"
	"sync"

	"chatgateway/internal/core"
	"chatgateway/internal/domain/instance"
	"chatgateway/pkg/logger"
)

// fakeInstanceRepository is a minimal in-memory instance.Repository used to
// exercise the instance usecases against a real *core.Manager without a
// database.
type fakeInstanceRepository struct {
	mu   sync.Mutex
	byID map[string]*instance.Instance
}

func newFakeInstanceRepository() *fakeInstanceRepository {
	return &fakeInstanceRepository{byID: make(map[string]*instance.Instance)}
}

func (f *fakeInstanceRepository) Create(ctx context.Context, inst *instance.Instance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[inst.ID().String()] = inst
	return nil
}

func (f *fakeInstanceRepository) GetByID(ctx context.Context, id instance.ID) (*instance.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inst, ok := f.byID[id.String()]
	if !ok {
		return nil, instance.ErrInstanceNotFound
	}
	return inst, nil
}

func (f *fakeInstanceRepository) GetByPhone(ctx context.Context, phone instance.Phone) (*instance.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inst := range f.byID {
		if inst.Phone().String() == phone.String() {
			return inst, nil
		}
	}
	return nil, instance.ErrInstanceNotFound
}

func (f *fakeInstanceRepository) List(ctx context.Context, limit, offset int) ([]*instance.Instance, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]*instance.Instance, 0, len(f.byID))
	for _, inst := range f.byID {
		all = append(all, inst)
	}
	total := len(all)
	if offset >= total {
		return []*instance.Instance{}, total, nil
	}
	end := offset + limit
	if end > total || limit <= 0 {
		end = total
	}
	return all[offset:end], total, nil
}

func (f *fakeInstanceRepository) Update(ctx context.Context, inst *instance.Instance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[inst.ID().String()]; !ok {
		return instance.ErrInstanceNotFound
	}
	f.byID[inst.ID().String()] = inst
	return nil
}

func (f *fakeInstanceRepository) UpdateStatus(ctx context.Context, id instance.ID, status instance.Status) error {
	return instance.ErrInstanceNotFound
}

func (f *fakeInstanceRepository) Delete(ctx context.Context, id instance.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id.String()]; !ok {
		return instance.ErrInstanceNotFound
	}
	delete(f.byID, id.String())
	return nil
}

func (f *fakeInstanceRepository) Exists(ctx context.Context, phone instance.Phone) (bool, error) {
	_, err := f.GetByPhone(ctx, phone)
	return err == nil, nil
}

func (f *fakeInstanceRepository) GetByStatus(ctx context.Context, status instance.Status, limit, offset int) ([]*instance.Instance, int, error) {
	return nil, 0, nil
}

func (f *fakeInstanceRepository) DeleteOlderThan(ctx context.Context, cutoff int64) (int, error) {
	return 0, nil
}

func newTestManager() (*core.Manager, *fakeInstanceRepository) {
	repo := newFakeInstanceRepository()
	mgr := core.NewManager(core.Dependencies{
		Instances: repo,
		Policy:    core.DefaultReconnectPolicy(),
		Log:       &logger.NoopLogger{},
	})
	return mgr, repo
}
