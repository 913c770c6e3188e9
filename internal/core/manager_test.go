package core_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatgateway/internal/core"
	"chatgateway/internal/domain/instance"
	"chatgateway/pkg/logger"
)

// fakeInstanceRepository is a minimal in-memory instance.Repository for
// exercising the Instance Manager's registry/persistence bookkeeping
// without a real database.
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

func TestManager_Create(t *testing.T) {
	t.Run("persists a new instance and binds its runtime", func(t *testing.T) {
		mgr, repo := newTestManager()
		phone, err := instance.NewPhone("5511999999999")
		require.NoError(t, err)
		name, err := instance.NewName("My Instance")
		require.NoError(t, err)

		inst, err := mgr.Create(context.Background(), phone, name, "alias")
		require.NoError(t, err)
		assert.Equal(t, "alias", inst.Alias())

		stored, err := repo.GetByPhone(context.Background(), phone)
		require.NoError(t, err)
		assert.Equal(t, inst.ID(), stored.ID())
	})

	t.Run("rejects a duplicate phone", func(t *testing.T) {
		mgr, _ := newTestManager()
		phone, _ := instance.NewPhone("5511999999999")
		name, _ := instance.NewName("My Instance")

		_, err := mgr.Create(context.Background(), phone, name, "")
		require.NoError(t, err)

		_, err = mgr.Create(context.Background(), phone, name, "")
		assert.ErrorIs(t, err, instance.ErrInstanceAlreadyExists)
	})
}

func TestManager_List(t *testing.T) {
	mgr, _ := newTestManager()
	for i, raw := range []string{"5511900000001", "5511900000002", "5511900000003"} {
		phone, _ := instance.NewPhone(raw)
		name, _ := instance.NewName("Instance")
		_, err := mgr.Create(context.Background(), phone, name, "")
		require.NoError(t, err, "create #%d", i)
	}

	insts, total, err := mgr.List(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, insts, 2)
}

func TestManager_Get(t *testing.T) {
	t.Run("serves the bound runtime's snapshot over a repository read", func(t *testing.T) {
		mgr, _ := newTestManager()
		phone, _ := instance.NewPhone("5511999999999")
		name, _ := instance.NewName("My Instance")
		created, err := mgr.Create(context.Background(), phone, name, "")
		require.NoError(t, err)

		got, err := mgr.Get(context.Background(), phone)
		require.NoError(t, err)
		assert.Equal(t, created.ID(), got.ID())
	})

	t.Run("returns not-found for an unknown phone", func(t *testing.T) {
		mgr, _ := newTestManager()
		phone, _ := instance.NewPhone("5511000000000")

		_, err := mgr.Get(context.Background(), phone)
		assert.ErrorIs(t, err, instance.ErrInstanceNotFound)
	})
}

func TestManager_Update(t *testing.T) {
	mgr, repo := newTestManager()
	phone, _ := instance.NewPhone("5511999999999")
	name, _ := instance.NewName("Original Name")
	_, err := mgr.Create(context.Background(), phone, name, "old-alias")
	require.NoError(t, err)

	newName, err := instance.NewName("Updated Name")
	require.NoError(t, err)
	newAlias := "new-alias"

	updated, err := mgr.Update(context.Background(), phone, &newName, &newAlias, nil)
	require.NoError(t, err)
	assert.Equal(t, "Updated Name", updated.Name().String())
	assert.Equal(t, "new-alias", updated.Alias())

	persisted, err := repo.GetByPhone(context.Background(), phone)
	require.NoError(t, err)
	assert.Equal(t, "Updated Name", persisted.Name().String())
}

func TestManager_Delete(t *testing.T) {
	t.Run("hard-deletes the persisted row by default", func(t *testing.T) {
		mgr, repo := newTestManager()
		phone, _ := instance.NewPhone("5511999999999")
		name, _ := instance.NewName("My Instance")
		_, err := mgr.Create(context.Background(), phone, name, "")
		require.NoError(t, err)

		err = mgr.Delete(context.Background(), phone, false)
		require.NoError(t, err)

		_, err = repo.GetByPhone(context.Background(), phone)
		assert.ErrorIs(t, err, instance.ErrInstanceNotFound)
	})

	t.Run("soft-deletes to logged-out when keepRecord is set", func(t *testing.T) {
		mgr, repo := newTestManager()
		phone, _ := instance.NewPhone("5511999999999")
		name, _ := instance.NewName("My Instance")
		_, err := mgr.Create(context.Background(), phone, name, "")
		require.NoError(t, err)

		err = mgr.Delete(context.Background(), phone, true)
		require.NoError(t, err)

		persisted, err := repo.GetByPhone(context.Background(), phone)
		require.NoError(t, err)
		assert.Equal(t, instance.StatusLoggedOut, persisted.Status())
	})
}

func TestManager_Status(t *testing.T) {
	mgr, _ := newTestManager()
	phone, _ := instance.NewPhone("5511999999999")
	name, _ := instance.NewName("My Instance")
	_, err := mgr.Create(context.Background(), phone, name, "")
	require.NoError(t, err)

	statuses := mgr.Status()
	require.Len(t, statuses, 1)
	assert.Equal(t, "5511999999999", statuses[0].Phone)
}
