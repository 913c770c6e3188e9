package instance_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatgateway/internal/domain/instance"
	instanceUC "chatgateway/internal/usecases/instance"
	"chatgateway/pkg/logger"
	"chatgateway/pkg/validator"
)

func TestUpdateUseCase_Execute(t *testing.T) {
	mgr, _ := newTestManager()
	phone, _ := instance.NewPhone("5511999999999")
	name, _ := instance.NewName("Original Name")
	_, err := mgr.Create(context.Background(), phone, name, "old-alias")
	require.NoError(t, err)

	uc := instanceUC.NewUpdateUseCase(mgr, &logger.NoopLogger{}, validator.New())

	t.Run("patches name and alias", func(t *testing.T) {
		newName := "Updated Name"
		newAlias := "new-alias"

		resp, err := uc.Execute(context.Background(), instanceUC.UpdateRequest{
			Phone: "5511999999999",
			Name:  &newName,
			Alias: &newAlias,
		})

		require.NoError(t, err)
		assert.Equal(t, "Updated Name", resp.Instance.Name().String())
		assert.Equal(t, "new-alias", resp.Instance.Alias())
	})

	t.Run("rejects a request missing the phone", func(t *testing.T) {
		_, err := uc.Execute(context.Background(), instanceUC.UpdateRequest{})
		assert.Error(t, err)
	})

	t.Run("returns not-found for an unknown phone", func(t *testing.T) {
		newAlias := "whatever"
		_, err := uc.Execute(context.Background(), instanceUC.UpdateRequest{
			Phone: "5511000000000",
			Alias: &newAlias,
		})
		assert.ErrorIs(t, err, instance.ErrInstanceNotFound)
	})
}

func TestDeleteUseCase_Execute(t *testing.T) {
	t.Run("hard-deletes by default", func(t *testing.T) {
		mgr, repo := newTestManager()
		phone, _ := instance.NewPhone("5511999999999")
		name, _ := instance.NewName("My Instance")
		_, err := mgr.Create(context.Background(), phone, name, "")
		require.NoError(t, err)

		uc := instanceUC.NewDeleteUseCase(mgr, &logger.NoopLogger{})
		err = uc.Execute(context.Background(), instanceUC.DeleteRequest{Phone: "5511999999999"})
		require.NoError(t, err)

		_, err = repo.GetByPhone(context.Background(), phone)
		assert.ErrorIs(t, err, instance.ErrInstanceNotFound)
	})

	t.Run("soft-deletes when keep_record is set", func(t *testing.T) {
		mgr, repo := newTestManager()
		phone, _ := instance.NewPhone("5511999999999")
		name, _ := instance.NewName("My Instance")
		_, err := mgr.Create(context.Background(), phone, name, "")
		require.NoError(t, err)

		uc := instanceUC.NewDeleteUseCase(mgr, &logger.NoopLogger{})
		err = uc.Execute(context.Background(), instanceUC.DeleteRequest{Phone: "5511999999999", KeepRecord: true})
		require.NoError(t, err)

		persisted, err := repo.GetByPhone(context.Background(), phone)
		require.NoError(t, err)
		assert.Equal(t, instance.StatusLoggedOut, persisted.Status())
	})

	t.Run("rejects a malformed phone", func(t *testing.T) {
		mgr, _ := newTestManager()
		uc := instanceUC.NewDeleteUseCase(mgr, &logger.NoopLogger{})
		err := uc.Execute(context.Background(), instanceUC.DeleteRequest{Phone: "not-a-phone"})
		assert.Error(t, err)
	})
}
