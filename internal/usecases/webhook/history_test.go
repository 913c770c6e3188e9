package webhook_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chatgateway/internal/domain/instance"
	"chatgateway/internal/domain/webhook"
	webhookUC "chatgateway/internal/usecases/webhook"
	"chatgateway/pkg/logger"
)

func TestHistoryUseCase_List(t *testing.T) {
	t.Run("resolves phone to instance id and clamps pagination", func(t *testing.T) {
		instances := &mockInstanceRepository{}
		history := &mockHistoryRepository{}
		uc := webhookUC.NewHistoryUseCase(instances, history, &logger.NoopLogger{})

		inst := newTestInstance(t, "5511999999999")
		phone, _ := instance.NewPhone("5511999999999")
		instances.On("GetByPhone", mock.Anything, phone).Return(inst, nil)

		expectedFilter := webhook.HistoryFilter{InstanceID: inst.ID().String()}
		records := []*webhook.History{webhook.NewHistory(inst.ID().String(), "sub-1", "message.received", nil)}
		history.On("List", mock.Anything, expectedFilter, 50, 0).Return(records, 1, nil)

		resp, err := uc.List(context.Background(), webhookUC.ListHistoryRequest{
			Phone: "5511999999999",
			Limit: 50,
		})

		require.NoError(t, err)
		assert.Equal(t, 1, resp.Total)
		assert.Equal(t, records, resp.History)
	})

	t.Run("clamps an over-large limit to 100 and a negative offset to 0", func(t *testing.T) {
		instances := &mockInstanceRepository{}
		history := &mockHistoryRepository{}
		uc := webhookUC.NewHistoryUseCase(instances, history, &logger.NoopLogger{})

		expectedFilter := webhook.HistoryFilter{}
		history.On("List", mock.Anything, expectedFilter, 100, 0).Return([]*webhook.History{}, 0, nil)

		resp, err := uc.List(context.Background(), webhookUC.ListHistoryRequest{
			Limit:  500,
			Offset: -5,
		})

		require.NoError(t, err)
		assert.Equal(t, 100, resp.Limit)
		assert.Equal(t, 0, resp.Offset)
	})

	t.Run("defaults an unset limit to 20", func(t *testing.T) {
		instances := &mockInstanceRepository{}
		history := &mockHistoryRepository{}
		uc := webhookUC.NewHistoryUseCase(instances, history, &logger.NoopLogger{})

		expectedFilter := webhook.HistoryFilter{}
		history.On("List", mock.Anything, expectedFilter, 20, 0).Return([]*webhook.History{}, 0, nil)

		resp, err := uc.List(context.Background(), webhookUC.ListHistoryRequest{})

		require.NoError(t, err)
		assert.Equal(t, 20, resp.Limit)
	})
}

func TestHistoryUseCase_Stats(t *testing.T) {
	instances := &mockInstanceRepository{}
	history := &mockHistoryRepository{}
	uc := webhookUC.NewHistoryUseCase(instances, history, &logger.NoopLogger{})

	expectedFilter := webhook.HistoryFilter{Event: "message.received"}
	want := &webhook.HistoryStats{
		ByEvent:           map[string]int{"message.received": 3},
		ByStatus:          map[webhook.HistoryStatus]int{webhook.HistorySuccess: 3},
		AverageResponseMs: 120.5,
		SuccessCount:      3,
	}
	history.On("Stats", mock.Anything, expectedFilter).Return(want, nil)

	resp, err := uc.Stats(context.Background(), webhookUC.StatsRequest{Event: "message.received"})

	require.NoError(t, err)
	assert.Equal(t, want, resp.Stats)
}

func TestHistoryUseCase_Purge(t *testing.T) {
	t.Run("purges and reports the deleted count", func(t *testing.T) {
		instances := &mockInstanceRepository{}
		history := &mockHistoryRepository{}
		uc := webhookUC.NewHistoryUseCase(instances, history, &logger.NoopLogger{})

		history.On("DeleteOlderThan", mock.Anything, int64(1000)).Return(7, nil)

		count, err := uc.Purge(context.Background(), webhookUC.PurgeHistoryRequest{Cutoff: 1000})

		require.NoError(t, err)
		assert.Equal(t, 7, count)
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		instances := &mockInstanceRepository{}
		history := &mockHistoryRepository{}
		uc := webhookUC.NewHistoryUseCase(instances, history, &logger.NoopLogger{})

		boom := assert.AnError
		history.On("DeleteOlderThan", mock.Anything, int64(1000)).Return(0, boom)

		_, err := uc.Purge(context.Background(), webhookUC.PurgeHistoryRequest{Cutoff: 1000})
		assert.ErrorIs(t, err, boom)
	})
}
