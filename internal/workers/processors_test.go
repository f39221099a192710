package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/jewelry-be/internal/core/domain"
	"github.com/ammerola/jewelry-be/internal/workers"
	"github.com/ammerola/jewelry-be/test/helpers"
	"github.com/ammerola/jewelry-be/test/mocks"
)

func TestNotificationProcessor_DeliverSaleNotification(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sub := client.Subscribe(ctx, workers.DefaultNotificationChannel)
	t.Cleanup(func() { sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	processor := workers.NewNotificationProcessor(client, "", helpers.TestLogger())

	n := domain.SaleNotification{
		Level:      domain.NotifyWarning,
		SaleID:     "sale-1",
		Message:    "sale recorded with warnings",
		FailedIDs:  []string{"item-9"},
		OccurredAt: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	task, err := workers.NewSaleNotifyTask(n)
	require.NoError(t, err)
	assert.Equal(t, workers.TypeSaleNotify, task.Type())

	require.NoError(t, processor.DeliverSaleNotification(ctx, task))

	recvCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(recvCtx)
	require.NoError(t, err)

	var got domain.SaleNotification
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, n, got)
}

func TestNotificationProcessor_RejectsBadPayloads(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	processor := workers.NewNotificationProcessor(client, "test:notifications", helpers.TestLogger())

	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "malformed_json", payload: []byte("{not json")},
		{name: "unknown_level", payload: []byte(`{"level":"shout","message":"hi"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := processor.DeliverSaleNotification(context.Background(), asynq.NewTask(workers.TypeSaleNotify, tt.payload))
			require.Error(t, err)
			assert.ErrorIs(t, err, asynq.SkipRetry)
		})
	}
}

func TestNotificationProcessor_PublishFailureIsRetried(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	processor := workers.NewNotificationProcessor(client, "", helpers.TestLogger())
	task, err := workers.NewSaleNotifyTask(domain.SaleNotification{Level: domain.NotifySuccess})
	require.NoError(t, err)

	err = processor.DeliverSaleNotification(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestCleanupProcessor_SweepStagedSales(t *testing.T) {
	tests := []struct {
		name          string
		sweepErr      error
		expectedError bool
	}{
		{name: "sweeps_with_cutoff"},
		{name: "repository_error", sweepErr: errors.New("connection reset"), expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			sales := mocks.NewMockSaleRepository(ctrl)

			var cutoff time.Time
			sales.EXPECT().
				SweepStaged(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, olderThan time.Time) (int, error) {
					cutoff = olderThan
					return 2, tt.sweepErr
				})

			processor := workers.NewCleanupProcessor(sales, 15*time.Minute, helpers.TestLogger())
			before := time.Now().UTC()
			err := processor.SweepStagedSales(context.Background(), workers.NewSweepStagedSalesTask())

			if tt.expectedError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "failed to sweep staged sales")
				return
			}
			require.NoError(t, err)
			assert.WithinDuration(t, before.Add(-15*time.Minute), cutoff, 5*time.Second)
		})
	}
}
