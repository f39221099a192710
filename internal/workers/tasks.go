// internal/workers/tasks.go
package workers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/jewelry-be/internal/core/domain"
)

// Task types handled by the worker
const (
	TypeSaleNotify       = "sale:notify"
	TypeSweepStagedSales = "sale:sweep_staged"
)

// Queues used by the sale tasks
const (
	QueueDefault = "default"
	QueueLow     = "low"
)

// NewSaleNotifyTask wraps a sale notification for delivery by the worker
func NewSaleNotifyTask(n domain.SaleNotification) (*asynq.Task, error) {
	b, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sale notification: %w", err)
	}
	return asynq.NewTask(TypeSaleNotify, b,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(5),
		asynq.Retention(24*time.Hour)), nil
}

// NewSweepStagedSalesTask builds the periodic staged-sale cleanup task
func NewSweepStagedSalesTask() *asynq.Task {
	return asynq.NewTask(TypeSweepStagedSales, nil,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(1),
		asynq.Unique(time.Minute))
}
