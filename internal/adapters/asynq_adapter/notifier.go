// internal/adapters/asynq_adapter/notifier.go
package asynq_a

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/jewelry-be/internal/core/domain"
	"github.com/ammerola/jewelry-be/internal/core/ports"
	"github.com/ammerola/jewelry-be/internal/workers"
)

// Enqueuer is the part of the asynq client used to hand tasks to the worker
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskNotifier forwards sale notifications to the worker as asynq tasks
type TaskNotifier struct {
	client Enqueuer
	logger *slog.Logger
}

// Statically assert that *TaskNotifier implements the Notifier interface.
var _ ports.Notifier = (*TaskNotifier)(nil)

// NewTaskNotifier creates a new task-backed notifier
func NewTaskNotifier(client Enqueuer, logger *slog.Logger) *TaskNotifier {
	return &TaskNotifier{
		client: client,
		logger: logger.With(slog.String("component", "notifier")),
	}
}

// Notify enqueues n for asynchronous delivery
func (n *TaskNotifier) Notify(ctx context.Context, notification domain.SaleNotification) error {
	task, err := workers.NewSaleNotifyTask(notification)
	if err != nil {
		return err
	}

	info, err := n.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue sale notification: %w", err)
	}

	n.logger.DebugContext(ctx, "sale notification queued",
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue),
		slog.String("level", string(notification.Level)))

	return nil
}

// LogNotifier writes sale notifications to the log. It is used when no
// worker queue is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// Statically assert that *LogNotifier implements the Notifier interface.
var _ ports.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a new log-backed notifier
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With(slog.String("component", "notifier"))}
}

// Notify logs the notification at a level matching its severity
func (n *LogNotifier) Notify(ctx context.Context, notification domain.SaleNotification) error {
	level := slog.LevelInfo
	switch notification.Level {
	case domain.NotifyWarning:
		level = slog.LevelWarn
	case domain.NotifyError:
		level = slog.LevelError
	}

	n.logger.Log(ctx, level, notification.Message,
		slog.String("sale_id", notification.SaleID),
		slog.String("amount", notification.Amount),
		slog.Any("failed_ids", notification.FailedIDs))
	return nil
}
