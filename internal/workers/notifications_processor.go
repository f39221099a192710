// internal/workers/notifications_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/jewelry-be/internal/core/domain"
)

// DefaultNotificationChannel is the pub/sub channel operator consoles subscribe to
const DefaultNotificationChannel = "jewelry:sale-notifications"

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// NotificationProcessor delivers sale outcomes to the operator consoles
type NotificationProcessor struct {
	publisher publisher
	channel   string
	logger    *slog.Logger
}

// NewNotificationProcessor creates a new notification processor
func NewNotificationProcessor(publisher publisher, channel string, logger *slog.Logger) *NotificationProcessor {
	if channel == "" {
		channel = DefaultNotificationChannel
	}
	return &NotificationProcessor{
		publisher: publisher,
		channel:   channel,
		logger:    logger.With(slog.String("processor", "notification")),
	}
}

// DeliverSaleNotification publishes one sale outcome
func (p *NotificationProcessor) DeliverSaleNotification(ctx context.Context, t *asynq.Task) error {
	var n domain.SaleNotification
	if err := json.Unmarshal(t.Payload(), &n); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	switch n.Level {
	case domain.NotifySuccess, domain.NotifyWarning, domain.NotifyError:
	default:
		return fmt.Errorf("unknown notification level %q: %w", n.Level, asynq.SkipRetry)
	}

	receivers, err := p.publisher.Publish(ctx, p.channel, t.Payload()).Result()
	if err != nil {
		return fmt.Errorf("failed to publish sale notification: %w", err)
	}

	p.logger.InfoContext(ctx, "sale notification delivered",
		slog.String("level", string(n.Level)),
		slog.String("sale_id", n.SaleID),
		slog.Int64("receivers", receivers))

	return nil
}
