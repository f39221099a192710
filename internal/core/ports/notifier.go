// internal/core/ports/notifier.go
package ports

import (
	"context"

	"github.com/ammerola/jewelry-be/internal/core/domain"
)

// Notifier delivers user feedback about sale outcomes
type Notifier interface {
	Notify(ctx context.Context, n domain.SaleNotification) error
}
