// internal/core/ports/transactor.go
package ports

import "context"

// Transactor runs fn as one logical unit of work. Repositories called with the
// ctx handed to fn take part in the same unit when the backend supports it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Atomic reports whether a failed fn rolls back every write made in it
	Atomic() bool
}
