// internal/core/ports/database.go
package ports

import "context"

// Database is the relational backend handle used by health checks and the binaries
type Database interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) map[string]interface{}
	Close()
}
