// internal/adapters/localstore/store.go

// Package localstore is the local key-value backend. Each collection is one
// key under a fixed namespace holding a serialized JSON array, so the whole
// collection is read and rewritten on every change. Writes are guarded with
// WATCH/MULTI so concurrent writers never lose each other's updates.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/jewelry-be/internal/core/domain"
	"github.com/ammerola/jewelry-be/internal/core/ports"
)

// DefaultNamespace prefixes every key written by the store
const DefaultNamespace = "jewelry"

// DefaultRetries bounds optimistic retries of a watched write
const DefaultRetries = 3

// Collection names
const (
	collectionInventory = "inventory"
	collectionSales     = "sales"
	collectionSaleItems = "sales_items"
	lockSweep           = "locks:sweep"
)

// Store owns the redis client and namespace shared by the repositories
type Store struct {
	client    redis.UniversalClient
	locker    *redislock.Client
	namespace string
	retries   int
	logger    *slog.Logger
}

// Statically assert that *Store implements the Transactor interface.
var _ ports.Transactor = (*Store)(nil)

// NewStore creates a local store over client
func NewStore(client redis.UniversalClient, namespace string, retries int, logger *slog.Logger) *Store {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if retries < 0 {
		retries = DefaultRetries
	}

	return &Store{
		client:    client,
		locker:    redislock.New(client),
		namespace: namespace,
		retries:   retries,
		logger:    logger.With(slog.String("component", "localstore"), slog.String("namespace", namespace)),
	}
}

// Key returns the namespaced key of a collection
func (s *Store) Key(collection string) string {
	return s.namespace + ":" + collection
}

// commitJournal links the writes made inside one WithinTransaction call to
// the sale header staged there, so stock removed for that sale is recorded on
// it in the same watched write.
type commitJournal struct {
	saleID string
}

type journalKey struct{}

func journalFrom(ctx context.Context) *commitJournal {
	j, _ := ctx.Value(journalKey{}).(*commitJournal)
	return j
}

// stagedSaleID returns the sale staged by the enclosing WithinTransaction
func stagedSaleID(ctx context.Context) string {
	if j := journalFrom(ctx); j != nil {
		return j.saleID
	}
	return ""
}

// WithinTransaction runs fn with a commit journal on the context. The store
// has no multi-key rollback: sales are written staged, become visible once
// finalized, and a swept staged sale returns the stock recorded on it.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if journalFrom(ctx) != nil {
		return fn(ctx)
	}
	return fn(context.WithValue(ctx, journalKey{}, &commitJournal{}))
}

// Atomic is false: writes that landed before a failure stay in place
func (s *Store) Atomic() bool {
	return false
}

// Ping checks the underlying connection
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return classify("ping", err)
	}
	return nil
}

// Inventory returns the inventory repository backed by this store
func (s *Store) Inventory() ports.InventoryRepository {
	return &inventoryRepository{store: s, logger: s.logger.With(slog.String("repository", "inventory"))}
}

// Sales returns the sale repository backed by this store
func (s *Store) Sales() ports.SaleRepository {
	return &saleRepository{store: s, logger: s.logger.With(slog.String("repository", "sales"))}
}

// errConflict aborts a watched write whose precondition no longer holds
var errConflict = errors.New("watched value changed")

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// load reads and decodes a collection. A missing key is an empty collection.
func load[T any](ctx context.Context, cmd getter, key string) ([]T, error) {
	data, err := cmd.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("read "+key, err)
	}

	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return out, nil
}

// update rewrites a collection under WATCH, retrying when another writer
// changed the key between read and write. fn returning errConflict also
// triggers a retry.
func update[T any](ctx context.Context, s *Store, key string, fn func([]T) ([]T, error)) error {
	return watch(ctx, s, func(tx *redis.Tx) error {
		current, err := load[T](ctx, tx, key)
		if err != nil {
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return set(ctx, pipe, key, next)
		})
		return err
	}, key)
}

// watch runs txf under WATCH on keys until it lands or the retries run out
func watch(ctx context.Context, s *Store, txf func(tx *redis.Tx) error, keys ...string) error {
	for attempt := 0; attempt <= s.retries; attempt++ {
		err := s.client.Watch(ctx, txf, keys...)
		if err == nil {
			return nil
		}
		if !errors.Is(err, redis.TxFailedErr) && !errors.Is(err, errConflict) {
			return classify(fmt.Sprintf("write %v", keys), err)
		}
		s.logger.DebugContext(ctx, "watched write conflict, retrying",
			slog.Any("keys", keys),
			slog.Int("attempt", attempt+1))
	}

	return domain.ErrVersionConflict
}

// set queues the encoded collection on pipe
func set[T any](ctx context.Context, pipe redis.Pipeliner, key string, v []T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	pipe.Set(ctx, key, data, 0)
	return nil
}

// classify marks connectivity failures as domain.ErrRepositoryUnavailable
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	switch {
	case errors.Is(err, domain.ErrRepositoryUnavailable),
		errors.Is(err, domain.ErrVersionConflict),
		errors.Is(err, domain.ErrIdempotencyConflict),
		errors.Is(err, domain.ErrNotFound):
		return err
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, redis.ErrClosed),
		errors.As(err, &netErr):
		return domain.Unavailable(op, err)
	}

	return fmt.Errorf("failed to %s: %w", op, err)
}
