// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Commit error kinds. Compare with errors.Is.
var (
	ErrRepositoryUnavailable      = errors.New("repository unavailable")
	ErrInvalidDraft               = errors.New("invalid sale draft")
	ErrInsufficientStock          = errors.New("insufficient stock")
	ErrNoValidLines               = errors.New("no valid lines")
	ErrHeaderWriteFailed          = errors.New("sale header write failed")
	ErrLineWriteFailed            = errors.New("sale line write failed")
	ErrFinalizeFailed             = errors.New("sale finalize failed")
	ErrStockReconciliationPartial = errors.New("stock reconciliation partial")
)

// ErrNotFound is returned by lookups for ids that do not exist
var ErrNotFound = errors.New("not found")

// ErrVersionConflict is returned when a conditional stock write lost a race
var ErrVersionConflict = errors.New("stock version conflict")

// ErrIdempotencyConflict is returned when a sale header reuses an idempotency key
var ErrIdempotencyConflict = errors.New("idempotency key already used")

// LineRejection explains why an entered line was left out of the sale
type LineRejection struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// CommitError is the failure (or warning) produced by a sale commit.
// Kind is one of the Err* kinds above; the remaining fields carry the
// details relevant to that kind.
type CommitError struct {
	Kind error

	// InsufficientStock
	Item      string
	Requested int
	Available int

	// LineWriteFailed, FinalizeFailed. HeaderID is the staged sale left
	// behind; it is empty when the backend rolled every write back.
	HeaderID   string
	RolledBack bool

	// StockReconciliationPartial
	FailedIDs []string

	// NoValidLines
	Rejections []LineRejection

	Err error
}

func (e *CommitError) Error() string {
	var msg string
	switch e.Kind {
	case ErrInsufficientStock:
		msg = fmt.Sprintf("insufficient stock for %s, requested %d, available %d", e.Item, e.Requested, e.Available)
	case ErrLineWriteFailed, ErrFinalizeFailed:
		switch {
		case e.RolledBack:
			msg = e.Kind.Error() + ", nothing was saved"
		case errors.Is(e.Kind, ErrLineWriteFailed):
			msg = fmt.Sprintf("sale line write failed, orphaned header %s", e.HeaderID)
		default:
			msg = fmt.Sprintf("sale finalize failed, sale %s left staged until swept", e.HeaderID)
		}
	case ErrStockReconciliationPartial:
		msg = fmt.Sprintf("stock not updated for items: %s", strings.Join(e.FailedIDs, ", "))
	case ErrNoValidLines:
		msg = fmt.Sprintf("no valid lines (%d rejected)", len(e.Rejections))
	default:
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As
func (e *CommitError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Retryable reports whether the operator can safely resubmit the same draft
func (e *CommitError) Retryable() bool {
	switch e.Kind {
	case ErrRepositoryUnavailable, ErrHeaderWriteFailed, ErrInsufficientStock, ErrNoValidLines, ErrInvalidDraft:
		return true
	case ErrLineWriteFailed, ErrFinalizeFailed:
		return e.RolledBack
	}
	return false
}

// NewInsufficientStock builds the validation-time rejection for one item
func NewInsufficientStock(item string, requested, available int) *CommitError {
	return &CommitError{Kind: ErrInsufficientStock, Item: item, Requested: requested, Available: available}
}

// PartialFailureError reports the ids whose stock write did not land
type PartialFailureError struct {
	FailedIDs []string
	Err       error
}

func (e *PartialFailureError) Error() string {
	msg := fmt.Sprintf("failed to apply stock deltas for %d item(s): %s", len(e.FailedIDs), strings.Join(e.FailedIDs, ", "))
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

// Unavailable wraps err so that errors.Is(err, ErrRepositoryUnavailable) holds
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrRepositoryUnavailable, err)
}
