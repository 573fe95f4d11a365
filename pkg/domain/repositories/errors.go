package repositories

import (
	"errors"
	"fmt"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
)

var (
	// ErrStoreUnavailable matches every failure to reach or read the backing store
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNoSnapshot is returned by Latest when a ledger holds no snapshots yet
	ErrNoSnapshot = errors.New("no snapshot recorded")
)

// StoreError wraps an I/O, auth or decode failure at the store boundary
type StoreError struct {
	Op  string
	Err error
}

// Unavailable wraps err as a StoreError for operation op
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is makes every StoreError match ErrStoreUnavailable
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// OutOfOrderError is returned when a snapshot would be appended behind the ledger tail
type OutOfOrderError struct {
	Ledger string
	Tail   entities.Period
	Got    entities.Period
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("%s ledger: cannot append period %d behind tail period %d", e.Ledger, e.Got, e.Tail)
}

// CheckAppendOrder enforces non-decreasing periods on an append-only ledger.
// replace is true when the snapshot supersedes the tail (same period).
func CheckAppendOrder(ledger string, tail *entities.Period, next entities.Period) (replace bool, err error) {
	if tail == nil {
		return false, nil
	}
	if next < *tail {
		return false, &OutOfOrderError{Ledger: ledger, Tail: *tail, Got: next}
	}
	return next == *tail, nil
}
