package repositories

import (
	"context"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
)

// DemandRepository provides access to demand records keyed by period
type DemandRepository interface {
	// Get returns the record for period; found is false when none exists.
	Get(ctx context.Context, period entities.Period) (record *entities.DemandRecord, found bool, err error)

	// Upsert replaces the record for the same period or appends a new one.
	// updated reports whether an existing record was replaced.
	Upsert(ctx context.Context, record entities.DemandRecord) (updated bool, err error)

	// Recent returns up to n records with period <= upTo, ascending by period.
	Recent(ctx context.Context, upTo entities.Period, n int) ([]entities.DemandRecord, error)

	All(ctx context.Context) ([]entities.DemandRecord, error)
}
