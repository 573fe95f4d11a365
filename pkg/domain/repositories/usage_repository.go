package repositories

import (
	"context"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
)

// UsageRepository provides the material usage table
type UsageRepository interface {
	Rates(ctx context.Context) (entities.UsageTable, error)
}
