package memory

import (
	"context"
	"fmt"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/domain/repositories"
)

// UsageRepository holds the static material usage table
type UsageRepository struct {
	table entities.UsageTable
}

// NewUsageRepository validates rates and builds the usage table
func NewUsageRepository(rates []entities.UsageRate) (*UsageRepository, error) {
	table, err := entities.NewUsageTable(rates)
	if err != nil {
		return nil, fmt.Errorf("invalid usage rates: %w", err)
	}
	return &UsageRepository{table: table}, nil
}

// Verify interface compliance
var _ repositories.UsageRepository = (*UsageRepository)(nil)

// Rates returns the usage table
func (r *UsageRepository) Rates(_ context.Context) (entities.UsageTable, error) {
	return r.table, nil
}
