package memory

import (
	"context"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/domain/repositories"
)

// StockRepository provides in-memory raw-material stock storage
type StockRepository struct {
	ledger ledger[entities.StockSnapshot]
}

// NewStockRepository creates a new in-memory stock ledger
func NewStockRepository() *StockRepository {
	return &StockRepository{
		ledger: ledger[entities.StockSnapshot]{
			name:   "stock",
			period: func(s entities.StockSnapshot) entities.Period { return s.Period },
		},
	}
}

// Verify interface compliance
var _ repositories.StockRepository = (*StockRepository)(nil)

// Latest returns the most recent stock snapshot
func (r *StockRepository) Latest(_ context.Context) (*entities.StockSnapshot, error) {
	return r.ledger.latest()
}

// Append adds a stock snapshot to the ledger
func (r *StockRepository) Append(_ context.Context, snapshot entities.StockSnapshot) error {
	return r.ledger.append(snapshot)
}

// All returns every stock snapshot in ledger order
func (r *StockRepository) All(_ context.Context) ([]entities.StockSnapshot, error) {
	return r.ledger.all(), nil
}

// FinishedGoodsRepository provides in-memory finished-goods storage
type FinishedGoodsRepository struct {
	ledger ledger[entities.FinishedGoodsSnapshot]
}

// NewFinishedGoodsRepository creates a new in-memory finished-goods ledger
func NewFinishedGoodsRepository() *FinishedGoodsRepository {
	return &FinishedGoodsRepository{
		ledger: ledger[entities.FinishedGoodsSnapshot]{
			name:   "finished goods",
			period: func(s entities.FinishedGoodsSnapshot) entities.Period { return s.Period },
		},
	}
}

// Verify interface compliance
var _ repositories.FinishedGoodsRepository = (*FinishedGoodsRepository)(nil)

// Latest returns the most recent finished-goods snapshot
func (r *FinishedGoodsRepository) Latest(_ context.Context) (*entities.FinishedGoodsSnapshot, error) {
	return r.ledger.latest()
}

// Append adds a finished-goods snapshot to the ledger
func (r *FinishedGoodsRepository) Append(_ context.Context, snapshot entities.FinishedGoodsSnapshot) error {
	return r.ledger.append(snapshot)
}

// All returns every finished-goods snapshot in ledger order
func (r *FinishedGoodsRepository) All(_ context.Context) ([]entities.FinishedGoodsSnapshot, error) {
	return r.ledger.all(), nil
}
