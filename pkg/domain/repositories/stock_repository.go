package repositories

import (
	"context"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
)

// StockRepository is an append-only ledger of raw-material stock snapshots
type StockRepository interface {
	// Latest returns the tail snapshot or ErrNoSnapshot.
	Latest(ctx context.Context) (*entities.StockSnapshot, error)

	// Append adds a snapshot; a snapshot for the tail's period supersedes it.
	Append(ctx context.Context, snapshot entities.StockSnapshot) error

	All(ctx context.Context) ([]entities.StockSnapshot, error)
}

// FinishedGoodsRepository is an append-only ledger of finished-unit snapshots
type FinishedGoodsRepository interface {
	Latest(ctx context.Context) (*entities.FinishedGoodsSnapshot, error)
	Append(ctx context.Context, snapshot entities.FinishedGoodsSnapshot) error
	All(ctx context.Context) ([]entities.FinishedGoodsSnapshot, error)
}
