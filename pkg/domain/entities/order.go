package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaterialOrder is a raw-material replenishment placed for a pending period
type MaterialOrder struct {
	ID         string    `json:"id"`
	Period     Period    `json:"period"`
	Quantities Materials `json:"quantities"`
	PlacedAt   time.Time `json:"placed_at"`
}

// NewMaterialOrder creates a validated MaterialOrder with a fresh ID
func NewMaterialOrder(period Period, quantities Materials, placedAt time.Time) (*MaterialOrder, error) {
	if period < 0 {
		return nil, fmt.Errorf("period cannot be negative, got %d", period)
	}
	if _, err := NewMaterials(quantities.Cotton, quantities.Fibre); err != nil {
		return nil, err
	}
	if quantities.IsZero() {
		return nil, fmt.Errorf("order quantities cannot both be zero")
	}
	return &MaterialOrder{
		ID:         uuid.NewString(),
		Period:     period,
		Quantities: quantities,
		PlacedAt:   placedAt,
	}, nil
}
