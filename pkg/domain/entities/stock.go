package entities

import "fmt"

// StockStatus marks how a stock snapshot was produced
type StockStatus int

const (
	// Open snapshots were amended during a day that has not been closed yet
	Open StockStatus = iota
	// Closed snapshots carry the balance written by a day close
	Closed
)

// String method for StockStatus enum
func (s StockStatus) String() string {
	switch s {
	case Open:
		return "OPEN"
	case Closed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// ParseStockStatus parses OPEN/CLOSED in any case; empty input means Closed
func ParseStockStatus(s string) (StockStatus, error) {
	switch s {
	case "OPEN", "open", "Open":
		return Open, nil
	case "CLOSED", "closed", "Closed", "":
		return Closed, nil
	default:
		return Closed, fmt.Errorf("invalid stock status: %s (expected: OPEN or CLOSED)", s)
	}
}

// StockSnapshot is the raw-material stock as of a period
type StockSnapshot struct {
	Period    Period      `json:"period"`
	Materials Materials   `json:"materials"`
	Status    StockStatus `json:"status"`
}

// NewStockSnapshot creates a validated StockSnapshot
func NewStockSnapshot(period Period, materials Materials, status StockStatus) (*StockSnapshot, error) {
	if period < 0 {
		return nil, fmt.Errorf("period cannot be negative, got %d", period)
	}
	if _, err := NewMaterials(materials.Cotton, materials.Fibre); err != nil {
		return nil, err
	}
	return &StockSnapshot{
		Period:    period,
		Materials: materials,
		Status:    status,
	}, nil
}

// FinishedGoodsSnapshot is the finished-unit stock per variant as of a period
type FinishedGoodsSnapshot struct {
	Period Period            `json:"period"`
	Units  VariantQuantities `json:"units"`
}

// NewFinishedGoodsSnapshot creates a validated FinishedGoodsSnapshot
func NewFinishedGoodsSnapshot(period Period, units VariantQuantities) (*FinishedGoodsSnapshot, error) {
	if period < 0 {
		return nil, fmt.Errorf("period cannot be negative, got %d", period)
	}
	return &FinishedGoodsSnapshot{
		Period: period,
		Units:  units,
	}, nil
}
