package entities

import "fmt"

// DemandRecord is the observed demand (sales or orders) for one period
type DemandRecord struct {
	Period     Period            `json:"period"`
	Quantities VariantQuantities `json:"quantities"`
}

// NewDemandRecord creates a validated DemandRecord
func NewDemandRecord(period Period, quantities VariantQuantities) (*DemandRecord, error) {
	if period < 0 {
		return nil, fmt.Errorf("period cannot be negative, got %d", period)
	}
	if err := quantities.Validate(); err != nil {
		return nil, err
	}
	return &DemandRecord{
		Period:     period,
		Quantities: quantities,
	}, nil
}
