package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// UsageRate is the raw-material consumption of one finished unit of a variant
type UsageRate struct {
	Variant       Variant         `json:"variant"`
	CottonPerUnit decimal.Decimal `json:"cotton_per_unit"`
	FibrePerUnit  decimal.Decimal `json:"fibre_per_unit"`
}

// NewUsageRate creates a validated UsageRate
func NewUsageRate(variant Variant, cottonPerUnit, fibrePerUnit decimal.Decimal) (*UsageRate, error) {
	if variant < Single || variant > King {
		return nil, fmt.Errorf("unknown variant: %d", variant)
	}
	if cottonPerUnit.IsNegative() {
		return nil, fmt.Errorf("cotton per unit cannot be negative, got %s", cottonPerUnit)
	}
	if fibrePerUnit.IsNegative() {
		return nil, fmt.Errorf("fibre per unit cannot be negative, got %s", fibrePerUnit)
	}
	return &UsageRate{
		Variant:       variant,
		CottonPerUnit: cottonPerUnit,
		FibrePerUnit:  fibrePerUnit,
	}, nil
}

// PerUnit returns the consumption of a material per finished unit
func (r UsageRate) PerUnit(material Material) decimal.Decimal {
	switch material {
	case Cotton:
		return r.CottonPerUnit
	case Fibre:
		return r.FibrePerUnit
	default:
		return decimal.Zero
	}
}

// UsageTable holds one rate per variant, indexed by Variant
type UsageTable [3]UsageRate

// NewUsageTable builds a table from rates, requiring exactly one rate per variant
func NewUsageTable(rates []UsageRate) (UsageTable, error) {
	var table UsageTable
	seen := map[Variant]bool{}
	for _, rate := range rates {
		if _, err := NewUsageRate(rate.Variant, rate.CottonPerUnit, rate.FibrePerUnit); err != nil {
			return table, err
		}
		if seen[rate.Variant] {
			return table, fmt.Errorf("duplicate usage rate for %s", rate.Variant)
		}
		seen[rate.Variant] = true
		table[rate.Variant] = rate
	}
	for _, v := range AllVariants() {
		if !seen[v] {
			return table, fmt.Errorf("missing usage rate for %s", v)
		}
	}
	return table, nil
}

// Rate returns the usage rate for a variant
func (t UsageTable) Rate(v Variant) UsageRate {
	return t[v]
}
