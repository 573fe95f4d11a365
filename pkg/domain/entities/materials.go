package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Material is a raw material consumed by production
type Material int

const (
	Cotton Material = iota
	Fibre
)

// String method for Material enum
func (m Material) String() string {
	switch m {
	case Cotton:
		return "Cotton"
	case Fibre:
		return "Fibre"
	default:
		return "Unknown"
	}
}

// Unit returns the unit of measure the material is tracked in
func (m Material) Unit() string {
	switch m {
	case Cotton:
		return "m"
	case Fibre:
		return "kg"
	default:
		return ""
	}
}

// AllMaterials returns the materials in display order
func AllMaterials() []Material {
	return []Material{Cotton, Fibre}
}

// Materials holds an amount per raw material (cotton in meters, fibre in kg)
type Materials struct {
	Cotton decimal.Decimal `json:"cotton"`
	Fibre  decimal.Decimal `json:"fibre"`
}

// NewMaterials creates a validated Materials value
func NewMaterials(cotton, fibre decimal.Decimal) (*Materials, error) {
	if cotton.IsNegative() {
		return nil, fmt.Errorf("cotton cannot be negative, got %s", cotton)
	}
	if fibre.IsNegative() {
		return nil, fmt.Errorf("fibre cannot be negative, got %s", fibre)
	}
	return &Materials{Cotton: cotton, Fibre: fibre}, nil
}

// MaterialsFromFloat is a convenience for literals in configuration and tests
func MaterialsFromFloat(cotton, fibre float64) Materials {
	return Materials{Cotton: decimal.NewFromFloat(cotton), Fibre: decimal.NewFromFloat(fibre)}
}

// Get returns the amount for a material
func (m Materials) Get(material Material) decimal.Decimal {
	switch material {
	case Cotton:
		return m.Cotton
	case Fibre:
		return m.Fibre
	default:
		return decimal.Zero
	}
}

// Set returns a copy of m with the amount for material replaced
func (m Materials) Set(material Material, amount decimal.Decimal) Materials {
	switch material {
	case Cotton:
		m.Cotton = amount
	case Fibre:
		m.Fibre = amount
	}
	return m
}

// Add returns the componentwise sum
func (m Materials) Add(other Materials) Materials {
	return Materials{Cotton: m.Cotton.Add(other.Cotton), Fibre: m.Fibre.Add(other.Fibre)}
}

// IsZero reports whether both amounts are zero
func (m Materials) IsZero() bool {
	return m.Cotton.IsZero() && m.Fibre.IsZero()
}

// Equal compares amounts numerically, ignoring exponent differences
func (m Materials) Equal(other Materials) bool {
	return m.Cotton.Equal(other.Cotton) && m.Fibre.Equal(other.Fibre)
}

// String renders both amounts with two decimal places
func (m Materials) String() string {
	return fmt.Sprintf("cotton %sm, fibre %skg", m.Cotton.StringFixed(2), m.Fibre.StringFixed(2))
}
