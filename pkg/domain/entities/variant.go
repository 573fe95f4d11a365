package entities

import (
	"fmt"
	"strings"
)

// Quantity represents a count of finished units
type Quantity uint64

// MaxQuantity is the largest quantity a demand record accepts for one variant
const MaxQuantity Quantity = 1_000_000_000

// Variant is one of the finished-goods categories
type Variant int

const (
	Single Variant = iota
	Double
	King
)

// AllVariants returns the variants in display order
func AllVariants() []Variant {
	return []Variant{Single, Double, King}
}

// String method for Variant enum
func (v Variant) String() string {
	switch v {
	case Single:
		return "Single"
	case Double:
		return "Double"
	case King:
		return "King"
	default:
		return "Unknown"
	}
}

// ParseVariant accepts the variant name in any case
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single":
		return Single, nil
	case "double":
		return Double, nil
	case "king":
		return King, nil
	default:
		return Single, fmt.Errorf("invalid variant: %s (expected: Single, Double, or King)", s)
	}
}

// VariantQuantities holds one quantity per variant
type VariantQuantities struct {
	Single Quantity `json:"single"`
	Double Quantity `json:"double"`
	King   Quantity `json:"king"`
}

// Get returns the quantity for a variant
func (q VariantQuantities) Get(v Variant) Quantity {
	switch v {
	case Single:
		return q.Single
	case Double:
		return q.Double
	case King:
		return q.King
	default:
		return 0
	}
}

// Set returns a copy of q with the quantity for v replaced
func (q VariantQuantities) Set(v Variant, qty Quantity) VariantQuantities {
	switch v {
	case Single:
		q.Single = qty
	case Double:
		q.Double = qty
	case King:
		q.King = qty
	}
	return q
}

// Total returns the sum over all variants
func (q VariantQuantities) Total() Quantity {
	return q.Single + q.Double + q.King
}

// IsZero reports whether every variant quantity is zero
func (q VariantQuantities) IsZero() bool {
	return q.Total() == 0
}

// Validate rejects any variant quantity above MaxQuantity
func (q VariantQuantities) Validate() error {
	for _, v := range AllVariants() {
		if q.Get(v) > MaxQuantity {
			return fmt.Errorf("%s quantity cannot exceed %d, got %d", strings.ToLower(v.String()), MaxQuantity, q.Get(v))
		}
	}
	return nil
}
