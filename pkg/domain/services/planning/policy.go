package planning

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
)

// Policy carries the tunable planning parameters
type Policy struct {
	Lookback        int
	ReserveFraction decimal.Decimal
	BufferFraction  decimal.Decimal
}

// DefaultPolicy plans one period from the latest record with a 10% reserve and buffer
func DefaultPolicy() Policy {
	return Policy{
		Lookback:        1,
		ReserveFraction: decimal.RequireFromString("0.10"),
		BufferFraction:  decimal.RequireFromString("0.10"),
	}
}

// Validate checks the policy parameters
func (p Policy) Validate() error {
	if p.Lookback < 1 {
		return fmt.Errorf("%w: lookback must be at least 1, got %d", ErrInvalidParameter, p.Lookback)
	}
	if p.ReserveFraction.IsNegative() {
		return fmt.Errorf("%w: reserve fraction cannot be negative, got %s", ErrInvalidParameter, p.ReserveFraction)
	}
	if p.BufferFraction.IsNegative() {
		return fmt.Errorf("%w: buffer fraction cannot be negative, got %s", ErrInvalidParameter, p.BufferFraction)
	}
	return nil
}

// Engine applies a Policy to the pure planning functions
type Engine struct {
	policy Policy
}

// NewEngine creates an engine for a validated policy
func NewEngine(policy Policy) (*Engine, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Engine{policy: policy}, nil
}

// Policy returns the engine's parameters
func (e *Engine) Policy() Policy {
	return e.policy
}

// RequiredOutput projects output from history using the policy's lookback and reserve
func (e *Engine) RequiredOutput(history []entities.DemandRecord) (entities.VariantQuantities, error) {
	return RequiredOutput(history, e.policy.Lookback, e.policy.ReserveFraction)
}

// ReorderQuantity sizes a replenishment using the policy's buffer
func (e *Engine) ReorderQuantity(required, onHand entities.Materials) entities.Materials {
	return ReorderQuantity(required, onHand, e.policy.BufferFraction)
}
