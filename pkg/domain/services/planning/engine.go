// Package planning converts recorded demand into production targets and
// production targets into raw-material requirements, reorders and deductions.
//
// Every function here is pure. Material amounts are decimals so that the
// replenishment fixpoint (ordering exactly the reorder quantity leaves nothing
// further to order) holds exactly rather than up to float error.
package planning

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
)

var (
	one       = decimal.NewFromInt(1)
	maxOutput = decimal.NewFromUint64(math.MaxUint64)
)

// RequiredOutput projects the output needed for the next period from the most
// recent lookback demand records: per variant, average = sum / lookback and
// the result is round(average * (1 + reserveFraction)).
//
// Rounding is half away from zero, so an exact .5 rounds up: an average of 25
// with a 10% reserve gives 27.5 and therefore 28.
func RequiredOutput(history []entities.DemandRecord, lookback int, reserveFraction decimal.Decimal) (entities.VariantQuantities, error) {
	var out entities.VariantQuantities
	if lookback < 1 {
		return out, fmt.Errorf("%w: lookback must be at least 1, got %d", ErrInvalidParameter, lookback)
	}
	if reserveFraction.IsNegative() {
		return out, fmt.Errorf("%w: reserve fraction cannot be negative, got %s", ErrInvalidParameter, reserveFraction)
	}
	if len(history) < lookback {
		return out, &InsufficientHistoryError{Have: len(history), Need: lookback}
	}

	window := history[len(history)-lookback:]
	factor := one.Add(reserveFraction)
	divisor := decimal.NewFromInt(int64(lookback))

	for _, v := range entities.AllVariants() {
		sum := decimal.Zero
		for _, record := range window {
			sum = sum.Add(decimal.NewFromUint64(uint64(record.Quantities.Get(v))))
		}
		// Multiply before dividing so exact halves stay exact.
		projected := sum.Mul(factor).Div(divisor).Round(0)
		if projected.GreaterThan(maxOutput) {
			return out, fmt.Errorf("%w: projected %s output %s is out of range", ErrInvalidParameter, v, projected)
		}
		out = out.Set(v, entities.Quantity(projected.BigInt().Uint64()))
	}
	return out, nil
}

// AdjustForStock subtracts finished units already on hand, never going below zero
func AdjustForStock(required, onHand entities.VariantQuantities) entities.VariantQuantities {
	var out entities.VariantQuantities
	for _, v := range entities.AllVariants() {
		need, have := required.Get(v), onHand.Get(v)
		if need > have {
			out = out.Set(v, need-have)
		}
	}
	return out
}

// MaterialRequirement is the linear combination of units and per-unit usage.
// The result is not rounded; callers round for display only.
func MaterialRequirement(units entities.VariantQuantities, usage entities.UsageTable) entities.Materials {
	total := entities.Materials{Cotton: decimal.Zero, Fibre: decimal.Zero}
	for _, v := range entities.AllVariants() {
		count := decimal.NewFromInt(int64(units.Get(v)))
		rate := usage.Rate(v)
		total.Cotton = total.Cotton.Add(count.Mul(rate.CottonPerUnit))
		total.Fibre = total.Fibre.Add(count.Mul(rate.FibrePerUnit))
	}
	return total
}

// FeasibilityResult is the outcome of comparing a requirement with available stock
type FeasibilityResult struct {
	Feasible bool
	// Shortfall is informational; ordering uses ReorderQuantity.
	Shortfall entities.Materials
}

// Feasibility is feasible iff available covers required for every material
func Feasibility(required, available entities.Materials) FeasibilityResult {
	shortfall := clampedDiff(required, available)
	return FeasibilityResult{
		Feasible:  shortfall.IsZero(),
		Shortfall: shortfall,
	}
}

// ReorderQuantity returns max(0, required*(1+buffer) - onHand) per material.
// Adding the result to onHand and asking again yields zero.
func ReorderQuantity(required, onHand entities.Materials, buffer decimal.Decimal) entities.Materials {
	factor := one.Add(buffer)
	target := entities.Materials{
		Cotton: required.Cotton.Mul(factor),
		Fibre:  required.Fibre.Mul(factor),
	}
	return clampedDiff(target, onHand)
}

// Deduct removes used from onHand, clamping each material at zero.
// Over-consumption is absorbed rather than reported; use Overdraw to detect it.
func Deduct(onHand, used entities.Materials) entities.Materials {
	return clampedDiff(onHand, used)
}

// Overdraw reports how much of used exceeded onHand, i.e. what Deduct discards
func Overdraw(onHand, used entities.Materials) entities.Materials {
	return clampedDiff(used, onHand)
}

func clampedDiff(a, b entities.Materials) entities.Materials {
	var out entities.Materials
	for _, m := range entities.AllMaterials() {
		diff := a.Get(m).Sub(b.Get(m))
		if diff.IsNegative() {
			diff = decimal.Zero
		}
		out = out.Set(m, diff)
	}
	return out
}
