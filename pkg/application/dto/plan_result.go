package dto

import (
	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/domain/services/planning"
)

// DaySchedule is the production schedule for one period
type DaySchedule struct {
	Period entities.Period `json:"period"`
	// NoOrders is true when no demand has been recorded for the period;
	// nothing is computed in that case.
	NoOrders bool                       `json:"no_orders"`
	Demand   entities.VariantQuantities `json:"demand"`
	Required entities.VariantQuantities `json:"required"`
	Produce  entities.VariantQuantities `json:"produce"`
	// Materials covers Produce, or Demand alone when history is short.
	Materials entities.Materials `json:"materials"`
	Lookback  int                `json:"lookback"`
	// InsufficientHistory is set when fewer than Lookback records exist up
	// to the period. Required and Produce stay zero.
	InsufficientHistory bool                    `json:"insufficient_history"`
	History             []entities.DemandRecord `json:"-"`
}

// HistoryError returns *planning.InsufficientHistoryError for a schedule
// without enough history, and nil otherwise.
func (s DaySchedule) HistoryError() error {
	if short := s.HistoryShortfall(); short != nil {
		return short
	}
	return nil
}

// HistoryShortfall is HistoryError with its concrete type
func (s DaySchedule) HistoryShortfall() *planning.InsufficientHistoryError {
	if !s.InsufficientHistory {
		return nil
	}
	return &planning.InsufficientHistoryError{Have: len(s.History), Need: s.Lookback}
}

// DayProjection is a full, freshly read view of today and tomorrow
type DayProjection struct {
	Today            entities.Period                `json:"today"`
	Tomorrow         entities.Period                `json:"tomorrow"`
	Stock            entities.StockSnapshot         `json:"stock"`
	Finished         entities.FinishedGoodsSnapshot `json:"finished"`
	TodaySchedule    DaySchedule                    `json:"today_schedule"`
	Used             entities.Materials             `json:"used_today"`
	StockAfterToday  entities.Materials             `json:"stock_after_today"`
	Overdraw         entities.Materials             `json:"overdraw"`
	FinishedAfter    entities.VariantQuantities     `json:"finished_after_today"`
	TomorrowSchedule DaySchedule                    `json:"tomorrow_schedule"`
	TomorrowFeasible planning.FeasibilityResult     `json:"tomorrow_feasibility"`
}

// Overview is what the menu shows between operations
type Overview struct {
	Unit           entities.PeriodUnit            `json:"-"`
	Today          entities.Period                `json:"today"`
	Stock          entities.StockSnapshot         `json:"stock"`
	Finished       entities.FinishedGoodsSnapshot `json:"finished"`
	TodayDemand    *entities.DemandRecord         `json:"today_demand,omitempty"`
	TomorrowDemand *entities.DemandRecord         `json:"tomorrow_demand,omitempty"`
	OrderedFor     *entities.Period               `json:"ordered_for,omitempty"`
}

// DemandResult reports an EditDemand commit
type DemandResult struct {
	Record  entities.DemandRecord `json:"record"`
	Updated bool                  `json:"updated"`
}

// OrderResult reports an OrderMaterials call
type OrderResult struct {
	Period         entities.Period         `json:"period"`
	AlreadyOrdered bool                    `json:"already_ordered"`
	NoOrders       bool                    `json:"no_orders"`
	Required       entities.Materials      `json:"required"`
	Ordered        entities.Materials      `json:"ordered"`
	StockAfter     entities.Materials      `json:"stock_after"`
	Order          *entities.MaterialOrder `json:"order,omitempty"`
	// NoProjection is set when the order covers demand alone
	NoProjection *planning.InsufficientHistoryError `json:"no_projection,omitempty"`
}

// CloseResult reports a successful CloseDay
type CloseResult struct {
	Closed    entities.Period                `json:"closed"`
	NewPeriod entities.Period                `json:"new_period"`
	Used      entities.Materials             `json:"used"`
	Overdraw  entities.Materials             `json:"overdraw"`
	Stock     entities.StockSnapshot         `json:"stock"`
	Finished  entities.FinishedGoodsSnapshot `json:"finished"`
	// NoProjection is set when the close was checked against demand alone
	NoProjection *planning.InsufficientHistoryError `json:"no_projection,omitempty"`
}
