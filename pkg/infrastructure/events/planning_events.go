package events

import (
	"fmt"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
)

const (
	DemandRecordedEvent   = "demand.recorded"
	DemandUpdatedEvent    = "demand.updated"
	MaterialsOrderedEvent = "materials.ordered"
	DayClosedEvent        = "day.closed"
	DayCloseRefusedEvent  = "day.close_refused"
)

// AllEventTypes lists every planning event type
func AllEventTypes() []string {
	return []string{
		DemandRecordedEvent,
		DemandUpdatedEvent,
		MaterialsOrderedEvent,
		DayClosedEvent,
		DayCloseRefusedEvent,
	}
}

type DemandRecorded struct {
	Record entities.DemandRecord `json:"record"`
}

type DemandUpdated struct {
	OldRecord entities.DemandRecord `json:"old_record"`
	NewRecord entities.DemandRecord `json:"new_record"`
}

type MaterialsOrdered struct {
	Order      entities.MaterialOrder `json:"order"`
	StockAfter entities.Materials     `json:"stock_after"`
}

type DayClosed struct {
	Closed   entities.Period                `json:"closed"`
	Used     entities.Materials             `json:"used"`
	Overdraw entities.Materials             `json:"overdraw"`
	Stock    entities.StockSnapshot         `json:"stock"`
	Finished entities.FinishedGoodsSnapshot `json:"finished"`
}

type DayCloseRefused struct {
	Period    entities.Period    `json:"period"`
	Shortfall entities.Materials `json:"shortfall"`
}

// PeriodStream names the stream holding events about a period
func PeriodStream(period entities.Period) string {
	return fmt.Sprintf("period-%d", int(period))
}

func NewDemandRecordedEvent(record entities.DemandRecord) Event {
	return NewEvent(DemandRecordedEvent, PeriodStream(record.Period), DemandRecorded{Record: record})
}

func NewDemandUpdatedEvent(oldRecord, newRecord entities.DemandRecord) Event {
	return NewEvent(DemandUpdatedEvent, PeriodStream(newRecord.Period), DemandUpdated{
		OldRecord: oldRecord,
		NewRecord: newRecord,
	})
}

func NewMaterialsOrderedEvent(order entities.MaterialOrder, stockAfter entities.Materials) Event {
	return NewEvent(MaterialsOrderedEvent, PeriodStream(order.Period), MaterialsOrdered{
		Order:      order,
		StockAfter: stockAfter,
	})
}

func NewDayClosedEvent(closed DayClosed) Event {
	return NewEvent(DayClosedEvent, PeriodStream(closed.Closed), closed)
}

func NewDayCloseRefusedEvent(period entities.Period, shortfall entities.Materials) Event {
	return NewEvent(
		DayCloseRefusedEvent,
		PeriodStream(period),
		DayCloseRefused{Period: period, Shortfall: shortfall},
	)
}
