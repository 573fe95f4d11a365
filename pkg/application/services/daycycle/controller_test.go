package daycycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/quiltplan/pkg/application/services/scheduling"
	fixtures "github.com/vsinha/quiltplan/pkg/application/services/testing"
	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/domain/repositories"
	"github.com/vsinha/quiltplan/pkg/domain/services/planning"
	"github.com/vsinha/quiltplan/pkg/infrastructure/events"
	"github.com/vsinha/quiltplan/pkg/infrastructure/repositories/memory"
)

type harness struct {
	store      repositories.Store
	events     *events.Journal
	controller *Controller
}

func newHarness(store repositories.Store, policy planning.Policy) *harness {
	journal := events.NewJournal(nil)
	planner := scheduling.NewPlanner(fixtures.MustEngine(policy), store, fixtures.FlatUsage(), nil)
	controller := NewController(planner, store, journal, nil, Options{
		Unit:         entities.Day,
		StartPeriod:  1,
		InitialStock: entities.MaterialsFromFloat(100, 100),
		Now:          func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) },
	})
	return &harness{store: store, events: journal, controller: controller}
}

func (h *harness) eventTypes(t *testing.T) []string {
	t.Helper()
	all := h.events.Since(0)
	types := make([]string, 0, len(all))
	for _, e := range all {
		types = append(types, e.Type)
	}
	return types
}

func assertMaterials(t *testing.T, expected, got entities.Materials) {
	t.Helper()
	if !expected.Equal(got) {
		t.Errorf("Expected %s, got %s", expected, got)
	}
}

func TestController_CloseDayDeductsTodaysUsage(t *testing.T) {
	ctx := context.Background()
	h := newHarness(fixtures.SeededStore(
		fixtures.MustStock(1, 100, 100, entities.Closed),
		fixtures.MustDemand(1, 5, 0, 0),
	), fixtures.PlainPolicy())

	result, err := h.controller.CloseDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.Period(1), result.Closed)
	assert.Equal(t, entities.Period(2), result.NewPeriod)
	assertMaterials(t, entities.MaterialsFromFloat(10, 5), result.Used)
	assertMaterials(t, entities.MaterialsFromFloat(90, 95), result.Stock.Materials)
	assert.Equal(t, entities.Closed, result.Stock.Status)
	assert.Equal(t, entities.Period(2), h.controller.Today())
	assert.Equal(t, AwaitingInput, h.controller.State())

	latest, err := h.store.Stock.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.Period(2), latest.Period)
	assertMaterials(t, entities.MaterialsFromFloat(90, 95), latest.Materials)

	// No demand for the new day: the second close takes the no-orders path.
	second, err := h.controller.CloseDay(ctx)
	require.NoError(t, err)
	assert.True(t, second.Used.IsZero())
	assertMaterials(t, entities.MaterialsFromFloat(90, 95), second.Stock.Materials)
	assert.Equal(t, entities.Period(3), h.controller.Today())

	assert.Equal(t, []string{events.DayClosedEvent, events.DayClosedEvent}, h.eventTypes(t))
}

func TestController_DayCycleUnderDefaultPolicy(t *testing.T) {
	// Reserve and buffer are both 10%: five sold singles schedule six.
	tests := []struct {
		name         string
		demand       []entities.DemandRecord
		order        bool
		wantOrdered  entities.Materials
		wantShort    *entities.Materials
		wantStock    entities.Materials
		wantFinished entities.VariantQuantities
	}{
		{
			name:         "close consumes sold units only",
			demand:       []entities.DemandRecord{fixtures.MustDemand(1, 5, 0, 0)},
			wantStock:    entities.MaterialsFromFloat(90, 95),
			wantFinished: entities.VariantQuantities{Single: 1},
		},
		{
			name: "close refused against scheduled output",
			demand: []entities.DemandRecord{
				fixtures.MustDemand(1, 5, 0, 0),
				fixtures.MustDemand(2, 45, 0, 0),
			},
			wantShort: &entities.Materials{Cotton: decimal.NewFromInt(8), Fibre: decimal.Zero},
		},
		{
			name: "order adds the buffer on top",
			demand: []entities.DemandRecord{
				fixtures.MustDemand(1, 5, 0, 0),
				fixtures.MustDemand(2, 45, 0, 0),
			},
			order:        true,
			wantOrdered:  entities.MaterialsFromFloat(17.8, 0),
			wantStock:    entities.MaterialsFromFloat(107.8, 95),
			wantFinished: entities.VariantQuantities{Single: 1},
		},
		{
			name: "leftover unit covers tomorrow",
			demand: []entities.DemandRecord{
				fixtures.MustDemand(1, 5, 0, 0),
				fixtures.MustDemand(2, 1, 0, 0),
			},
			order:        true,
			wantOrdered:  entities.MaterialsFromFloat(0, 0),
			wantStock:    entities.MaterialsFromFloat(90, 95),
			wantFinished: entities.VariantQuantities{Single: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(fixtures.SeededStore(
				fixtures.MustStock(1, 100, 100, entities.Closed),
				tt.demand...,
			), planning.DefaultPolicy())

			if tt.order {
				order, err := h.controller.OrderMaterials(ctx)
				require.NoError(t, err)
				assertMaterials(t, tt.wantOrdered, order.Ordered)
			}

			result, err := h.controller.CloseDay(ctx)
			if tt.wantShort != nil {
				var infeasible *InfeasibleError
				require.ErrorAs(t, err, &infeasible)
				assertMaterials(t, *tt.wantShort, infeasible.Shortfall)
				assert.Equal(t, entities.Period(1), h.controller.Today())
				return
			}
			require.NoError(t, err)
			assertMaterials(t, entities.MaterialsFromFloat(10, 5), result.Used)
			assertMaterials(t, tt.wantStock, result.Stock.Materials)
			assert.Equal(t, tt.wantFinished, result.Finished.Units)
		})
	}
}

func TestController_RepeatedCloseNeverDoubleDeducts(t *testing.T) {
	ctx := context.Background()
	h := newHarness(fixtures.SeededStore(
		fixtures.MustStock(1, 100, 100, entities.Closed),
		fixtures.MustDemand(1, 5, 0, 0),
	), fixtures.PlainPolicy())

	for i := 0; i < 3; i++ {
		_, err := h.controller.CloseDay(ctx)
		require.NoError(t, err)
	}

	history, err := h.store.Stock.All(ctx)
	require.NoError(t, err)
	require.Len(t, history, 4)
	for i, snapshot := range history {
		assert.Equal(t, entities.Period(i+1), snapshot.Period)
	}
	assertMaterials(t, entities.MaterialsFromFloat(90, 95), history[3].Materials)
}

func TestController_CloseDayRefusedWhenInfeasible(t *testing.T) {
	ctx := context.Background()
	h := newHarness(fixtures.SeededStore(
		fixtures.MustStock(1, 80, 60, entities.Closed),
		fixtures.MustDemand(2, 50, 0, 0),
	), fixtures.PlainPolicy())

	_, err := h.controller.CloseDay(ctx)
	var infeasible *InfeasibleError
	require.ErrorAs(t, err, &infeasible)
	assert.Equal(t, entities.Period(2), infeasible.Period)
	assertMaterials(t, entities.MaterialsFromFloat(20, 0), infeasible.Shortfall)

	assert.Equal(t, AwaitingInput, h.controller.State())
	assert.Equal(t, entities.Period(1), h.controller.Today())
	history, err := h.store.Stock.All(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, []string{events.DayCloseRefusedEvent}, h.eventTypes(t))
}

func TestController_CloseChecksStockAfterTodaysUsage(t *testing.T) {
	// 100 cotton covers tomorrow's 100 only before today's 10 are consumed.
	h := newHarness(fixtures.SeededStore(
		fixtures.MustStock(1, 100, 100, entities.Closed),
		fixtures.MustDemand(1, 5, 0, 0),
		fixtures.MustDemand(2, 50, 0, 0),
	), fixtures.PlainPolicy())

	_, err := h.controller.CloseDay(context.Background())
	var infeasible *InfeasibleError
	require.ErrorAs(t, err, &infeasible)
	assertMaterials(t, entities.MaterialsFromFloat(10, 0), infeasible.Shortfall)
}

func TestController_OrderMaterialsThenClose(t *testing.T) {
	ctx := context.Background()
	policy := fixtures.PlainPolicy()
	policy.BufferFraction = decimal.RequireFromString("0.10")
	h := newHarness(fixtures.SeededStore(
		fixtures.MustStock(1, 10, 10, entities.Closed),
		fixtures.MustDemand(2, 50, 0, 0),
	), policy)

	order, err := h.controller.OrderMaterials(ctx)
	require.NoError(t, err)
	require.NotNil(t, order.Order)
	assert.Equal(t, entities.Period(2), order.Period)
	assertMaterials(t, entities.MaterialsFromFloat(100, 50), order.Required)
	assertMaterials(t, entities.MaterialsFromFloat(100, 45), order.Ordered)
	assertMaterials(t, entities.MaterialsFromFloat(110, 55), order.StockAfter)
	assert.NotEmpty(t, order.Order.ID)

	latest, err := h.store.Stock.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.Period(1), latest.Period)
	assert.Equal(t, entities.Open, latest.Status)

	again, err := h.controller.OrderMaterials(ctx)
	require.NoError(t, err)
	assert.True(t, again.AlreadyOrdered)
	assert.Nil(t, again.Order)
	assert.Len(t, h.controller.Orders(), 1)

	closed, err := h.controller.CloseDay(ctx)
	require.NoError(t, err)
	assertMaterials(t, entities.MaterialsFromFloat(110, 55), closed.Stock.Materials)

	overview, err := h.controller.Overview(ctx)
	require.NoError(t, err)
	assert.Nil(t, overview.OrderedFor)
	assert.Equal(t, []string{events.MaterialsOrderedEvent, events.DayClosedEvent}, h.eventTypes(t))
}

func TestController_OrderMaterialsCoversOverdraw(t *testing.T) {
	ctx := context.Background()
	h := newHarness(fixtures.SeededStore(
		fixtures.MustStock(1, 4, 100, entities.Closed),
		fixtures.MustDemand(1, 5, 0, 0),
		fixtures.MustDemand(2, 5, 0, 0),
	), fixtures.PlainPolicy())

	order, err := h.controller.OrderMaterials(ctx)
	require.NoError(t, err)
	assertMaterials(t, entities.MaterialsFromFloat(16, 0), order.Ordered)

	closed, err := h.controller.CloseDay(ctx)
	require.NoError(t, err)
	assertMaterials(t, entities.MaterialsFromFloat(10, 95), closed.Stock.Materials)
}

func TestController_OrderMaterialsWithoutDemand(t *testing.T) {
	h := newHarness(fixtures.SeededStore(fixtures.MustStock(1, 10, 10, entities.Closed)), fixtures.PlainPolicy())

	result, err := h.controller.OrderMaterials(context.Background())
	require.NoError(t, err)
	assert.True(t, result.NoOrders)
	assert.Nil(t, result.Order)
	assert.Empty(t, h.eventTypes(t))
}

func TestController_EditDemandTargetsNextPeriod(t *testing.T) {
	ctx := context.Background()
	h := newHarness(fixtures.SeededStore(fixtures.MustStock(4, 100, 100, entities.Closed)), fixtures.PlainPolicy())

	first, err := h.controller.EditDemand(ctx, entities.VariantQuantities{Single: 3})
	require.NoError(t, err)
	assert.Equal(t, entities.Period(5), first.Record.Period)
	assert.False(t, first.Updated)

	second, err := h.controller.EditDemand(ctx, entities.VariantQuantities{Double: 2})
	require.NoError(t, err)
	assert.True(t, second.Updated)

	records, err := h.store.Demand.All(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, entities.VariantQuantities{Double: 2}, records[0].Quantities)
	assert.Equal(t, []string{events.DemandRecordedEvent, events.DemandUpdatedEvent}, h.eventTypes(t))

	sched, err := h.controller.ViewSchedule(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.Period(5), sched.Period)
	assert.Equal(t, entities.VariantQuantities{Double: 2}, sched.Produce)
}

func TestController_ViewScheduleReportsNoOrders(t *testing.T) {
	h := newHarness(fixtures.SeededStore(fixtures.MustStock(1, 100, 100, entities.Closed)), fixtures.PlainPolicy())

	sched, err := h.controller.ViewSchedule(context.Background())
	require.NoError(t, err)
	assert.True(t, sched.NoOrders)
}

func TestController_ViewScheduleInsufficientHistory(t *testing.T) {
	policy := fixtures.PlainPolicy()
	policy.Lookback = 2
	h := newHarness(fixtures.SeededStore(
		fixtures.MustStock(1, 100, 100, entities.Closed),
		fixtures.MustDemand(2, 5, 0, 0),
	), policy)

	sched, err := h.controller.ViewSchedule(context.Background())
	require.NoError(t, err)
	assert.True(t, sched.InsufficientHistory)
	assert.True(t, sched.Produce.IsZero())
	assertMaterials(t, entities.MaterialsFromFloat(10, 5), sched.Materials)

	var insufficient *planning.InsufficientHistoryError
	require.ErrorAs(t, sched.HistoryError(), &insufficient)
	assert.Equal(t, 1, insufficient.Have)
	assert.Equal(t, 2, insufficient.Need)
	assert.Equal(t, AwaitingInput, h.controller.State())
}

func TestController_ViewScheduleWithoutDemandSkipsToday(t *testing.T) {
	// Today is short of history; tomorrow has no demand at all.
	policy := fixtures.PlainPolicy()
	policy.Lookback = 2
	h := newHarness(fixtures.SeededStore(
		fixtures.MustStock(1, 100, 100, entities.Closed),
		fixtures.MustDemand(1, 5, 0, 0),
	), policy)

	sched, err := h.controller.ViewSchedule(context.Background())
	require.NoError(t, err)
	assert.True(t, sched.NoOrders)
	assert.Equal(t, entities.Period(2), sched.Period)
	assert.False(t, sched.InsufficientHistory)
	assert.True(t, sched.Materials.IsZero())
}

func TestController_ClockAdvancesFromEmptyStoreWithLongLookback(t *testing.T) {
	ctx := context.Background()
	policy := planning.DefaultPolicy()
	policy.Lookback = 4
	h := newHarness(memory.NewStore(), policy)

	for round := 1; round <= 5; round++ {
		_, err := h.controller.EditDemand(ctx, entities.VariantQuantities{Single: 2})
		require.NoError(t, err)

		result, err := h.controller.CloseDay(ctx)
		require.NoError(t, err, "round %d", round)
		assert.Equal(t, entities.Period(round+1), result.NewPeriod)
		// Tomorrow holds round records of history until the window fills.
		if round < 4 {
			require.NotNil(t, result.NoProjection, "round %d", round)
			assert.Equal(t, round, result.NoProjection.Have)
			assert.Equal(t, 4, result.NoProjection.Need)
		} else {
			assert.Nil(t, result.NoProjection, "round %d", round)
		}
	}

	assert.Equal(t, entities.Period(6), h.controller.Today())
	latest, err := h.store.Stock.Latest(ctx)
	require.NoError(t, err)
	assertMaterials(t, entities.MaterialsFromFloat(84, 92), latest.Materials)
}

func TestController_StartSeedsEmptyLedger(t *testing.T) {
	ctx := context.Background()
	h := newHarness(memory.NewStore(), fixtures.PlainPolicy())

	overview, err := h.controller.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.Period(1), overview.Today)
	assertMaterials(t, entities.MaterialsFromFloat(100, 100), overview.Stock.Materials)
	assert.Nil(t, overview.TodayDemand)
	assert.Nil(t, overview.TomorrowDemand)

	history, err := h.store.Stock.All(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestController_StoreFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	failing := &fixtures.FailingStore{Inner: fixtures.SeededStore(
		fixtures.MustStock(1, 100, 100, entities.Closed),
		fixtures.MustDemand(1, 5, 0, 0),
	)}
	h := newHarness(failing.Store(), fixtures.PlainPolicy())
	require.NoError(t, h.controller.Start(ctx))

	failing.Failing = true
	_, err := h.controller.CloseDay(ctx)
	if !errors.Is(err, repositories.ErrStoreUnavailable) {
		t.Fatalf("Expected ErrStoreUnavailable, got %v", err)
	}
	assert.Equal(t, AwaitingInput, h.controller.State())
	assert.Equal(t, entities.Period(1), h.controller.Today())

	failing.Failing = false
	result, err := h.controller.CloseDay(ctx)
	require.NoError(t, err)
	assertMaterials(t, entities.MaterialsFromFloat(90, 95), result.Stock.Materials)
}

func TestController_ExitTerminates(t *testing.T) {
	ctx := context.Background()
	h := newHarness(fixtures.SeededStore(fixtures.MustStock(1, 100, 100, entities.Closed)), fixtures.PlainPolicy())

	h.controller.Exit()
	assert.Equal(t, Terminated, h.controller.State())

	_, err := h.controller.CloseDay(ctx)
	assert.ErrorIs(t, err, ErrTerminated)
	_, err = h.controller.EditDemand(ctx, entities.VariantQuantities{Single: 1})
	assert.ErrorIs(t, err, ErrTerminated)
	_, err = h.controller.Overview(ctx)
	assert.ErrorIs(t, err, ErrTerminated)
}

func TestState_String(t *testing.T) {
	if CloseDay.String() != "CLOSE_DAY" {
		t.Errorf("Expected CLOSE_DAY, got %s", CloseDay.String())
	}
	if State(99).String() != "UNKNOWN" {
		t.Errorf("Expected UNKNOWN, got %s", State(99).String())
	}
}
