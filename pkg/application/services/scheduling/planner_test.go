package scheduling

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fixtures "github.com/vsinha/quiltplan/pkg/application/services/testing"
	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/domain/repositories"
	"github.com/vsinha/quiltplan/pkg/domain/services/planning"
)

func newTestPlanner(store repositories.Store, policy planning.Policy) *Planner {
	return NewPlanner(fixtures.MustEngine(policy), store, fixtures.FlatUsage(), nil)
}

func TestPlanner_ScheduleWithoutDemandIsNoOrders(t *testing.T) {
	store := fixtures.SeededStore(fixtures.MustStock(1, 100, 100, entities.Closed))
	planner := newTestPlanner(store, fixtures.PlainPolicy())

	sched, err := planner.Schedule(context.Background(), 2, entities.VariantQuantities{})
	require.NoError(t, err)
	assert.True(t, sched.NoOrders)
	assert.True(t, sched.Produce.IsZero())
	assert.True(t, sched.Materials.IsZero())
}

func TestPlanner_ScheduleAdjustsForFinishedGoods(t *testing.T) {
	store := fixtures.SeededStore(
		fixtures.MustStock(1, 100, 100, entities.Closed),
		fixtures.MustDemand(2, 28, 0, 3),
	)
	planner := newTestPlanner(store, fixtures.PlainPolicy())

	sched, err := planner.Schedule(context.Background(), 2, entities.VariantQuantities{Single: 5, King: 5})
	require.NoError(t, err)
	assert.False(t, sched.NoOrders)
	assert.Equal(t, entities.VariantQuantities{Single: 28, King: 3}, sched.Required)
	assert.Equal(t, entities.VariantQuantities{Single: 23}, sched.Produce)
	assert.True(t, sched.Materials.Equal(entities.MaterialsFromFloat(46, 23)),
		"Expected 46/23, got %s", sched.Materials)
}

func TestPlanner_ScheduleInsufficientHistory(t *testing.T) {
	store := fixtures.SeededStore(
		fixtures.MustStock(1, 100, 100, entities.Closed),
		fixtures.MustDemand(1, 10, 0, 0),
		fixtures.MustDemand(2, 20, 0, 0),
	)
	policy := fixtures.PlainPolicy()
	policy.Lookback = 4
	planner := newTestPlanner(store, policy)

	sched, err := planner.Schedule(context.Background(), 2, entities.VariantQuantities{})
	var insufficient *planning.InsufficientHistoryError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 2, insufficient.Have)
	assert.Equal(t, 4, insufficient.Need)

	assert.True(t, sched.InsufficientHistory)
	assert.True(t, sched.Produce.IsZero())
	assert.True(t, sched.Materials.Equal(entities.MaterialsFromFloat(40, 20)),
		"Expected demand-only 40/20, got %s", sched.Materials)
}

func TestPlanner_ProjectConsumesTodaysDemandNotProduction(t *testing.T) {
	// Reserve lifts production to 6 units; only the 5 sold are consumed.
	store := fixtures.SeededStore(
		fixtures.MustStock(1, 100, 100, entities.Closed),
		fixtures.MustDemand(1, 5, 0, 0),
	)
	planner := newTestPlanner(store, planning.DefaultPolicy())

	proj, err := planner.Project(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, entities.VariantQuantities{Single: 6}, proj.TodaySchedule.Produce)
	assert.True(t, proj.Used.Equal(entities.MaterialsFromFloat(10, 5)),
		"Expected 10/5 used, got %s", proj.Used)
	assert.True(t, proj.StockAfterToday.Equal(entities.MaterialsFromFloat(90, 95)),
		"Expected 90/95 after today, got %s", proj.StockAfterToday)
	assert.Equal(t, entities.VariantQuantities{Single: 1}, proj.FinishedAfter)
}

func TestPlanner_ProjectFlagsShortHistory(t *testing.T) {
	store := fixtures.SeededStore(
		fixtures.MustStock(1, 100, 100, entities.Closed),
		fixtures.MustDemand(1, 5, 0, 0),
		fixtures.MustDemand(2, 10, 0, 0),
	)
	policy := fixtures.PlainPolicy()
	policy.Lookback = 4
	planner := newTestPlanner(store, policy)

	proj, err := planner.Project(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, proj.TodaySchedule.InsufficientHistory)
	assert.True(t, proj.TomorrowSchedule.InsufficientHistory)
	assert.True(t, proj.Used.Equal(entities.MaterialsFromFloat(10, 5)))
	assert.True(t, proj.FinishedAfter.IsZero())
	assert.True(t, proj.TomorrowSchedule.Materials.Equal(entities.MaterialsFromFloat(20, 10)),
		"Expected demand-only 20/10, got %s", proj.TomorrowSchedule.Materials)
	assert.True(t, proj.TomorrowFeasible.Feasible)

	short := proj.TomorrowSchedule.HistoryShortfall()
	require.NotNil(t, short)
	assert.Equal(t, 2, short.Have)
	assert.Equal(t, 4, short.Need)
}

func TestPlanner_ProjectChecksTomorrowAgainstStockAfterToday(t *testing.T) {
	// Today's usage leaves 90/95; tomorrow needs 100/50.
	store := fixtures.SeededStore(
		fixtures.MustStock(1, 100, 100, entities.Closed),
		fixtures.MustDemand(1, 5, 0, 0),
		fixtures.MustDemand(2, 50, 0, 0),
	)
	planner := newTestPlanner(store, fixtures.PlainPolicy())

	proj, err := planner.Project(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, entities.Period(2), proj.Tomorrow)
	assert.True(t, proj.StockAfterToday.Equal(entities.MaterialsFromFloat(90, 95)),
		"Expected 90/95 after today, got %s", proj.StockAfterToday)
	assert.True(t, proj.Overdraw.IsZero())
	assert.True(t, proj.FinishedAfter.IsZero())
	assert.False(t, proj.TomorrowFeasible.Feasible)
	assert.True(t, proj.TomorrowFeasible.Shortfall.Equal(entities.MaterialsFromFloat(10, 0)),
		"Expected shortfall 10/0, got %s", proj.TomorrowFeasible.Shortfall)
}

func TestPlanner_ProjectWithoutFinishedGoodsLedger(t *testing.T) {
	store := fixtures.SeededStore(fixtures.MustStock(3, 10, 10, entities.Closed))
	planner := newTestPlanner(store, fixtures.PlainPolicy())

	proj, err := planner.Project(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, entities.Period(3), proj.Finished.Period)
	assert.True(t, proj.TodaySchedule.NoOrders)
	assert.True(t, proj.TomorrowSchedule.NoOrders)
	assert.True(t, proj.TomorrowFeasible.Feasible)
}

func TestPlanner_ProjectSurfacesStoreFailure(t *testing.T) {
	failing := &fixtures.FailingStore{Inner: fixtures.SeededStore(fixtures.MustStock(1, 1, 1, entities.Closed))}
	planner := newTestPlanner(failing.Store(), fixtures.PlainPolicy())
	failing.Failing = true

	_, err := planner.Project(context.Background(), 1)
	require.Error(t, err)
	if !errors.Is(err, repositories.ErrStoreUnavailable) {
		t.Fatalf("Expected ErrStoreUnavailable, got %v", err)
	}
}

func TestFinishedAfter(t *testing.T) {
	tests := []struct {
		name     string
		onHand   entities.VariantQuantities
		produced entities.VariantQuantities
		sold     entities.VariantQuantities
		expected entities.VariantQuantities
	}{
		{"balanced", entities.VariantQuantities{}, entities.VariantQuantities{Single: 5}, entities.VariantQuantities{Single: 5}, entities.VariantQuantities{}},
		{"surplus", entities.VariantQuantities{Double: 2}, entities.VariantQuantities{Double: 3}, entities.VariantQuantities{Double: 1}, entities.VariantQuantities{Double: 4}},
		{"oversold clamps", entities.VariantQuantities{}, entities.VariantQuantities{King: 1}, entities.VariantQuantities{King: 4}, entities.VariantQuantities{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FinishedAfter(tt.onHand, tt.produced, tt.sold)
			if got != tt.expected {
				t.Errorf("Expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestPlanner_Overview(t *testing.T) {
	store := fixtures.SeededStore(
		fixtures.MustStock(3, 100, 100, entities.Closed),
		fixtures.MustDemand(3, 1, 1, 1),
		fixtures.MustDemand(4, 5, 0, 0),
	)
	planner := newTestPlanner(store, fixtures.PlainPolicy())

	overview, err := planner.Overview(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, entities.Period(3), overview.Today)
	require.NotNil(t, overview.TodayDemand)
	require.NotNil(t, overview.TomorrowDemand)
	assert.Equal(t, entities.Quantity(5), overview.TomorrowDemand.Quantities.Single)
	assert.Equal(t, entities.Period(3), overview.Finished.Period)

	missing, err := planner.Demand(context.Background(), 10)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
