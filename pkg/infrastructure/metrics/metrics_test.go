package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/infrastructure/events"
)

func TestCollector_CountsPlanningEvents(t *testing.T) {
	collector := NewCollector()
	journal := events.NewJournal(nil)
	collector.Subscribe(journal)

	record := entities.DemandRecord{Period: 2, Quantities: entities.VariantQuantities{Single: 5}}
	order := entities.MaterialOrder{
		ID:         "order-1",
		Period:     2,
		Quantities: entities.MaterialsFromFloat(12.5, 3),
		PlacedAt:   time.Now(),
	}
	closed := events.DayClosed{
		Closed:   1,
		Stock:    entities.StockSnapshot{Period: 2, Materials: entities.MaterialsFromFloat(90, 95)},
		Finished: entities.FinishedGoodsSnapshot{Period: 2, Units: entities.VariantQuantities{King: 4}},
	}

	require.NoError(t, journal.Publish(events.NewDemandRecordedEvent(record)))
	require.NoError(t, journal.Publish(events.NewDemandUpdatedEvent(record, record)))
	require.NoError(t, journal.Publish(events.NewMaterialsOrderedEvent(order, entities.MaterialsFromFloat(20, 20))))
	require.NoError(t, journal.Publish(events.NewDayCloseRefusedEvent(2, entities.Materials{})))
	require.NoError(t, journal.Publish(events.NewDayClosedEvent(closed)))

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.demandWrites.WithLabelValues("recorded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.demandWrites.WithLabelValues("updated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.ordersPlaced))
	assert.Equal(t, 12.5, testutil.ToFloat64(collector.materialOrdered.WithLabelValues("Cotton")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.closesRefused))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.daysClosed))
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.currentPeriod))
	assert.Equal(t, 95.0, testutil.ToFloat64(collector.stockLevel.WithLabelValues("Fibre")))
	assert.Equal(t, 4.0, testutil.ToFloat64(collector.finishedUnits.WithLabelValues("King")))

	families, err := collector.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestCollector_RejectsForeignPayload(t *testing.T) {
	collector := NewCollector()
	err := collector.Handle(events.NewEvent(events.DayClosedEvent, "period-1", "not a payload"))
	assert.Error(t, err)
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector()
	collector.SetCurrentPeriod(7)

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "quiltplan_current_period 7"))
}
