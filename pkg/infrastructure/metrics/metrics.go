// Package metrics exposes planning activity as Prometheus metrics. The
// collector subscribes to planning events and owns its registry, so several
// collectors can coexist in one process.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/infrastructure/events"
)

// Collector Prometheus metrics for the day cycle
type Collector struct {
	registry *prometheus.Registry

	daysClosed      prometheus.Counter
	closesRefused   prometheus.Counter
	ordersPlaced    prometheus.Counter
	demandWrites    *prometheus.CounterVec
	materialOrdered *prometheus.CounterVec

	currentPeriod prometheus.Gauge
	stockLevel    *prometheus.GaugeVec
	finishedUnits *prometheus.GaugeVec
}

// NewCollector creates a collector with its own registry
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		daysClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiltplan_days_closed_total",
			Help: "Total number of successfully closed periods",
		}),
		closesRefused: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiltplan_close_refused_total",
			Help: "Total number of closes refused for insufficient stock",
		}),
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiltplan_material_orders_total",
			Help: "Total number of raw material orders placed",
		}),
		demandWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiltplan_demand_writes_total",
			Help: "Demand records written, by kind (recorded or updated)",
		}, []string{"kind"}),
		materialOrdered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiltplan_material_ordered_total",
			Help: "Raw material ordered, in the material's unit",
		}, []string{"material"}),
		currentPeriod: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quiltplan_current_period",
			Help: "Current period of the simulated clock",
		}),
		stockLevel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "quiltplan_stock_level",
			Help: "Raw material stock after the last close, in the material's unit",
		}, []string{"material"}),
		finishedUnits: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "quiltplan_finished_units",
			Help: "Finished units on hand after the last close",
		}, []string{"variant"}),
	}

	c.registry.MustRegister(
		c.daysClosed,
		c.closesRefused,
		c.ordersPlaced,
		c.demandWrites,
		c.materialOrdered,
		c.currentPeriod,
		c.stockLevel,
		c.finishedUnits,
	)
	return c
}

// Registry returns the collector's registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// SetCurrentPeriod records the clock
func (c *Collector) SetCurrentPeriod(period entities.Period) {
	c.currentPeriod.Set(float64(period))
}

// SetStock records stock levels
func (c *Collector) SetStock(stock entities.Materials) {
	for _, m := range entities.AllMaterials() {
		c.stockLevel.WithLabelValues(m.String()).Set(stock.Get(m).InexactFloat64())
	}
}

// SetFinished records finished units per variant
func (c *Collector) SetFinished(units entities.VariantQuantities) {
	for _, v := range entities.AllVariants() {
		c.finishedUnits.WithLabelValues(v.String()).Set(float64(units.Get(v)))
	}
}

// Subscribe registers the collector for every planning event
func (c *Collector) Subscribe(journal *events.Journal) (cancel func()) {
	return journal.Subscribe(c, events.AllEventTypes()...)
}

var _ events.Handler = (*Collector)(nil)

// Handle updates metrics from a planning event
func (c *Collector) Handle(event events.Event) error {
	switch data := event.Payload.(type) {
	case events.DemandRecorded:
		c.demandWrites.WithLabelValues("recorded").Inc()
	case events.DemandUpdated:
		c.demandWrites.WithLabelValues("updated").Inc()
	case events.MaterialsOrdered:
		c.ordersPlaced.Inc()
		for _, m := range entities.AllMaterials() {
			c.materialOrdered.WithLabelValues(m.String()).Add(data.Order.Quantities.Get(m).InexactFloat64())
		}
		c.SetStock(data.StockAfter)
	case events.DayClosed:
		c.daysClosed.Inc()
		c.SetCurrentPeriod(data.Stock.Period)
		c.SetStock(data.Stock.Materials)
		c.SetFinished(data.Finished.Units)
	case events.DayCloseRefused:
		c.closesRefused.Inc()
	default:
		return fmt.Errorf("unexpected payload %T for event %s", data, event.Type)
	}
	return nil
}
