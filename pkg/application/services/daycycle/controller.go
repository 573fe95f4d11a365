// Package daycycle sequences the planning operations across one simulated
// period: record demand, review requirements, order materials and close.
package daycycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vsinha/quiltplan/pkg/application/dto"
	"github.com/vsinha/quiltplan/pkg/application/services/scheduling"
	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/domain/repositories"
	"github.com/vsinha/quiltplan/pkg/infrastructure/events"
)

// Options configures a Controller
type Options struct {
	Unit entities.PeriodUnit
	// StartPeriod and InitialStock seed an empty stock ledger
	StartPeriod  entities.Period
	InitialStock entities.Materials
	Now          func() time.Time
}

// Controller owns the simulated clock and the per-run "already ordered" flag.
// Everything else lives in the store and is re-read by each operation.
type Controller struct {
	planner  *scheduling.Planner
	demand   repositories.DemandRepository
	stock    repositories.StockRepository
	finished repositories.FinishedGoodsRepository
	events   events.Publisher
	logger   *slog.Logger
	opts     Options

	state      State
	started    bool
	today      entities.Period
	orderedFor *entities.Period
	orders     []entities.MaterialOrder
}

// NewController creates a controller; the clock is read from the stock ledger on first use
func NewController(
	planner *scheduling.Planner,
	store repositories.Store,
	publisher events.Publisher,
	logger *slog.Logger,
	opts Options,
) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		planner:  planner,
		demand:   store.Demand,
		stock:    store.Stock,
		finished: store.Finished,
		events:   publisher,
		logger:   logger,
		opts:     opts,
		state:    AwaitingInput,
	}
}

// Start sets the clock to the latest stock snapshot's period, seeding the
// ledger with the initial stock when it is empty. Operations call it lazily.
func (c *Controller) Start(ctx context.Context) error {
	if c.state == Terminated {
		return ErrTerminated
	}
	if c.started {
		return nil
	}

	latest, err := c.stock.Latest(ctx)
	switch {
	case errors.Is(err, repositories.ErrNoSnapshot):
		snapshot, err := entities.NewStockSnapshot(c.opts.StartPeriod, c.opts.InitialStock, entities.Closed)
		if err != nil {
			return fmt.Errorf("invalid initial stock: %w", err)
		}
		if err := c.stock.Append(ctx, *snapshot); err != nil {
			return fmt.Errorf("failed to seed stock ledger: %w", err)
		}
		c.today = snapshot.Period
		c.logger.Info("stock ledger seeded",
			"period", int(snapshot.Period),
			"stock", snapshot.Materials.String())
	case err != nil:
		return fmt.Errorf("failed to read current stock: %w", err)
	default:
		c.today = latest.Period
	}

	c.started = true
	c.logger.Info("day cycle started", "today", c.opts.Unit.Label(c.today))
	return nil
}

// State returns the current state
func (c *Controller) State() State {
	return c.state
}

// Today returns the current period of the simulated clock
func (c *Controller) Today() entities.Period {
	return c.today
}

// Unit returns what one period represents
func (c *Controller) Unit() entities.PeriodUnit {
	return c.opts.Unit
}

// Orders returns the material orders placed during this run
func (c *Controller) Orders() []entities.MaterialOrder {
	return append([]entities.MaterialOrder(nil), c.orders...)
}

// enter moves into an operation state; the returned func moves back to AwaitingInput
func (c *Controller) enter(ctx context.Context, state State) (func(), error) {
	if c.state == Terminated {
		return nil, ErrTerminated
	}
	if err := c.Start(ctx); err != nil {
		return nil, err
	}
	c.state = state
	c.logger.Debug("state transition", "state", state.String(), "today", int(c.today))
	return func() {
		if c.state != Terminated {
			c.state = AwaitingInput
		}
	}, nil
}

func (c *Controller) publish(event events.Event) {
	if c.events == nil {
		return
	}
	if err := c.events.Publish(event); err != nil {
		c.logger.Error("failed to publish event", "event_type", event.Type, "error", err)
	}
}

// Overview reads the current stock, finished goods and the demand for today and tomorrow
func (c *Controller) Overview(ctx context.Context) (*dto.Overview, error) {
	done, err := c.enter(ctx, View)
	if err != nil {
		return nil, err
	}
	defer done()

	overview, err := c.planner.Overview(ctx, c.today)
	if err != nil {
		return nil, err
	}
	overview.Unit = c.opts.Unit
	if c.orderedFor != nil {
		period := *c.orderedFor
		overview.OrderedFor = &period
	}
	return overview, nil
}

// EditDemand records the demand for the next period, replacing any record already there
func (c *Controller) EditDemand(ctx context.Context, quantities entities.VariantQuantities) (*dto.DemandResult, error) {
	done, err := c.enter(ctx, EditDemand)
	if err != nil {
		return nil, err
	}
	defer done()

	record, err := entities.NewDemandRecord(c.today.Next(), quantities)
	if err != nil {
		return nil, err
	}
	previous, err := c.planner.Demand(ctx, record.Period)
	if err != nil {
		return nil, err
	}
	updated, err := c.demand.Upsert(ctx, *record)
	if err != nil {
		return nil, fmt.Errorf("failed to save demand for period %d: %w", record.Period, err)
	}

	if updated && previous != nil {
		c.publish(events.NewDemandUpdatedEvent(*previous, *record))
	} else {
		c.publish(events.NewDemandRecordedEvent(*record))
	}
	c.logger.Info("demand saved",
		"period", int(record.Period),
		"updated", updated,
		"single", uint64(quantities.Single),
		"double", uint64(quantities.Double),
		"king", uint64(quantities.King))

	return &dto.DemandResult{Record: *record, Updated: updated}, nil
}

// ViewSchedule computes the next period's schedule against the finished goods
// projected to remain after today. It never writes, and computes nothing when
// the next period has no demand.
func (c *Controller) ViewSchedule(ctx context.Context) (*dto.DaySchedule, error) {
	done, err := c.enter(ctx, ViewSchedule)
	if err != nil {
		return nil, err
	}
	defer done()

	tomorrow := c.today.Next()
	record, err := c.planner.Demand(ctx, tomorrow)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return &dto.DaySchedule{
			Period:    tomorrow,
			NoOrders:  true,
			Lookback:  c.planner.Engine().Policy().Lookback,
			Materials: entities.MaterialsFromFloat(0, 0),
		}, nil
	}

	proj, err := c.planner.Project(ctx, c.today)
	if err != nil {
		return nil, err
	}
	sched := proj.TomorrowSchedule
	return &sched, nil
}

// OrderMaterials tops stock up so that what remains after today covers the
// next period's requirement plus the buffer. At most one order is placed per
// pending period in a run.
func (c *Controller) OrderMaterials(ctx context.Context) (*dto.OrderResult, error) {
	done, err := c.enter(ctx, OrderMaterials)
	if err != nil {
		return nil, err
	}
	defer done()

	tomorrow := c.today.Next()
	if c.orderedFor != nil && *c.orderedFor == tomorrow {
		c.logger.Info("materials already ordered", "period", int(tomorrow))
		return &dto.OrderResult{Period: tomorrow, AlreadyOrdered: true}, nil
	}

	proj, err := c.planner.Project(ctx, c.today)
	if err != nil {
		return nil, err
	}
	result := &dto.OrderResult{
		Period:     tomorrow,
		NoOrders:   proj.TomorrowSchedule.NoOrders,
		Required:   proj.TomorrowSchedule.Materials,
		StockAfter: proj.Stock.Materials,
	}
	result.NoProjection = proj.TomorrowSchedule.HistoryShortfall()
	if result.NoOrders {
		return result, nil
	}

	// Stock lost to today's overdraw is ordered on top so the close sees the full quantity.
	quantity := c.planner.Engine().ReorderQuantity(proj.TomorrowSchedule.Materials, proj.StockAfterToday).Add(proj.Overdraw)
	result.Ordered = quantity
	if quantity.IsZero() {
		c.logger.Info("stock already covers next period", "period", int(tomorrow))
		return result, nil
	}

	order, err := entities.NewMaterialOrder(tomorrow, quantity, c.opts.Now())
	if err != nil {
		return nil, err
	}
	topped, err := entities.NewStockSnapshot(c.today, proj.Stock.Materials.Add(quantity), entities.Open)
	if err != nil {
		return nil, err
	}
	if err := c.stock.Append(ctx, *topped); err != nil {
		return nil, fmt.Errorf("failed to record material order: %w", err)
	}

	c.orderedFor = &tomorrow
	c.orders = append(c.orders, *order)
	result.StockAfter = topped.Materials
	result.Order = order

	c.publish(events.NewMaterialsOrderedEvent(*order, topped.Materials))
	c.logger.Info("materials ordered",
		"order_id", order.ID,
		"period", int(tomorrow),
		"cotton", quantity.Cotton.String(),
		"fibre", quantity.Fibre.String())
	return result, nil
}

// CloseDay commits today's consumption and advances the clock. It is refused
// with *InfeasibleError when the stock left after today cannot cover the next
// period's requirement.
func (c *Controller) CloseDay(ctx context.Context) (*dto.CloseResult, error) {
	done, err := c.enter(ctx, CloseDay)
	if err != nil {
		return nil, err
	}
	defer done()

	proj, err := c.planner.Project(ctx, c.today)
	if err != nil {
		return nil, err
	}

	if !proj.TomorrowFeasible.Feasible {
		c.publish(events.NewDayCloseRefusedEvent(proj.Tomorrow, proj.TomorrowFeasible.Shortfall))
		c.logger.Warn("close refused",
			"today", int(c.today),
			"shortfall", proj.TomorrowFeasible.Shortfall.String())
		return nil, &InfeasibleError{Period: proj.Tomorrow, Shortfall: proj.TomorrowFeasible.Shortfall}
	}

	noProjection := proj.TomorrowSchedule.HistoryShortfall()
	if noProjection != nil {
		c.logger.Warn("closing without a production projection",
			"period", int(proj.Tomorrow),
			"have", noProjection.Have,
			"need", noProjection.Need)
	}
	if !proj.Overdraw.IsZero() {
		c.logger.Warn("usage exceeded stock on hand; deficit dropped",
			"period", int(c.today),
			"overdraw", proj.Overdraw.String())
	}

	finished, err := entities.NewFinishedGoodsSnapshot(proj.Tomorrow, proj.FinishedAfter)
	if err != nil {
		return nil, err
	}
	stock, err := entities.NewStockSnapshot(proj.Tomorrow, proj.StockAfterToday, entities.Closed)
	if err != nil {
		return nil, err
	}
	// The stock tail is the clock, so it is written last.
	if err := c.finished.Append(ctx, *finished); err != nil {
		return nil, fmt.Errorf("failed to record finished goods: %w", err)
	}
	if err := c.stock.Append(ctx, *stock); err != nil {
		return nil, fmt.Errorf("failed to record closing stock: %w", err)
	}

	closed := c.today
	c.today = proj.Tomorrow
	c.orderedFor = nil

	c.publish(events.NewDayClosedEvent(events.DayClosed{
		Closed:   closed,
		Used:     proj.Used,
		Overdraw: proj.Overdraw,
		Stock:    *stock,
		Finished: *finished,
	}))
	c.logger.Info("day closed",
		"closed", int(closed),
		"today", int(c.today),
		"stock", stock.Materials.String())

	return &dto.CloseResult{
		Closed:       closed,
		NewPeriod:    c.today,
		Used:         proj.Used,
		Overdraw:     proj.Overdraw,
		Stock:        *stock,
		Finished:     *finished,
		NoProjection: noProjection,
	}, nil
}

// Exit terminates the cycle; every later operation returns ErrTerminated
func (c *Controller) Exit() {
	if c.state != Terminated {
		c.logger.Info("day cycle terminated", "today", int(c.today))
	}
	c.state = Terminated
}
