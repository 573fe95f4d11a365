// Package scheduling joins the planning engine with the stores: it reads
// demand, stock and finished goods and turns them into day schedules and
// the today/tomorrow projection the day cycle is gated on.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vsinha/quiltplan/pkg/application/dto"
	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/domain/repositories"
	"github.com/vsinha/quiltplan/pkg/domain/services/planning"
)

// Planner builds schedules from store reads. It holds no state of its own.
type Planner struct {
	engine   *planning.Engine
	demand   repositories.DemandRepository
	stock    repositories.StockRepository
	finished repositories.FinishedGoodsRepository
	usage    repositories.UsageRepository
	logger   *slog.Logger
}

// NewPlanner creates a planner over the given store
func NewPlanner(
	engine *planning.Engine,
	store repositories.Store,
	usage repositories.UsageRepository,
	logger *slog.Logger,
) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		engine:   engine,
		demand:   store.Demand,
		stock:    store.Stock,
		finished: store.Finished,
		usage:    usage,
		logger:   logger,
	}
}

// Engine returns the planning engine in use
func (p *Planner) Engine() *planning.Engine {
	return p.engine
}

// Schedule computes the production schedule for period given finished units on hand.
// A period without demand yields a NoOrders schedule; too little history yields
// the demand-only schedule together with *planning.InsufficientHistoryError.
func (p *Planner) Schedule(ctx context.Context, period entities.Period, onHand entities.VariantQuantities) (dto.DaySchedule, error) {
	rates, err := p.usage.Rates(ctx)
	if err != nil {
		return dto.DaySchedule{}, fmt.Errorf("failed to load usage rates: %w", err)
	}
	sched, err := p.schedule(ctx, period, onHand, rates)
	if err != nil {
		return sched, err
	}
	return sched, sched.HistoryError()
}

func (p *Planner) schedule(
	ctx context.Context,
	period entities.Period,
	onHand entities.VariantQuantities,
	rates entities.UsageTable,
) (dto.DaySchedule, error) {
	lookback := p.engine.Policy().Lookback
	sched := dto.DaySchedule{
		Period:    period,
		Lookback:  lookback,
		Materials: entities.MaterialsFromFloat(0, 0),
	}

	record, found, err := p.demand.Get(ctx, period)
	if err != nil {
		return sched, fmt.Errorf("failed to read demand for period %d: %w", period, err)
	}
	if !found {
		sched.NoOrders = true
		return sched, nil
	}
	sched.Demand = record.Quantities

	history, err := p.demand.Recent(ctx, period, lookback)
	if err != nil {
		return sched, fmt.Errorf("failed to read demand history up to period %d: %w", period, err)
	}
	sched.History = history

	required, err := p.engine.RequiredOutput(history)
	var insufficient *planning.InsufficientHistoryError
	if errors.As(err, &insufficient) {
		sched.InsufficientHistory = true
		sched.Materials = planning.MaterialRequirement(sched.Demand, rates)
		p.logger.Debug("schedule without production numbers",
			"period", int(period),
			"have", insufficient.Have,
			"need", insufficient.Need)
		return sched, nil
	}
	if err != nil {
		return sched, err
	}
	sched.Required = required
	sched.Produce = planning.AdjustForStock(required, onHand)
	sched.Materials = planning.MaterialRequirement(sched.Produce, rates)

	p.logger.Debug("schedule computed",
		"period", int(period),
		"required", required.Total(),
		"produce", sched.Produce.Total(),
		"cotton", sched.Materials.Cotton.String(),
		"fibre", sched.Materials.Fibre.String())
	return sched, nil
}

// LatestStock reads the current stock snapshot
func (p *Planner) LatestStock(ctx context.Context) (*entities.StockSnapshot, error) {
	stock, err := p.stock.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read current stock: %w", err)
	}
	return stock, nil
}

// StockHistory returns every stock snapshot in period order
func (p *Planner) StockHistory(ctx context.Context) ([]entities.StockSnapshot, error) {
	history, err := p.stock.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stock history: %w", err)
	}
	return history, nil
}

// LatestFinished reads the finished-goods snapshot current at period; an
// empty ledger counts as zero units.
func (p *Planner) LatestFinished(ctx context.Context, period entities.Period) (entities.FinishedGoodsSnapshot, error) {
	finished, err := p.finished.Latest(ctx)
	if errors.Is(err, repositories.ErrNoSnapshot) {
		return entities.FinishedGoodsSnapshot{Period: period}, nil
	}
	if err != nil {
		return entities.FinishedGoodsSnapshot{}, fmt.Errorf("failed to read finished goods: %w", err)
	}
	if !period.Before(finished.Period) {
		return *finished, nil
	}

	// A close interrupted between its two appends leaves the finished-goods
	// tail one period ahead of the stock tail.
	all, err := p.finished.All(ctx)
	if err != nil {
		return entities.FinishedGoodsSnapshot{}, fmt.Errorf("failed to read finished goods: %w", err)
	}
	current := entities.FinishedGoodsSnapshot{Period: period}
	for _, snapshot := range all {
		if !period.Before(snapshot.Period) {
			current = snapshot
		}
	}
	p.logger.Warn("finished goods ledger ahead of clock",
		"today", int(period),
		"tail", int(finished.Period))
	return current, nil
}

// Demand returns the record for period, or nil when none was recorded
func (p *Planner) Demand(ctx context.Context, period entities.Period) (*entities.DemandRecord, error) {
	record, found, err := p.demand.Get(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to read demand for period %d: %w", period, err)
	}
	if !found {
		return nil, nil
	}
	return record, nil
}

// Overview reads current stock, finished goods and the demand for today and tomorrow
func (p *Planner) Overview(ctx context.Context, today entities.Period) (*dto.Overview, error) {
	stock, err := p.LatestStock(ctx)
	if err != nil {
		return nil, err
	}
	finished, err := p.LatestFinished(ctx, today)
	if err != nil {
		return nil, err
	}

	overview := &dto.Overview{
		Today:    today,
		Stock:    *stock,
		Finished: finished,
	}
	if overview.TodayDemand, err = p.Demand(ctx, today); err != nil {
		return nil, err
	}
	if overview.TomorrowDemand, err = p.Demand(ctx, today.Next()); err != nil {
		return nil, err
	}
	return overview, nil
}

// Project reads stock, finished goods and usage afresh and derives today's
// consumption, the stock and finished goods left after today, tomorrow's
// schedule and whether that stock covers it. Today's consumption is the
// material for today's demand. A schedule short of history is flagged on the
// projection rather than failing it.
func (p *Planner) Project(ctx context.Context, today entities.Period) (*dto.DayProjection, error) {
	stock, err := p.LatestStock(ctx)
	if err != nil {
		return nil, err
	}
	finished, err := p.LatestFinished(ctx, today)
	if err != nil {
		return nil, err
	}
	rates, err := p.usage.Rates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load usage rates: %w", err)
	}

	todaySched, err := p.schedule(ctx, today, finished.Units, rates)
	if err != nil {
		return nil, fmt.Errorf("today's schedule: %w", err)
	}

	used := planning.MaterialRequirement(todaySched.Demand, rates)
	produced := todaySched.Produce
	if todaySched.InsufficientHistory {
		produced = todaySched.Demand
	}
	proj := &dto.DayProjection{
		Today:           today,
		Tomorrow:        today.Next(),
		Stock:           *stock,
		Finished:        finished,
		TodaySchedule:   todaySched,
		Used:            used,
		StockAfterToday: planning.Deduct(stock.Materials, used),
		Overdraw:        planning.Overdraw(stock.Materials, used),
		FinishedAfter:   FinishedAfter(finished.Units, produced, todaySched.Demand),
	}

	tomorrowSched, err := p.schedule(ctx, proj.Tomorrow, proj.FinishedAfter, rates)
	if err != nil {
		return nil, fmt.Errorf("tomorrow's schedule: %w", err)
	}
	proj.TomorrowSchedule = tomorrowSched
	proj.TomorrowFeasible = planning.Feasibility(tomorrowSched.Materials, proj.StockAfterToday)

	return proj, nil
}

// FinishedAfter is onHand + produced - sold per variant, clamped at zero
func FinishedAfter(onHand, produced, sold entities.VariantQuantities) entities.VariantQuantities {
	var out entities.VariantQuantities
	for _, v := range entities.AllVariants() {
		available := onHand.Get(v) + produced.Get(v)
		if available > sold.Get(v) {
			out = out.Set(v, available-sold.Get(v))
		}
	}
	return out
}
