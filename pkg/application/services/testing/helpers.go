package testing

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/domain/repositories"
	"github.com/vsinha/quiltplan/pkg/domain/services/planning"
	"github.com/vsinha/quiltplan/pkg/infrastructure/repositories/memory"
)

// ErrInjected is the cause carried by every FailingStore failure
var ErrInjected = errors.New("injected store failure")

// MustDemand is a helper for tests - panics on validation error
func MustDemand(period int, single, double, king entities.Quantity) entities.DemandRecord {
	record, err := entities.NewDemandRecord(entities.Period(period), entities.VariantQuantities{
		Single: single,
		Double: double,
		King:   king,
	})
	if err != nil {
		panic(err)
	}
	return *record
}

// MustStock is a helper for tests - panics on validation error
func MustStock(period int, cotton, fibre float64, status entities.StockStatus) entities.StockSnapshot {
	snapshot, err := entities.NewStockSnapshot(entities.Period(period), entities.MaterialsFromFloat(cotton, fibre), status)
	if err != nil {
		panic(err)
	}
	return *snapshot
}

// MustUsage builds a usage repository from cotton/fibre pairs for Single, Double and King
func MustUsage(single, double, king [2]float64) *memory.UsageRepository {
	pairs := [][2]float64{single, double, king}
	rates := make([]entities.UsageRate, 0, len(pairs))
	for i, v := range entities.AllVariants() {
		rate, err := entities.NewUsageRate(v,
			decimal.NewFromFloat(pairs[i][0]), decimal.NewFromFloat(pairs[i][1]))
		if err != nil {
			panic(err)
		}
		rates = append(rates, *rate)
	}
	repo, err := memory.NewUsageRepository(rates)
	if err != nil {
		panic(err)
	}
	return repo
}

// FlatUsage uses 2m cotton and 1kg fibre for every variant
func FlatUsage() *memory.UsageRepository {
	return MustUsage([2]float64{2, 1}, [2]float64{2, 1}, [2]float64{2, 1})
}

// PlainPolicy plans from the latest record with no reserve and no buffer
func PlainPolicy() planning.Policy {
	return planning.Policy{
		Lookback:        1,
		ReserveFraction: decimal.Zero,
		BufferFraction:  decimal.Zero,
	}
}

// MustEngine is a helper for tests - panics on validation error
func MustEngine(policy planning.Policy) *planning.Engine {
	engine, err := planning.NewEngine(policy)
	if err != nil {
		panic(err)
	}
	return engine
}

// SeededStore returns an in-memory store holding one stock snapshot and the given demand
func SeededStore(stock entities.StockSnapshot, demand ...entities.DemandRecord) repositories.Store {
	ctx := context.Background()
	store := memory.NewStore()
	if err := store.Stock.Append(ctx, stock); err != nil {
		panic(err)
	}
	for _, record := range demand {
		if _, err := store.Demand.Upsert(ctx, record); err != nil {
			panic(err)
		}
	}
	return store
}

// FailingStore wraps a store; while Failing is set every call fails with a StoreError
type FailingStore struct {
	Inner   repositories.Store
	Failing bool
}

// Store exposes the wrapper as a repositories.Store
func (f *FailingStore) Store() repositories.Store {
	return repositories.Store{
		Demand:   &failingDemand{f},
		Stock:    &failingStock{f},
		Finished: &failingFinished{f},
		Close:    f.Inner.Close,
	}
}

func (f *FailingStore) fail(op string) error {
	if f.Failing {
		return repositories.Unavailable(op, ErrInjected)
	}
	return nil
}

type failingDemand struct{ f *FailingStore }

func (d *failingDemand) Get(ctx context.Context, period entities.Period) (*entities.DemandRecord, bool, error) {
	if err := d.f.fail("demand get"); err != nil {
		return nil, false, err
	}
	return d.f.Inner.Demand.Get(ctx, period)
}

func (d *failingDemand) Upsert(ctx context.Context, record entities.DemandRecord) (bool, error) {
	if err := d.f.fail("demand upsert"); err != nil {
		return false, err
	}
	return d.f.Inner.Demand.Upsert(ctx, record)
}

func (d *failingDemand) Recent(ctx context.Context, upTo entities.Period, n int) ([]entities.DemandRecord, error) {
	if err := d.f.fail("demand recent"); err != nil {
		return nil, err
	}
	return d.f.Inner.Demand.Recent(ctx, upTo, n)
}

func (d *failingDemand) All(ctx context.Context) ([]entities.DemandRecord, error) {
	if err := d.f.fail("demand all"); err != nil {
		return nil, err
	}
	return d.f.Inner.Demand.All(ctx)
}

type failingStock struct{ f *FailingStore }

func (s *failingStock) Latest(ctx context.Context) (*entities.StockSnapshot, error) {
	if err := s.f.fail("stock latest"); err != nil {
		return nil, err
	}
	return s.f.Inner.Stock.Latest(ctx)
}

func (s *failingStock) Append(ctx context.Context, snapshot entities.StockSnapshot) error {
	if err := s.f.fail("stock append"); err != nil {
		return err
	}
	return s.f.Inner.Stock.Append(ctx, snapshot)
}

func (s *failingStock) All(ctx context.Context) ([]entities.StockSnapshot, error) {
	if err := s.f.fail("stock all"); err != nil {
		return nil, err
	}
	return s.f.Inner.Stock.All(ctx)
}

type failingFinished struct{ f *FailingStore }

func (g *failingFinished) Latest(ctx context.Context) (*entities.FinishedGoodsSnapshot, error) {
	if err := g.f.fail("finished latest"); err != nil {
		return nil, err
	}
	return g.f.Inner.Finished.Latest(ctx)
}

func (g *failingFinished) Append(ctx context.Context, snapshot entities.FinishedGoodsSnapshot) error {
	if err := g.f.fail("finished append"); err != nil {
		return err
	}
	return g.f.Inner.Finished.Append(ctx, snapshot)
}

func (g *failingFinished) All(ctx context.Context) ([]entities.FinishedGoodsSnapshot, error) {
	if err := g.f.fail("finished all"); err != nil {
		return nil, err
	}
	return g.f.Inner.Finished.All(ctx)
}

var (
	_ repositories.DemandRepository        = (*failingDemand)(nil)
	_ repositories.StockRepository         = (*failingStock)(nil)
	_ repositories.FinishedGoodsRepository = (*failingFinished)(nil)
)
