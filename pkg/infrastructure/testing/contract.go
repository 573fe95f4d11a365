// Package testing holds the behaviour every store backend must share. Each
// backend's tests run RunStoreContract against a fresh store.
package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/domain/repositories"
)

// StoreFactory returns an empty store; it is called once per subtest
type StoreFactory func(t *testing.T) repositories.Store

func demand(period int, single entities.Quantity) entities.DemandRecord {
	return entities.DemandRecord{
		Period:     entities.Period(period),
		Quantities: entities.VariantQuantities{Single: single},
	}
}

func stock(period int, cotton, fibre float64, status entities.StockStatus) entities.StockSnapshot {
	return entities.StockSnapshot{
		Period:    entities.Period(period),
		Materials: entities.MaterialsFromFloat(cotton, fibre),
		Status:    status,
	}
}

// RunStoreContract checks the ledger rules: one demand record per period,
// ascending reads, ErrNoSnapshot on empty ledgers, same-period supersede and
// rejection of appends behind the tail.
func RunStoreContract(t *testing.T, newStore StoreFactory) {
	t.Run("DemandUpsertReplacesSamePeriod", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		updated, err := store.Demand.Upsert(ctx, demand(2, 5))
		require.NoError(t, err)
		assert.False(t, updated)

		updated, err = store.Demand.Upsert(ctx, demand(2, 7))
		require.NoError(t, err)
		assert.True(t, updated)

		record, found, err := store.Demand.Get(ctx, 2)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, entities.Quantity(7), record.Quantities.Single)

		_, found, err = store.Demand.Get(ctx, 3)
		require.NoError(t, err)
		assert.False(t, found)

		all, err := store.Demand.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("DemandRecentIsAscendingTail", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		for _, p := range []int{4, 1, 3, 2, 6} {
			_, err := store.Demand.Upsert(ctx, demand(p, entities.Quantity(p*10)))
			require.NoError(t, err)
		}

		recent, err := store.Demand.Recent(ctx, 4, 3)
		require.NoError(t, err)
		require.Len(t, recent, 3)
		for i, want := range []entities.Period{2, 3, 4} {
			assert.Equal(t, want, recent[i].Period)
		}

		recent, err = store.Demand.Recent(ctx, 1, 4)
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, entities.Quantity(10), recent[0].Quantities.Single)

		all, err := store.Demand.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 5)
		assert.Equal(t, entities.Period(6), all[4].Period)
	})

	t.Run("LatestOnEmptyLedger", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Stock.Latest(context.Background())
		assert.ErrorIs(t, err, repositories.ErrNoSnapshot)
		_, err = store.Finished.Latest(context.Background())
		assert.ErrorIs(t, err, repositories.ErrNoSnapshot)
	})

	t.Run("StockAppendSupersedesTail", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		require.NoError(t, store.Stock.Append(ctx, stock(1, 100, 100, entities.Closed)))
		require.NoError(t, store.Stock.Append(ctx, stock(1, 110.5, 55, entities.Open)))
		require.NoError(t, store.Stock.Append(ctx, stock(2, 90, 95, entities.Closed)))

		all, err := store.Stock.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.True(t, all[0].Materials.Equal(entities.MaterialsFromFloat(110.5, 55)),
			"Expected superseded snapshot 110.5/55, got %s", all[0].Materials)
		assert.Equal(t, entities.Open, all[0].Status)

		latest, err := store.Stock.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, entities.Period(2), latest.Period)
		assert.Equal(t, entities.Closed, latest.Status)
	})

	t.Run("StockAppendRejectsOlderPeriod", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		require.NoError(t, store.Stock.Append(ctx, stock(5, 10, 10, entities.Closed)))

		err := store.Stock.Append(ctx, stock(4, 10, 10, entities.Closed))
		var ooo *repositories.OutOfOrderError
		require.ErrorAs(t, err, &ooo)
		assert.NotErrorIs(t, err, repositories.ErrStoreUnavailable)

		latest, err := store.Stock.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, entities.Period(5), latest.Period)
	})

	t.Run("FinishedAppend", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		first := entities.FinishedGoodsSnapshot{Period: 2, Units: entities.VariantQuantities{Single: 3}}
		second := entities.FinishedGoodsSnapshot{Period: 3, Units: entities.VariantQuantities{King: 1}}
		require.NoError(t, store.Finished.Append(ctx, first))
		require.NoError(t, store.Finished.Append(ctx, second))

		err := store.Finished.Append(ctx, first)
		var ooo *repositories.OutOfOrderError
		require.ErrorAs(t, err, &ooo)

		latest, err := store.Finished.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, second, *latest)

		all, err := store.Finished.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, []entities.FinishedGoodsSnapshot{first, second}, all)
	})
}
