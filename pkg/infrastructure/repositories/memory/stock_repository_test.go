package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/domain/repositories"
)

func TestStockRepository_LatestOnEmptyLedger(t *testing.T) {
	repo := NewStockRepository()

	_, err := repo.Latest(context.Background())
	if !errors.Is(err, repositories.ErrNoSnapshot) {
		t.Fatalf("Expected ErrNoSnapshot, got %v", err)
	}
}

func TestStockRepository_AppendOrdering(t *testing.T) {
	ctx := context.Background()
	repo := NewStockRepository()

	steps := []struct {
		name      string
		snapshot  entities.StockSnapshot
		expectErr bool
	}{
		{"first", entities.StockSnapshot{Period: 1, Materials: entities.MaterialsFromFloat(100, 100), Status: entities.Closed}, false},
		{"next period", entities.StockSnapshot{Period: 2, Materials: entities.MaterialsFromFloat(90, 95), Status: entities.Closed}, false},
		{"same period supersedes", entities.StockSnapshot{Period: 2, Materials: entities.MaterialsFromFloat(120, 95), Status: entities.Open}, false},
		{"older period rejected", entities.StockSnapshot{Period: 1, Materials: entities.MaterialsFromFloat(1, 1), Status: entities.Closed}, true},
	}

	for _, step := range steps {
		err := repo.Append(ctx, step.snapshot)
		if step.expectErr && err == nil {
			t.Fatalf("%s: expected error, got none", step.name)
		}
		if !step.expectErr && err != nil {
			t.Fatalf("%s: unexpected error: %v", step.name, err)
		}
	}

	latest, err := repo.Latest(ctx)
	if err != nil {
		t.Fatalf("Failed to get latest stock: %v", err)
	}
	if latest.Period != 2 || latest.Status != entities.Open {
		t.Errorf("Expected superseding open snapshot for period 2, got period %d status %s", latest.Period, latest.Status)
	}
	if !latest.Materials.Equal(entities.MaterialsFromFloat(120, 95)) {
		t.Errorf("Expected 120/95, got %s", latest.Materials)
	}

	all, _ := repo.All(ctx)
	if len(all) != 2 {
		t.Errorf("Expected 2 snapshots after superseding, got %d", len(all))
	}
}

func TestFinishedGoodsRepository_Append(t *testing.T) {
	ctx := context.Background()
	repo := NewFinishedGoodsRepository()

	if err := repo.Append(ctx, entities.FinishedGoodsSnapshot{Period: 5, Units: entities.VariantQuantities{King: 2}}); err != nil {
		t.Fatalf("Failed to append finished goods: %v", err)
	}
	err := repo.Append(ctx, entities.FinishedGoodsSnapshot{Period: 4})
	var ooo *repositories.OutOfOrderError
	if !errors.As(err, &ooo) {
		t.Fatalf("Expected OutOfOrderError, got %v", err)
	}

	latest, err := repo.Latest(ctx)
	if err != nil {
		t.Fatalf("Failed to get latest finished goods: %v", err)
	}
	if latest.Units.King != 2 {
		t.Errorf("Expected 2 king units, got %d", latest.Units.King)
	}
}
