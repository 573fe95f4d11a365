package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/domain/repositories"
)

// DemandRepository provides in-memory demand storage
type DemandRepository struct {
	mu      sync.RWMutex
	demands []entities.DemandRecord
	index   map[entities.Period]int
}

// NewDemandRepository creates a new in-memory demand repository
func NewDemandRepository() *DemandRepository {
	return &DemandRepository{
		demands: []entities.DemandRecord{},
		index:   map[entities.Period]int{},
	}
}

// Verify interface compliance
var _ repositories.DemandRepository = (*DemandRepository)(nil)

// Get returns the demand record for a period
func (r *DemandRepository) Get(_ context.Context, period entities.Period) (*entities.DemandRecord, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, exists := r.index[period]
	if !exists {
		return nil, false, nil
	}
	record := r.demands[i]
	return &record, true, nil
}

// Upsert replaces the record for the same period or inserts it in period order
func (r *DemandRepository) Upsert(_ context.Context, record entities.DemandRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i, exists := r.index[record.Period]; exists {
		r.demands[i] = record
		return true, nil
	}

	r.demands = append(r.demands, record)
	sort.Slice(r.demands, func(i, j int) bool {
		return r.demands[i].Period < r.demands[j].Period
	})
	for i, d := range r.demands {
		r.index[d.Period] = i
	}
	return false, nil
}

// Recent returns up to n records with period <= upTo, ascending
func (r *DemandRepository) Recent(_ context.Context, upTo entities.Period, n int) ([]entities.DemandRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	end := sort.Search(len(r.demands), func(i int) bool {
		return r.demands[i].Period > upTo
	})
	start := end - n
	if start < 0 {
		start = 0
	}
	out := make([]entities.DemandRecord, end-start)
	copy(out, r.demands[start:end])
	return out, nil
}

// All returns every demand record, ascending by period
func (r *DemandRepository) All(_ context.Context) ([]entities.DemandRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entities.DemandRecord, len(r.demands))
	copy(out, r.demands)
	return out, nil
}
