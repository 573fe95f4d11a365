package memory

import (
	"sync"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/domain/repositories"
)

// ledger is an append-only, period-ordered list of snapshots
type ledger[T any] struct {
	mu        sync.RWMutex
	name      string
	snapshots []T
	period    func(T) entities.Period
}

func (l *ledger[T]) latest() (*T, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.snapshots) == 0 {
		return nil, repositories.ErrNoSnapshot
	}
	tail := l.snapshots[len(l.snapshots)-1]
	return &tail, nil
}

func (l *ledger[T]) append(snapshot T) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var tail *entities.Period
	if n := len(l.snapshots); n > 0 {
		p := l.period(l.snapshots[n-1])
		tail = &p
	}
	replace, err := repositories.CheckAppendOrder(l.name, tail, l.period(snapshot))
	if err != nil {
		return err
	}
	if replace {
		l.snapshots[len(l.snapshots)-1] = snapshot
		return nil
	}
	l.snapshots = append(l.snapshots, snapshot)
	return nil
}

func (l *ledger[T]) all() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]T, len(l.snapshots))
	copy(out, l.snapshots)
	return out
}
