package memory

import "github.com/vsinha/quiltplan/pkg/domain/repositories"

// NewStore returns an empty in-memory store
func NewStore() repositories.Store {
	return repositories.Store{
		Demand:   NewDemandRepository(),
		Stock:    NewStockRepository(),
		Finished: NewFinishedGoodsRepository(),
		Close:    func() error { return nil },
	}
}
