package repositories

// Store bundles the ledgers a backend provides. Backends that hold a
// connection implement Close.
type Store struct {
	Demand   DemandRepository
	Stock    StockRepository
	Finished FinishedGoodsRepository
	Close    func() error
}
