package csv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/domain/repositories"
)

// FileStore keeps each ledger in a CSV file under one directory. Every call
// re-reads the file and every write replaces it through a rename.
type FileStore struct {
	dir    string
	loader *Loader
	writer *Writer
	mu     sync.Mutex
}

// NewFileStore creates the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, repositories.Unavailable("open csv store", err)
	}
	return &FileStore{dir: dir, loader: NewLoader(), writer: NewWriter()}, nil
}

// Store exposes the file store as the three repositories
func (s *FileStore) Store() repositories.Store {
	return repositories.Store{
		Demand:   &demandFile{s},
		Stock:    &stockFile{s},
		Finished: &finishedFile{s},
		Close:    func() error { return nil },
	}
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

func ignoreMissing(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// replace writes a file atomically
func (s *FileStore) replace(name string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(name))
}

func (s *FileStore) demand() ([]entities.DemandRecord, error) {
	records, err := s.loader.LoadDemand(s.path(DemandFile))
	return records, ignoreMissing(err)
}

func (s *FileStore) stock() ([]entities.StockSnapshot, error) {
	snapshots, err := s.loader.LoadStock(s.path(StockFile))
	return snapshots, ignoreMissing(err)
}

func (s *FileStore) finished() ([]entities.FinishedGoodsSnapshot, error) {
	snapshots, err := s.loader.LoadFinished(s.path(FinishedFile))
	return snapshots, ignoreMissing(err)
}

type demandFile struct{ s *FileStore }

var _ repositories.DemandRepository = (*demandFile)(nil)

func (d *demandFile) Get(_ context.Context, period entities.Period) (*entities.DemandRecord, bool, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	records, err := d.s.demand()
	if err != nil {
		return nil, false, repositories.Unavailable("csv demand get", err)
	}
	for _, record := range records {
		if record.Period == period {
			found := record
			return &found, true, nil
		}
	}
	return nil, false, nil
}

func (d *demandFile) Upsert(_ context.Context, record entities.DemandRecord) (bool, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	records, err := d.s.demand()
	if err != nil {
		return false, repositories.Unavailable("csv demand upsert", err)
	}

	updated := false
	for i := range records {
		if records[i].Period == record.Period {
			records[i] = record
			updated = true
			break
		}
	}
	if !updated {
		records = append(records, record)
		sort.Slice(records, func(i, j int) bool { return records[i].Period < records[j].Period })
	}

	err = d.s.replace(DemandFile, func(w io.Writer) error {
		return d.s.writer.WriteDemand(w, records)
	})
	if err != nil {
		return false, repositories.Unavailable("csv demand upsert", err)
	}
	return updated, nil
}

func (d *demandFile) Recent(_ context.Context, upTo entities.Period, n int) ([]entities.DemandRecord, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	records, err := d.s.demand()
	if err != nil {
		return nil, repositories.Unavailable("csv demand recent", err)
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Period < records[j].Period })

	end := sort.Search(len(records), func(i int) bool { return records[i].Period > upTo })
	start := end - n
	if start < 0 {
		start = 0
	}
	return records[start:end], nil
}

func (d *demandFile) All(_ context.Context) ([]entities.DemandRecord, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	records, err := d.s.demand()
	if err != nil {
		return nil, repositories.Unavailable("csv demand all", err)
	}
	return records, nil
}

type stockFile struct{ s *FileStore }

var _ repositories.StockRepository = (*stockFile)(nil)

func (f *stockFile) Latest(_ context.Context) (*entities.StockSnapshot, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	snapshots, err := f.s.stock()
	if err != nil {
		return nil, repositories.Unavailable("csv stock latest", err)
	}
	if len(snapshots) == 0 {
		return nil, repositories.ErrNoSnapshot
	}
	latest := snapshots[len(snapshots)-1]
	return &latest, nil
}

func (f *stockFile) Append(_ context.Context, snapshot entities.StockSnapshot) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	snapshots, err := f.s.stock()
	if err != nil {
		return repositories.Unavailable("csv stock append", err)
	}
	var tail *entities.Period
	if len(snapshots) > 0 {
		tail = &snapshots[len(snapshots)-1].Period
	}
	replace, err := repositories.CheckAppendOrder("stock", tail, snapshot.Period)
	if err != nil {
		return err
	}
	if replace {
		snapshots[len(snapshots)-1] = snapshot
	} else {
		snapshots = append(snapshots, snapshot)
	}

	err = f.s.replace(StockFile, func(w io.Writer) error {
		return f.s.writer.WriteStock(w, snapshots)
	})
	return repositories.Unavailable("csv stock append", err)
}

func (f *stockFile) All(_ context.Context) ([]entities.StockSnapshot, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	snapshots, err := f.s.stock()
	if err != nil {
		return nil, repositories.Unavailable("csv stock all", err)
	}
	return snapshots, nil
}

type finishedFile struct{ s *FileStore }

var _ repositories.FinishedGoodsRepository = (*finishedFile)(nil)

func (f *finishedFile) Latest(_ context.Context) (*entities.FinishedGoodsSnapshot, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	snapshots, err := f.s.finished()
	if err != nil {
		return nil, repositories.Unavailable("csv finished latest", err)
	}
	if len(snapshots) == 0 {
		return nil, repositories.ErrNoSnapshot
	}
	latest := snapshots[len(snapshots)-1]
	return &latest, nil
}

func (f *finishedFile) Append(_ context.Context, snapshot entities.FinishedGoodsSnapshot) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	snapshots, err := f.s.finished()
	if err != nil {
		return repositories.Unavailable("csv finished append", err)
	}
	var tail *entities.Period
	if len(snapshots) > 0 {
		tail = &snapshots[len(snapshots)-1].Period
	}
	replace, err := repositories.CheckAppendOrder("finished goods", tail, snapshot.Period)
	if err != nil {
		return err
	}
	if replace {
		snapshots[len(snapshots)-1] = snapshot
	} else {
		snapshots = append(snapshots, snapshot)
	}

	err = f.s.replace(FinishedFile, func(w io.Writer) error {
		return f.s.writer.WriteFinished(w, snapshots)
	})
	return repositories.Unavailable("csv finished append", err)
}

func (f *finishedFile) All(_ context.Context) ([]entities.FinishedGoodsSnapshot, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	snapshots, err := f.s.finished()
	if err != nil {
		return nil, repositories.Unavailable("csv finished all", err)
	}
	return snapshots, nil
}

// Export renders the three ledgers of store as CSV and hands each file to put
func Export(ctx context.Context, store repositories.Store, put func(ctx context.Context, name string, body []byte) error) error {
	writer := NewWriter()

	demand, err := store.Demand.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to read demand: %w", err)
	}
	stock, err := store.Stock.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to read stock: %w", err)
	}
	finished, err := store.Finished.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to read finished goods: %w", err)
	}

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{DemandFile, func(w io.Writer) error { return writer.WriteDemand(w, demand) }},
		{StockFile, func(w io.Writer) error { return writer.WriteStock(w, stock) }},
		{FinishedFile, func(w io.Writer) error { return writer.WriteFinished(w, finished) }},
	}
	for _, file := range files {
		var buf bytes.Buffer
		if err := file.write(&buf); err != nil {
			return err
		}
		if err := put(ctx, file.name, buf.Bytes()); err != nil {
			return fmt.Errorf("failed to export %s: %w", file.name, err)
		}
	}
	return nil
}

// Import appends a dataset into store. Demand is upserted; snapshots go
// through the ledger's ordering check.
func Import(ctx context.Context, ds *Dataset, store repositories.Store) error {
	for _, record := range ds.Demand {
		if _, err := store.Demand.Upsert(ctx, record); err != nil {
			return fmt.Errorf("failed to import demand for period %d: %w", record.Period, err)
		}
	}
	for _, snapshot := range ds.Stock {
		if err := store.Stock.Append(ctx, snapshot); err != nil {
			return fmt.Errorf("failed to import stock for period %d: %w", snapshot.Period, err)
		}
	}
	for _, snapshot := range ds.Finished {
		if err := store.Finished.Append(ctx, snapshot); err != nil {
			return fmt.Errorf("failed to import finished goods for period %d: %w", snapshot.Period, err)
		}
	}
	return nil
}
