package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/infrastructure/repositories/rows"
)

// File names inside a data directory
const (
	DemandFile   = "demand.csv"
	StockFile    = "stock.csv"
	FinishedFile = "finished_goods.csv"
)

// Dataset is the content of a data directory
type Dataset struct {
	Demand   []entities.DemandRecord
	Stock    []entities.StockSnapshot
	Finished []entities.FinishedGoodsSnapshot
}

// Loader handles loading planning ledgers from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadDir loads the three ledgers from dir; a missing file is an empty ledger
func (l *Loader) LoadDir(dir string) (*Dataset, error) {
	var ds Dataset
	var err error

	if ds.Demand, err = l.LoadDemand(filepath.Join(dir, DemandFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if ds.Stock, err = l.LoadStock(filepath.Join(dir, StockFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if ds.Finished, err = l.LoadFinished(filepath.Join(dir, FinishedFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return &ds, nil
}

// LoadDemand loads demand records from a CSV file
func (l *Loader) LoadDemand(filename string) ([]entities.DemandRecord, error) {
	records, err := readFile(filename, "demand", rows.DemandHeader)
	if err != nil {
		return nil, err
	}

	demand := make([]entities.DemandRecord, 0, len(records))
	for i, record := range records {
		parsed, err := rows.DecodeDemand(record)
		if err != nil {
			return nil, fmt.Errorf("demand CSV row %d: %w", i+2, err)
		}
		demand = append(demand, parsed)
	}
	return demand, nil
}

// LoadStock loads stock snapshots from a CSV file
func (l *Loader) LoadStock(filename string) ([]entities.StockSnapshot, error) {
	records, err := readFile(filename, "stock", rows.StockHeader)
	if err != nil {
		return nil, err
	}

	stock := make([]entities.StockSnapshot, 0, len(records))
	for i, record := range records {
		parsed, err := rows.DecodeStock(record)
		if err != nil {
			return nil, fmt.Errorf("stock CSV row %d: %w", i+2, err)
		}
		stock = append(stock, parsed)
	}
	return stock, nil
}

// LoadFinished loads finished-goods snapshots from a CSV file
func (l *Loader) LoadFinished(filename string) ([]entities.FinishedGoodsSnapshot, error) {
	records, err := readFile(filename, "finished goods", rows.FinishedHeader)
	if err != nil {
		return nil, err
	}

	finished := make([]entities.FinishedGoodsSnapshot, 0, len(records))
	for i, record := range records {
		parsed, err := rows.DecodeFinished(record)
		if err != nil {
			return nil, fmt.Errorf("finished goods CSV row %d: %w", i+2, err)
		}
		finished = append(finished, parsed)
	}
	return finished, nil
}

// readFile returns the data rows after validating the header
func readFile(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	return readRecords(file, kind, expectedHeader)
}

func readRecords(r io.Reader, kind string, expectedHeader []string) ([][]string, error) {
	reader := csv.NewReader(r)
	// Stock rows may omit the status column.
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	if !rows.ValidateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, header)
	}
	return records[1:], nil
}
