package csv

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/infrastructure/repositories/rows"
)

// Writer writes planning ledgers as CSV, header first
type Writer struct{}

// NewWriter creates a new CSV writer
func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) WriteDemand(out io.Writer, records []entities.DemandRecord) error {
	encoded := make([][]string, 0, len(records))
	for _, record := range records {
		encoded = append(encoded, rows.EncodeDemand(record))
	}
	return writeAll(out, "demand", rows.DemandHeader, encoded)
}

func (w *Writer) WriteStock(out io.Writer, snapshots []entities.StockSnapshot) error {
	encoded := make([][]string, 0, len(snapshots))
	for _, snapshot := range snapshots {
		encoded = append(encoded, rows.EncodeStock(snapshot))
	}
	return writeAll(out, "stock", rows.StockHeader, encoded)
}

func (w *Writer) WriteFinished(out io.Writer, snapshots []entities.FinishedGoodsSnapshot) error {
	encoded := make([][]string, 0, len(snapshots))
	for _, snapshot := range snapshots {
		encoded = append(encoded, rows.EncodeFinished(snapshot))
	}
	return writeAll(out, "finished goods", rows.FinishedHeader, encoded)
}

func writeAll(out io.Writer, kind string, header []string, records [][]string) error {
	writer := csv.NewWriter(out)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write %s CSV header: %w", kind, err)
	}
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write %s CSV: %w", kind, err)
	}
	return nil
}
