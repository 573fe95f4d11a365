// Package rows converts ledger records to and from positional string rows,
// the shape shared by CSV files and spreadsheet ranges.
package rows

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
)

var (
	DemandHeader   = []string{"period", "single", "double", "king"}
	StockHeader    = []string{"period", "cotton", "fibre", "status"}
	FinishedHeader = []string{"period", "single", "double", "king"}
)

// ValidateHeader compares a header row case-insensitively
func ValidateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

// IsHeader reports whether row looks like a header rather than data: its
// first cell is not a period number, whatever the column is called.
func IsHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	_, err := parsePeriod(row[0])
	return err != nil
}

func EncodeDemand(record entities.DemandRecord) []string {
	return append([]string{strconv.Itoa(int(record.Period))}, encodeQuantities(record.Quantities)...)
}

func DecodeDemand(row []string) (entities.DemandRecord, error) {
	if len(row) != len(DemandHeader) {
		return entities.DemandRecord{}, fmt.Errorf("expected %d columns, got %d", len(DemandHeader), len(row))
	}
	period, err := parsePeriod(row[0])
	if err != nil {
		return entities.DemandRecord{}, err
	}
	quantities, err := parseQuantities(row[1:])
	if err != nil {
		return entities.DemandRecord{}, err
	}
	record, err := entities.NewDemandRecord(period, quantities)
	if err != nil {
		return entities.DemandRecord{}, err
	}
	return *record, nil
}

func EncodeStock(snapshot entities.StockSnapshot) []string {
	return []string{
		strconv.Itoa(int(snapshot.Period)),
		snapshot.Materials.Cotton.String(),
		snapshot.Materials.Fibre.String(),
		snapshot.Status.String(),
	}
}

// DecodeStock accepts rows without a status column, which read as CLOSED
func DecodeStock(row []string) (entities.StockSnapshot, error) {
	if len(row) != len(StockHeader) && len(row) != len(StockHeader)-1 {
		return entities.StockSnapshot{}, fmt.Errorf("expected %d columns, got %d", len(StockHeader), len(row))
	}
	period, err := parsePeriod(row[0])
	if err != nil {
		return entities.StockSnapshot{}, err
	}
	cotton, err := decimal.NewFromString(strings.TrimSpace(row[1]))
	if err != nil {
		return entities.StockSnapshot{}, fmt.Errorf("invalid cotton: %s", row[1])
	}
	fibre, err := decimal.NewFromString(strings.TrimSpace(row[2]))
	if err != nil {
		return entities.StockSnapshot{}, fmt.Errorf("invalid fibre: %s", row[2])
	}
	var statusText string
	if len(row) == len(StockHeader) {
		statusText = row[3]
	}
	status, err := entities.ParseStockStatus(strings.TrimSpace(statusText))
	if err != nil {
		return entities.StockSnapshot{}, err
	}
	materials, err := entities.NewMaterials(cotton, fibre)
	if err != nil {
		return entities.StockSnapshot{}, err
	}
	snapshot, err := entities.NewStockSnapshot(period, *materials, status)
	if err != nil {
		return entities.StockSnapshot{}, err
	}
	return *snapshot, nil
}

func EncodeFinished(snapshot entities.FinishedGoodsSnapshot) []string {
	return append([]string{strconv.Itoa(int(snapshot.Period))}, encodeQuantities(snapshot.Units)...)
}

func DecodeFinished(row []string) (entities.FinishedGoodsSnapshot, error) {
	if len(row) != len(FinishedHeader) {
		return entities.FinishedGoodsSnapshot{}, fmt.Errorf("expected %d columns, got %d", len(FinishedHeader), len(row))
	}
	period, err := parsePeriod(row[0])
	if err != nil {
		return entities.FinishedGoodsSnapshot{}, err
	}
	units, err := parseQuantities(row[1:])
	if err != nil {
		return entities.FinishedGoodsSnapshot{}, err
	}
	snapshot, err := entities.NewFinishedGoodsSnapshot(period, units)
	if err != nil {
		return entities.FinishedGoodsSnapshot{}, err
	}
	return *snapshot, nil
}

func encodeQuantities(q entities.VariantQuantities) []string {
	out := make([]string, 0, 3)
	for _, v := range entities.AllVariants() {
		out = append(out, strconv.FormatUint(uint64(q.Get(v)), 10))
	}
	return out
}

func parseQuantities(cells []string) (entities.VariantQuantities, error) {
	var q entities.VariantQuantities
	for i, v := range entities.AllVariants() {
		n, err := strconv.ParseUint(strings.TrimSpace(cells[i]), 10, 64)
		if err != nil {
			return q, fmt.Errorf("invalid %s quantity: %s", strings.ToLower(v.String()), cells[i])
		}
		q = q.Set(v, entities.Quantity(n))
	}
	return q, nil
}

func parsePeriod(s string) (entities.Period, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid period: %s", s)
	}
	return entities.Period(n), nil
}
