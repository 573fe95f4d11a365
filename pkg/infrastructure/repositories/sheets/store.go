// Package sheets keeps the planning ledgers in a Google spreadsheet, one
// worksheet per ledger with a header row followed by one row per period.
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"google.golang.org/api/option"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/domain/repositories"
	"github.com/vsinha/quiltplan/pkg/infrastructure/repositories/rows"
)

// Worksheets names the worksheet holding each ledger
type Worksheets struct {
	Demand   string
	Stock    string
	Finished string
}

// DefaultWorksheets matches the spreadsheet layout used for weekly sales
func DefaultWorksheets() Worksheets {
	return Worksheets{Demand: "Sales", Stock: "Stock", Finished: "Finished"}
}

// Store is a spreadsheet-backed store
type Store struct {
	values valuesAPI
	sheets Worksheets
	logger *slog.Logger
}

// Open connects to the Sheets API for spreadsheetID
func Open(ctx context.Context, spreadsheetID string, sheets Worksheets, logger *slog.Logger, opts ...option.ClientOption) (*Store, error) {
	values, err := newServiceValues(ctx, spreadsheetID, opts...)
	if err != nil {
		return nil, repositories.Unavailable("open sheets", err)
	}
	return newStore(values, sheets, logger), nil
}

func newStore(values valuesAPI, sheets Worksheets, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{values: values, sheets: sheets, logger: logger}
}

// Store exposes the spreadsheet as the three repositories
func (s *Store) Store() repositories.Store {
	return repositories.Store{
		Demand:   &demandSheet{s},
		Stock:    &stockSheet{s},
		Finished: &finishedSheet{s},
		Close:    func() error { return nil },
	}
}

func columns(sheet string, width int) string {
	last := rune('A' + width - 1)
	return fmt.Sprintf("%s!A:%c", sheet, last)
}

func rowRange(sheet string, width, row int) string {
	last := rune('A' + width - 1)
	return fmt.Sprintf("%s!A%d:%c%d", sheet, row, last, row)
}

// sheetRows is a worksheet read: data rows paired with their 1-based sheet row numbers
type sheetRows struct {
	data      [][]string
	rowNums   []int
	hasHeader bool
}

func (s *Store) read(ctx context.Context, sheet string, width int) (*sheetRows, error) {
	values, err := s.values.Get(ctx, columns(sheet, width))
	if err != nil {
		return nil, err
	}
	s.logger.Debug("sheet read", "sheet", sheet, "rows", len(values))

	out := &sheetRows{}
	for i, row := range values {
		if i == 0 && rows.IsHeader(row) {
			out.hasHeader = true
			continue
		}
		if len(row) == 0 {
			continue
		}
		out.data = append(out.data, row)
		out.rowNums = append(out.rowNums, i+1)
	}
	return out, nil
}

// write replaces sheet row rowNum, or appends when rowNum is zero. An empty
// worksheet gets its header first.
func (s *Store) write(ctx context.Context, sheet string, header []string, existing *sheetRows, rowNum int, row []string) error {
	if rowNum > 0 {
		return s.values.Update(ctx, rowRange(sheet, len(header), rowNum), row)
	}
	if !existing.hasHeader && len(existing.data) == 0 {
		if err := s.values.Update(ctx, rowRange(sheet, len(header), 1), header); err != nil {
			return err
		}
	}
	return s.values.Append(ctx, columns(sheet, len(header)), row)
}

type demandSheet struct{ s *Store }

var _ repositories.DemandRepository = (*demandSheet)(nil)

func (d *demandSheet) load(ctx context.Context, op string) (*sheetRows, []entities.DemandRecord, error) {
	raw, err := d.s.read(ctx, d.s.sheets.Demand, len(rows.DemandHeader))
	if err != nil {
		return nil, nil, repositories.Unavailable(op, err)
	}
	records := make([]entities.DemandRecord, 0, len(raw.data))
	for i, row := range raw.data {
		record, err := rows.DecodeDemand(row)
		if err != nil {
			return nil, nil, repositories.Unavailable(op, fmt.Errorf("%s row %d: %w", d.s.sheets.Demand, raw.rowNums[i], err))
		}
		records = append(records, record)
	}
	return raw, records, nil
}

func (d *demandSheet) Get(ctx context.Context, period entities.Period) (*entities.DemandRecord, bool, error) {
	_, records, err := d.load(ctx, "sheets demand get")
	if err != nil {
		return nil, false, err
	}
	for _, record := range records {
		if record.Period == period {
			found := record
			return &found, true, nil
		}
	}
	return nil, false, nil
}

func (d *demandSheet) Upsert(ctx context.Context, record entities.DemandRecord) (bool, error) {
	raw, records, err := d.load(ctx, "sheets demand upsert")
	if err != nil {
		return false, err
	}
	rowNum := 0
	for i, existing := range records {
		if existing.Period == record.Period {
			rowNum = raw.rowNums[i]
			break
		}
	}
	if err := d.s.write(ctx, d.s.sheets.Demand, rows.DemandHeader, raw, rowNum, rows.EncodeDemand(record)); err != nil {
		return false, repositories.Unavailable("sheets demand upsert", err)
	}
	return rowNum > 0, nil
}

func (d *demandSheet) Recent(ctx context.Context, upTo entities.Period, n int) ([]entities.DemandRecord, error) {
	_, records, err := d.load(ctx, "sheets demand recent")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Period < records[j].Period })
	end := sort.Search(len(records), func(i int) bool { return records[i].Period > upTo })
	start := end - n
	if start < 0 {
		start = 0
	}
	return records[start:end], nil
}

func (d *demandSheet) All(ctx context.Context) ([]entities.DemandRecord, error) {
	_, records, err := d.load(ctx, "sheets demand all")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Period < records[j].Period })
	return records, nil
}

type stockSheet struct{ s *Store }

var _ repositories.StockRepository = (*stockSheet)(nil)

func (t *stockSheet) load(ctx context.Context, op string) (*sheetRows, []entities.StockSnapshot, error) {
	raw, err := t.s.read(ctx, t.s.sheets.Stock, len(rows.StockHeader))
	if err != nil {
		return nil, nil, repositories.Unavailable(op, err)
	}
	snapshots := make([]entities.StockSnapshot, 0, len(raw.data))
	for i, row := range raw.data {
		snapshot, err := rows.DecodeStock(row)
		if err != nil {
			return nil, nil, repositories.Unavailable(op, fmt.Errorf("%s row %d: %w", t.s.sheets.Stock, raw.rowNums[i], err))
		}
		snapshots = append(snapshots, snapshot)
	}
	return raw, snapshots, nil
}

func (t *stockSheet) Latest(ctx context.Context) (*entities.StockSnapshot, error) {
	_, snapshots, err := t.load(ctx, "sheets stock latest")
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, repositories.ErrNoSnapshot
	}
	latest := snapshots[len(snapshots)-1]
	return &latest, nil
}

func (t *stockSheet) Append(ctx context.Context, snapshot entities.StockSnapshot) error {
	raw, snapshots, err := t.load(ctx, "sheets stock append")
	if err != nil {
		return err
	}
	var tail *entities.Period
	if len(snapshots) > 0 {
		tail = &snapshots[len(snapshots)-1].Period
	}
	replace, err := repositories.CheckAppendOrder("stock", tail, snapshot.Period)
	if err != nil {
		return err
	}
	rowNum := 0
	if replace {
		rowNum = raw.rowNums[len(raw.rowNums)-1]
	}
	err = t.s.write(ctx, t.s.sheets.Stock, rows.StockHeader, raw, rowNum, rows.EncodeStock(snapshot))
	return repositories.Unavailable("sheets stock append", err)
}

func (t *stockSheet) All(ctx context.Context) ([]entities.StockSnapshot, error) {
	_, snapshots, err := t.load(ctx, "sheets stock all")
	return snapshots, err
}

type finishedSheet struct{ s *Store }

var _ repositories.FinishedGoodsRepository = (*finishedSheet)(nil)

func (f *finishedSheet) load(ctx context.Context, op string) (*sheetRows, []entities.FinishedGoodsSnapshot, error) {
	raw, err := f.s.read(ctx, f.s.sheets.Finished, len(rows.FinishedHeader))
	if err != nil {
		return nil, nil, repositories.Unavailable(op, err)
	}
	snapshots := make([]entities.FinishedGoodsSnapshot, 0, len(raw.data))
	for i, row := range raw.data {
		snapshot, err := rows.DecodeFinished(row)
		if err != nil {
			return nil, nil, repositories.Unavailable(op, fmt.Errorf("%s row %d: %w", f.s.sheets.Finished, raw.rowNums[i], err))
		}
		snapshots = append(snapshots, snapshot)
	}
	return raw, snapshots, nil
}

func (f *finishedSheet) Latest(ctx context.Context) (*entities.FinishedGoodsSnapshot, error) {
	_, snapshots, err := f.load(ctx, "sheets finished latest")
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, repositories.ErrNoSnapshot
	}
	latest := snapshots[len(snapshots)-1]
	return &latest, nil
}

func (f *finishedSheet) Append(ctx context.Context, snapshot entities.FinishedGoodsSnapshot) error {
	raw, snapshots, err := f.load(ctx, "sheets finished append")
	if err != nil {
		return err
	}
	var tail *entities.Period
	if len(snapshots) > 0 {
		tail = &snapshots[len(snapshots)-1].Period
	}
	replace, err := repositories.CheckAppendOrder("finished goods", tail, snapshot.Period)
	if err != nil {
		return err
	}
	rowNum := 0
	if replace {
		rowNum = raw.rowNums[len(raw.rowNums)-1]
	}
	err = f.s.write(ctx, f.s.sheets.Finished, rows.FinishedHeader, raw, rowNum, rows.EncodeFinished(snapshot))
	return repositories.Unavailable("sheets finished append", err)
}

func (f *finishedSheet) All(ctx context.Context) ([]entities.FinishedGoodsSnapshot, error) {
	_, snapshots, err := f.load(ctx, "sheets finished all")
	return snapshots, err
}
