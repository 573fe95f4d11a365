// Package sqlstore keeps the planning ledgers in SQL tables, one row per
// period. SQLite (modernc.org/sqlite) and Postgres (pgx) are supported.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/domain/repositories"
)

// Store is a database/sql backed store
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// OpenSQLite opens (creating if needed) a SQLite database file
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, repositories.Unavailable("create sqlite dir", err)
		}
	}
	db, err := sql.Open(SQLite.Driver, path)
	if err != nil {
		return nil, repositories.Unavailable("open sqlite", err)
	}
	// One writer; SQLite serialises anyway and :memory: databases are per connection.
	db.SetMaxOpenConns(1)
	return New(ctx, db, SQLite, logger)
}

// OpenPostgres opens a Postgres database through pgx
func OpenPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open(Postgres.Driver, dsn)
	if err != nil {
		return nil, repositories.Unavailable("open postgres", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, repositories.Unavailable("ping postgres", err)
	}
	return New(ctx, db, Postgres, logger)
}

// New wraps an open database and ensures the schema exists
func New(ctx context.Context, db *sql.DB, dialect Dialect, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, repositories.Unavailable("create schema", err)
		}
	}
	logger.Debug("sql store ready", "dialect", dialect.Name)
	return &Store{db: db, dialect: dialect, logger: logger}, nil
}

// DB exposes the underlying sql.DB for tests
func (s *Store) DB() *sql.DB { return s.db }

// Store exposes the database as the three repositories
func (s *Store) Store() repositories.Store {
	return repositories.Store{
		Demand:   &demandTable{s},
		Stock:    &stockTable{s},
		Finished: &finishedTable{s},
		Close:    s.db.Close,
	}
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

// withTx runs fn in a transaction, rolling back on error
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

type demandTable struct{ s *Store }

var _ repositories.DemandRepository = (*demandTable)(nil)

const quantityColumns = `period, qty_single, qty_double, qty_king`

func scanQuantities(scan func(...any) error) (entities.Period, entities.VariantQuantities, error) {
	var period int
	var single, double, king int64
	if err := scan(&period, &single, &double, &king); err != nil {
		return 0, entities.VariantQuantities{}, err
	}
	if single < 0 || double < 0 || king < 0 {
		return 0, entities.VariantQuantities{}, fmt.Errorf("period %d: negative quantity", period)
	}
	return entities.Period(period), entities.VariantQuantities{
		Single: entities.Quantity(single),
		Double: entities.Quantity(double),
		King:   entities.Quantity(king),
	}, nil
}

func (t *demandTable) Get(ctx context.Context, period entities.Period) (*entities.DemandRecord, bool, error) {
	row := t.s.queryRow(ctx, `SELECT `+quantityColumns+` FROM demand WHERE period = ?`, int(period))
	p, q, err := scanQuantities(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, repositories.Unavailable("sql demand get", err)
	}
	return &entities.DemandRecord{Period: p, Quantities: q}, true, nil
}

func (t *demandTable) Upsert(ctx context.Context, record entities.DemandRecord) (bool, error) {
	var existed bool
	err := t.s.withTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, t.s.dialect.rebind(`SELECT COUNT(*) FROM demand WHERE period = ?`), int(record.Period)).Scan(&n); err != nil {
			return err
		}
		existed = n > 0
		_, err := tx.ExecContext(ctx, t.s.dialect.rebind(`INSERT INTO demand (`+quantityColumns+`) VALUES (?, ?, ?, ?)
			ON CONFLICT (period) DO UPDATE SET
				qty_single = excluded.qty_single,
				qty_double = excluded.qty_double,
				qty_king = excluded.qty_king`),
			int(record.Period),
			int64(record.Quantities.Single),
			int64(record.Quantities.Double),
			int64(record.Quantities.King))
		return err
	})
	if err != nil {
		return false, repositories.Unavailable("sql demand upsert", err)
	}
	return existed, nil
}

func (t *demandTable) Recent(ctx context.Context, upTo entities.Period, n int) ([]entities.DemandRecord, error) {
	rows, err := t.s.query(ctx, `SELECT `+quantityColumns+` FROM demand WHERE period <= ? ORDER BY period DESC LIMIT ?`, int(upTo), n)
	if err != nil {
		return nil, repositories.Unavailable("sql demand recent", err)
	}
	records, err := collectDemand(rows)
	if err != nil {
		return nil, repositories.Unavailable("sql demand recent", err)
	}
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (t *demandTable) All(ctx context.Context) ([]entities.DemandRecord, error) {
	rows, err := t.s.query(ctx, `SELECT `+quantityColumns+` FROM demand ORDER BY period`)
	if err != nil {
		return nil, repositories.Unavailable("sql demand all", err)
	}
	records, err := collectDemand(rows)
	if err != nil {
		return nil, repositories.Unavailable("sql demand all", err)
	}
	return records, nil
}

func collectDemand(rows *sql.Rows) ([]entities.DemandRecord, error) {
	defer func() { _ = rows.Close() }()
	var records []entities.DemandRecord
	for rows.Next() {
		p, q, err := scanQuantities(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, entities.DemandRecord{Period: p, Quantities: q})
	}
	return records, rows.Err()
}

// tailPeriod returns the greatest period in table, or nil when it is empty
func tailPeriod(ctx context.Context, tx *sql.Tx, table string) (*entities.Period, error) {
	var tail sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(period) FROM `+table).Scan(&tail); err != nil {
		return nil, err
	}
	if !tail.Valid {
		return nil, nil
	}
	p := entities.Period(tail.Int64)
	return &p, nil
}

type stockTable struct{ s *Store }

var _ repositories.StockRepository = (*stockTable)(nil)

const stockColumns = `period, cotton, fibre, status`

func scanStock(scan func(...any) error) (entities.StockSnapshot, error) {
	var period int
	var cotton, fibre, status string
	if err := scan(&period, &cotton, &fibre, &status); err != nil {
		return entities.StockSnapshot{}, err
	}
	c, err := decimal.NewFromString(cotton)
	if err != nil {
		return entities.StockSnapshot{}, fmt.Errorf("period %d: invalid cotton %q", period, cotton)
	}
	f, err := decimal.NewFromString(fibre)
	if err != nil {
		return entities.StockSnapshot{}, fmt.Errorf("period %d: invalid fibre %q", period, fibre)
	}
	st, err := entities.ParseStockStatus(status)
	if err != nil {
		return entities.StockSnapshot{}, fmt.Errorf("period %d: %w", period, err)
	}
	return entities.StockSnapshot{
		Period:    entities.Period(period),
		Materials: entities.Materials{Cotton: c, Fibre: f},
		Status:    st,
	}, nil
}

func (t *stockTable) Latest(ctx context.Context) (*entities.StockSnapshot, error) {
	row := t.s.queryRow(ctx, `SELECT `+stockColumns+` FROM stock ORDER BY period DESC LIMIT 1`)
	snapshot, err := scanStock(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repositories.ErrNoSnapshot
	}
	if err != nil {
		return nil, repositories.Unavailable("sql stock latest", err)
	}
	return &snapshot, nil
}

func (t *stockTable) Append(ctx context.Context, snapshot entities.StockSnapshot) error {
	var orderErr error
	err := t.s.withTx(ctx, func(tx *sql.Tx) error {
		tail, err := tailPeriod(ctx, tx, "stock")
		if err != nil {
			return err
		}
		if _, orderErr = repositories.CheckAppendOrder("stock", tail, snapshot.Period); orderErr != nil {
			return orderErr
		}
		_, err = tx.ExecContext(ctx, t.s.dialect.rebind(`INSERT INTO stock (`+stockColumns+`) VALUES (?, ?, ?, ?)
			ON CONFLICT (period) DO UPDATE SET
				cotton = excluded.cotton,
				fibre = excluded.fibre,
				status = excluded.status`),
			int(snapshot.Period),
			snapshot.Materials.Cotton.String(),
			snapshot.Materials.Fibre.String(),
			snapshot.Status.String())
		return err
	})
	if orderErr != nil {
		return orderErr
	}
	return repositories.Unavailable("sql stock append", err)
}

func (t *stockTable) All(ctx context.Context) ([]entities.StockSnapshot, error) {
	rows, err := t.s.query(ctx, `SELECT `+stockColumns+` FROM stock ORDER BY period`)
	if err != nil {
		return nil, repositories.Unavailable("sql stock all", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshots []entities.StockSnapshot
	for rows.Next() {
		snapshot, err := scanStock(rows.Scan)
		if err != nil {
			return nil, repositories.Unavailable("sql stock all", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, repositories.Unavailable("sql stock all", err)
	}
	return snapshots, nil
}

type finishedTable struct{ s *Store }

var _ repositories.FinishedGoodsRepository = (*finishedTable)(nil)

func (t *finishedTable) Latest(ctx context.Context) (*entities.FinishedGoodsSnapshot, error) {
	row := t.s.queryRow(ctx, `SELECT `+quantityColumns+` FROM finished_goods ORDER BY period DESC LIMIT 1`)
	p, q, err := scanQuantities(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repositories.ErrNoSnapshot
	}
	if err != nil {
		return nil, repositories.Unavailable("sql finished latest", err)
	}
	return &entities.FinishedGoodsSnapshot{Period: p, Units: q}, nil
}

func (t *finishedTable) Append(ctx context.Context, snapshot entities.FinishedGoodsSnapshot) error {
	var orderErr error
	err := t.s.withTx(ctx, func(tx *sql.Tx) error {
		tail, err := tailPeriod(ctx, tx, "finished_goods")
		if err != nil {
			return err
		}
		if _, orderErr = repositories.CheckAppendOrder("finished goods", tail, snapshot.Period); orderErr != nil {
			return orderErr
		}
		_, err = tx.ExecContext(ctx, t.s.dialect.rebind(`INSERT INTO finished_goods (`+quantityColumns+`) VALUES (?, ?, ?, ?)
			ON CONFLICT (period) DO UPDATE SET
				qty_single = excluded.qty_single,
				qty_double = excluded.qty_double,
				qty_king = excluded.qty_king`),
			int(snapshot.Period),
			int64(snapshot.Units.Single),
			int64(snapshot.Units.Double),
			int64(snapshot.Units.King))
		return err
	})
	if orderErr != nil {
		return orderErr
	}
	return repositories.Unavailable("sql finished append", err)
}

func (t *finishedTable) All(ctx context.Context) ([]entities.FinishedGoodsSnapshot, error) {
	rows, err := t.s.query(ctx, `SELECT `+quantityColumns+` FROM finished_goods ORDER BY period`)
	if err != nil {
		return nil, repositories.Unavailable("sql finished all", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshots []entities.FinishedGoodsSnapshot
	for rows.Next() {
		p, q, err := scanQuantities(rows.Scan)
		if err != nil {
			return nil, repositories.Unavailable("sql finished all", err)
		}
		snapshots = append(snapshots, entities.FinishedGoodsSnapshot{Period: p, Units: q})
	}
	if err := rows.Err(); err != nil {
		return nil, repositories.Unavailable("sql finished all", err)
	}
	return snapshots, nil
}
