// Package firestore keeps each ledger in its own Firestore collection with
// one document per period.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/domain/repositories"
)

const (
	demandCollection   = "demand"
	stockCollection    = "stock"
	finishedCollection = "finished_goods"
)

// Store is a Firestore-backed store
type Store struct {
	client *firestore.Client
	prefix string
	logger *slog.Logger
}

// Open creates a Firestore client for projectID. Collection names are
// prefixed with prefix.
func Open(ctx context.Context, projectID, prefix string, logger *slog.Logger, opts ...option.ClientOption) (*Store, error) {
	if projectID == "" {
		return nil, errors.New("firestore project id is required")
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, repositories.Unavailable("open firestore", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, prefix: prefix, logger: logger}, nil
}

// Store exposes the collections as the three repositories
func (s *Store) Store() repositories.Store {
	return repositories.Store{
		Demand:   &demandCollectionRepo{s},
		Stock:    &stockCollectionRepo{s},
		Finished: &finishedCollectionRepo{s},
		Close:    s.client.Close,
	}
}

func (s *Store) collection(name string) *firestore.CollectionRef {
	return s.client.Collection(s.prefix + name)
}

// collect drains an iterator, decoding each document into T
func collect[T any](it *firestore.DocumentIterator) ([]T, error) {
	defer it.Stop()
	var out []T
	for {
		doc, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		var v T
		if err := doc.DataTo(&v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", doc.Ref.ID, err)
		}
		out = append(out, v)
	}
}

// appendSnapshot writes doc under period inside a transaction that first
// reads the ledger tail.
func (s *Store) appendSnapshot(ctx context.Context, ledger, collection string, period entities.Period, doc interface{}) error {
	col := s.collection(collection)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		tails, err := tx.Documents(col.OrderBy("period", firestore.Desc).Limit(1)).GetAll()
		if err != nil {
			return repositories.Unavailable("firestore "+ledger+" tail", err)
		}
		var tail *entities.Period
		if len(tails) == 1 {
			raw, err := tails[0].DataAt("period")
			if err != nil {
				return repositories.Unavailable("firestore "+ledger+" tail", err)
			}
			n, ok := raw.(int64)
			if !ok {
				return repositories.Unavailable("firestore "+ledger+" tail", fmt.Errorf("period has type %T", raw))
			}
			p := entities.Period(n)
			tail = &p
		}
		if _, err := repositories.CheckAppendOrder(ledger, tail, period); err != nil {
			return err
		}
		return tx.Set(col.Doc(docID(period)), doc)
	})
	var ooo *repositories.OutOfOrderError
	if errors.As(err, &ooo) || errors.Is(err, repositories.ErrStoreUnavailable) {
		return err
	}
	if err == nil {
		s.logger.Debug("firestore append", "ledger", ledger, "period", int(period))
	}
	return repositories.Unavailable("firestore "+ledger+" append", err)
}

type demandCollectionRepo struct{ s *Store }

var _ repositories.DemandRepository = (*demandCollectionRepo)(nil)

func (d *demandCollectionRepo) Get(ctx context.Context, period entities.Period) (*entities.DemandRecord, bool, error) {
	snap, err := d.s.collection(demandCollection).Doc(docID(period)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, repositories.Unavailable("firestore demand get", err)
	}
	var doc quantitiesDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, false, repositories.Unavailable("firestore demand get", err)
	}
	record, err := doc.demand()
	if err != nil {
		return nil, false, repositories.Unavailable("firestore demand get", err)
	}
	return &record, true, nil
}

func (d *demandCollectionRepo) Upsert(ctx context.Context, record entities.DemandRecord) (bool, error) {
	ref := d.s.collection(demandCollection).Doc(docID(record.Period))
	updated := false
	err := d.s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		_, err := tx.Get(ref)
		switch {
		case err == nil:
			updated = true
		case status.Code(err) == codes.NotFound:
			updated = false
		default:
			return err
		}
		return tx.Set(ref, toQuantitiesDoc(record.Period, record.Quantities))
	})
	if err != nil {
		return false, repositories.Unavailable("firestore demand upsert", err)
	}
	return updated, nil
}

func (d *demandCollectionRepo) decodeAll(docs []quantitiesDoc, op string) ([]entities.DemandRecord, error) {
	records := make([]entities.DemandRecord, 0, len(docs))
	for _, doc := range docs {
		record, err := doc.demand()
		if err != nil {
			return nil, repositories.Unavailable(op, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (d *demandCollectionRepo) Recent(ctx context.Context, upTo entities.Period, n int) ([]entities.DemandRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	it := d.s.collection(demandCollection).
		Where("period", "<=", int64(upTo)).
		OrderBy("period", firestore.Desc).
		Limit(n).
		Documents(ctx)
	docs, err := collect[quantitiesDoc](it)
	if err != nil {
		return nil, repositories.Unavailable("firestore demand recent", err)
	}
	for i, j := 0, len(docs)-1; i < j; i, j = i+1, j-1 {
		docs[i], docs[j] = docs[j], docs[i]
	}
	return d.decodeAll(docs, "firestore demand recent")
}

func (d *demandCollectionRepo) All(ctx context.Context) ([]entities.DemandRecord, error) {
	docs, err := collect[quantitiesDoc](d.s.collection(demandCollection).OrderBy("period", firestore.Asc).Documents(ctx))
	if err != nil {
		return nil, repositories.Unavailable("firestore demand all", err)
	}
	return d.decodeAll(docs, "firestore demand all")
}

type stockCollectionRepo struct{ s *Store }

var _ repositories.StockRepository = (*stockCollectionRepo)(nil)

func (r *stockCollectionRepo) Latest(ctx context.Context) (*entities.StockSnapshot, error) {
	docs, err := collect[stockDoc](r.s.collection(stockCollection).OrderBy("period", firestore.Desc).Limit(1).Documents(ctx))
	if err != nil {
		return nil, repositories.Unavailable("firestore stock latest", err)
	}
	if len(docs) == 0 {
		return nil, repositories.ErrNoSnapshot
	}
	snapshot, err := docs[0].snapshot()
	if err != nil {
		return nil, repositories.Unavailable("firestore stock latest", err)
	}
	return &snapshot, nil
}

func (r *stockCollectionRepo) Append(ctx context.Context, snapshot entities.StockSnapshot) error {
	return r.s.appendSnapshot(ctx, "stock", stockCollection, snapshot.Period, toStockDoc(snapshot))
}

func (r *stockCollectionRepo) All(ctx context.Context) ([]entities.StockSnapshot, error) {
	docs, err := collect[stockDoc](r.s.collection(stockCollection).OrderBy("period", firestore.Asc).Documents(ctx))
	if err != nil {
		return nil, repositories.Unavailable("firestore stock all", err)
	}
	out := make([]entities.StockSnapshot, 0, len(docs))
	for _, doc := range docs {
		snapshot, err := doc.snapshot()
		if err != nil {
			return nil, repositories.Unavailable("firestore stock all", err)
		}
		out = append(out, snapshot)
	}
	return out, nil
}

type finishedCollectionRepo struct{ s *Store }

var _ repositories.FinishedGoodsRepository = (*finishedCollectionRepo)(nil)

func (r *finishedCollectionRepo) Latest(ctx context.Context) (*entities.FinishedGoodsSnapshot, error) {
	docs, err := collect[quantitiesDoc](r.s.collection(finishedCollection).OrderBy("period", firestore.Desc).Limit(1).Documents(ctx))
	if err != nil {
		return nil, repositories.Unavailable("firestore finished latest", err)
	}
	if len(docs) == 0 {
		return nil, repositories.ErrNoSnapshot
	}
	snapshot, err := docs[0].finished()
	if err != nil {
		return nil, repositories.Unavailable("firestore finished latest", err)
	}
	return &snapshot, nil
}

func (r *finishedCollectionRepo) Append(ctx context.Context, snapshot entities.FinishedGoodsSnapshot) error {
	return r.s.appendSnapshot(ctx, "finished goods", finishedCollection, snapshot.Period, toQuantitiesDoc(snapshot.Period, snapshot.Units))
}

func (r *finishedCollectionRepo) All(ctx context.Context) ([]entities.FinishedGoodsSnapshot, error) {
	docs, err := collect[quantitiesDoc](r.s.collection(finishedCollection).OrderBy("period", firestore.Asc).Documents(ctx))
	if err != nil {
		return nil, repositories.Unavailable("firestore finished all", err)
	}
	out := make([]entities.FinishedGoodsSnapshot, 0, len(docs))
	for _, doc := range docs {
		snapshot, err := doc.finished()
		if err != nil {
			return nil, repositories.Unavailable("firestore finished all", err)
		}
		out = append(out, snapshot)
	}
	return out, nil
}
