package firestore

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
)

// Document IDs are zero-padded periods so lexical and numeric order agree.
func docID(period entities.Period) string {
	return fmt.Sprintf("%08d", int(period))
}

type quantitiesDoc struct {
	Period int64 `firestore:"period"`
	Single int64 `firestore:"single"`
	Double int64 `firestore:"double"`
	King   int64 `firestore:"king"`
}

func toQuantitiesDoc(period entities.Period, q entities.VariantQuantities) quantitiesDoc {
	return quantitiesDoc{
		Period: int64(period),
		Single: int64(q.Single),
		Double: int64(q.Double),
		King:   int64(q.King),
	}
}

func (d quantitiesDoc) quantities() (entities.VariantQuantities, error) {
	if d.Single < 0 || d.Double < 0 || d.King < 0 {
		return entities.VariantQuantities{}, fmt.Errorf("period %d: negative quantity", d.Period)
	}
	return entities.VariantQuantities{
		Single: entities.Quantity(d.Single),
		Double: entities.Quantity(d.Double),
		King:   entities.Quantity(d.King),
	}, nil
}

func (d quantitiesDoc) demand() (entities.DemandRecord, error) {
	q, err := d.quantities()
	if err != nil {
		return entities.DemandRecord{}, err
	}
	record, err := entities.NewDemandRecord(entities.Period(d.Period), q)
	if err != nil {
		return entities.DemandRecord{}, err
	}
	return *record, nil
}

func (d quantitiesDoc) finished() (entities.FinishedGoodsSnapshot, error) {
	q, err := d.quantities()
	if err != nil {
		return entities.FinishedGoodsSnapshot{}, err
	}
	snapshot, err := entities.NewFinishedGoodsSnapshot(entities.Period(d.Period), q)
	if err != nil {
		return entities.FinishedGoodsSnapshot{}, err
	}
	return *snapshot, nil
}

// Material amounts are stored as decimal strings to avoid float drift.
type stockDoc struct {
	Period int64  `firestore:"period"`
	Cotton string `firestore:"cotton"`
	Fibre  string `firestore:"fibre"`
	Status string `firestore:"status"`
}

func toStockDoc(s entities.StockSnapshot) stockDoc {
	return stockDoc{
		Period: int64(s.Period),
		Cotton: s.Materials.Cotton.String(),
		Fibre:  s.Materials.Fibre.String(),
		Status: s.Status.String(),
	}
}

func (d stockDoc) snapshot() (entities.StockSnapshot, error) {
	cotton, err := decimal.NewFromString(d.Cotton)
	if err != nil {
		return entities.StockSnapshot{}, fmt.Errorf("period %d: invalid cotton %q", d.Period, d.Cotton)
	}
	fibre, err := decimal.NewFromString(d.Fibre)
	if err != nil {
		return entities.StockSnapshot{}, fmt.Errorf("period %d: invalid fibre %q", d.Period, d.Fibre)
	}
	status, err := entities.ParseStockStatus(d.Status)
	if err != nil {
		return entities.StockSnapshot{}, err
	}
	snapshot, err := entities.NewStockSnapshot(entities.Period(d.Period), entities.Materials{Cotton: cotton, Fibre: fibre}, status)
	if err != nil {
		return entities.StockSnapshot{}, err
	}
	return *snapshot, nil
}
