package firestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
)

func TestDocID_SortsLexically(t *testing.T) {
	assert.Equal(t, "00000007", docID(7))
	assert.Less(t, docID(9), docID(10))
}

func TestStockDoc_RoundTrip(t *testing.T) {
	in := entities.StockSnapshot{
		Period:    3,
		Materials: entities.MaterialsFromFloat(110.5, 55),
		Status:    entities.Open,
	}
	doc := toStockDoc(in)
	assert.Equal(t, "110.5", doc.Cotton)
	assert.Equal(t, "OPEN", doc.Status)

	out, err := doc.snapshot()
	require.NoError(t, err)
	assert.True(t, in.Materials.Equal(out.Materials))
	assert.Equal(t, entities.Open, out.Status)
}

func TestStockDoc_RejectsBadAmounts(t *testing.T) {
	_, err := stockDoc{Period: 1, Cotton: "lots", Fibre: "1", Status: "CLOSED"}.snapshot()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cotton")

	_, err = stockDoc{Period: 1, Cotton: "-1", Fibre: "1"}.snapshot()
	assert.Error(t, err)
}

func TestQuantitiesDoc(t *testing.T) {
	doc := toQuantitiesDoc(4, entities.VariantQuantities{Single: 5, King: 2})
	record, err := doc.demand()
	require.NoError(t, err)
	assert.Equal(t, entities.Period(4), record.Period)
	assert.Equal(t, entities.Quantity(2), record.Quantities.King)

	_, err = quantitiesDoc{Period: 1, Double: -3}.finished()
	assert.Error(t, err)
}
