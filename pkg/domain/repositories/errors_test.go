package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
)

func TestStoreError_MatchesUnavailable(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("load stock: %w", Unavailable("stock.latest", cause))

	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause)

	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "stock.latest", se.Op)
	assert.Nil(t, Unavailable("noop", nil))
}

func TestCheckAppendOrder(t *testing.T) {
	replace, err := CheckAppendOrder("stock", nil, 1)
	require.NoError(t, err)
	assert.False(t, replace)

	tail := entities.Period(5)
	replace, err = CheckAppendOrder("stock", &tail, 5)
	require.NoError(t, err)
	assert.True(t, replace)

	replace, err = CheckAppendOrder("stock", &tail, 6)
	require.NoError(t, err)
	assert.False(t, replace)

	_, err = CheckAppendOrder("stock", &tail, 4)
	var ooo *OutOfOrderError
	require.ErrorAs(t, err, &ooo)
	assert.Equal(t, "stock ledger: cannot append period 4 behind tail period 5", err.Error())
}
