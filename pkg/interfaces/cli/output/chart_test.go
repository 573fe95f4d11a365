package output

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
)

func TestStockChart_Empty(t *testing.T) {
	svg := NewStockChart(entities.Week, 0).GenerateSVG(nil)
	assert.True(t, strings.HasPrefix(svg, `<svg width="600" height="320"`))
	assert.Contains(t, svg, "No stock recorded yet")
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
}

func TestStockChart_BarsScaleToPeak(t *testing.T) {
	history := []entities.StockSnapshot{
		{Period: 1, Materials: entities.MaterialsFromFloat(200, 50), Status: entities.Closed},
		{Period: 2, Materials: entities.MaterialsFromFloat(100, 0), Status: entities.Open},
	}
	svg := NewStockChart(entities.Day, len(history)).GenerateSVG(history)

	// plot height is 320 - 60 - 50 = 210; the peak bar fills it
	assert.Contains(t, svg, `height="210" fill="#4A90E2"><title>Day 1 Cotton: 200.00m</title>`)
	assert.Contains(t, svg, `height="105" fill="#4A90E2"><title>Day 2 Cotton: 100.00m</title>`)
	assert.Contains(t, svg, `height="0" fill="#F5A623"><title>Day 2 Fibre: 0.00kg</title>`)
	assert.Equal(t, 2, strings.Count(svg, `fill="url(#open)"`), "only the open snapshot is hatched")
}

func TestScale(t *testing.T) {
	assert.Equal(t, 0, scale(decimal.NewFromInt(5), decimal.Zero, 100))
	assert.Equal(t, 50, scale(decimal.NewFromInt(5), decimal.NewFromInt(10), 100))
	assert.Equal(t, 33, scale(decimal.NewFromInt(1), decimal.NewFromInt(3), 100))
}
