package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fixtures "github.com/vsinha/quiltplan/pkg/application/services/testing"
	"github.com/vsinha/quiltplan/pkg/domain/entities"
)

func TestGenerate_FlatDemandThenImport(t *testing.T) {
	data := filepath.Join(t.TempDir(), "data")
	cfg := writeConfig(t, fmt.Sprintf("  backend: csv\n  csv:\n    dir: %s", data), 0, 0)
	dir := filepath.Join(t.TempDir(), "history")

	out, err := execute(t, "", "--config", cfg, "generate",
		"--out", dir, "--periods", "4", "--single", "5", "--double", "0", "--king", "0",
		"--jitter", "0", "--cover", "2", "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Generated 4 period(s) of demand in "+dir)
	assert.Contains(t, out, "Closing stock for period 4: cotton 20.00m, fibre 10.00kg")

	demand, err := os.ReadFile(filepath.Join(dir, "demand.csv"))
	require.NoError(t, err)
	assert.Equal(t, "period,single,double,king\n1,5,0,0\n2,5,0,0\n3,5,0,0\n4,5,0,0\n", string(demand))

	stock, err := os.ReadFile(filepath.Join(dir, "stock.csv"))
	require.NoError(t, err)
	assert.Equal(t, "period,cotton,fibre,status\n4,20,10,CLOSED\n", string(stock))

	out, err = execute(t, "", "--config", cfg, "import", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 4 demand record(s), 1 stock snapshot(s), 0 finished goods snapshot(s)")

	out, err = execute(t, "", "--config", cfg, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "📊 Week 4 Overview")
}

func TestGenerateCommand_SeedIsReproducible(t *testing.T) {
	usage, err := fixtures.FlatUsage().Rates(context.Background())
	require.NoError(t, err)

	run := func() string {
		dir := t.TempDir()
		gen, err := NewGenerateCommand(GenerateConfig{
			Periods:   6,
			Mean:      entities.VariantQuantities{Single: 10, Double: 6, King: 3},
			Jitter:    0.5,
			Cover:     1,
			OutputDir: dir,
			Seed:      42,
		}, usage)
		require.NoError(t, err)
		require.NoError(t, gen.Execute(io.Discard))
		body, err := os.ReadFile(filepath.Join(dir, "demand.csv"))
		require.NoError(t, err)
		return string(body)
	}

	assert.Equal(t, run(), run())
}

func TestNewGenerateCommand_Validates(t *testing.T) {
	_, err := NewGenerateCommand(GenerateConfig{Periods: 0}, entities.UsageTable{})
	assert.EqualError(t, err, "periods must be at least 1, got 0")

	_, err = NewGenerateCommand(GenerateConfig{Periods: 1, Jitter: 1.5}, entities.UsageTable{})
	assert.EqualError(t, err, "jitter must be between 0 and 1, got 1.5")
}
