package commands

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/domain/services/planning"
	"github.com/vsinha/quiltplan/pkg/infrastructure/config"
	"github.com/vsinha/quiltplan/pkg/infrastructure/repositories/csv"
)

// GenerateConfig holds configuration for synthetic history generation
type GenerateConfig struct {
	Periods   int                        // Number of demand periods, starting at period 1
	Mean      entities.VariantQuantities // Average demand per variant
	Jitter    float64                    // Relative spread around the mean, 0.25 = ±25%
	Cover     float64                    // Closing stock as a multiple of one average period's materials
	OutputDir string                     // Output directory for generated files
	Seed      int64                      // Random seed for reproducible generation
}

// GenerateCommand writes a demand history and a closing stock snapshot as CSV
type GenerateCommand struct {
	config GenerateConfig
	usage  entities.UsageTable
	rand   *rand.Rand
}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(config GenerateConfig, usage entities.UsageTable) (*GenerateCommand, error) {
	if config.Periods < 1 {
		return nil, fmt.Errorf("periods must be at least 1, got %d", config.Periods)
	}
	if config.Jitter < 0 || config.Jitter > 1 {
		return nil, fmt.Errorf("jitter must be between 0 and 1, got %g", config.Jitter)
	}
	if config.Cover < 0 {
		return nil, fmt.Errorf("cover cannot be negative, got %g", config.Cover)
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &GenerateCommand{
		config: config,
		usage:  usage,
		rand:   rand.New(rand.NewSource(seed)),
	}, nil
}

// Execute generates both files and reports what it wrote to out
func (g *GenerateCommand) Execute(out io.Writer) error {
	if err := os.MkdirAll(g.config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	demand := g.generateDemand()
	stock := g.generateStock(demand)

	writer := csv.NewWriter()
	if err := writeFile(filepath.Join(g.config.OutputDir, csv.DemandFile), func(w io.Writer) error {
		return writer.WriteDemand(w, demand)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(g.config.OutputDir, csv.StockFile), func(w io.Writer) error {
		return writer.WriteStock(w, []entities.StockSnapshot{stock})
	}); err != nil {
		return err
	}

	fmt.Fprintf(out, "✅ Generated %d period(s) of demand in %s\n", len(demand), g.config.OutputDir)
	fmt.Fprintf(out, "   Closing stock for period %d: %s\n", stock.Period, stock.Materials)
	return nil
}

func (g *GenerateCommand) generateDemand() []entities.DemandRecord {
	records := make([]entities.DemandRecord, 0, g.config.Periods)
	for p := 1; p <= g.config.Periods; p++ {
		var quantities entities.VariantQuantities
		for _, v := range entities.AllVariants() {
			quantities = quantities.Set(v, g.jitter(g.config.Mean.Get(v)))
		}
		records = append(records, entities.DemandRecord{
			Period:     entities.Period(p),
			Quantities: quantities,
		})
	}
	return records
}

func (g *GenerateCommand) jitter(mean entities.Quantity) entities.Quantity {
	spread := g.config.Jitter * (2*g.rand.Float64() - 1)
	qty := math.Round(float64(mean) * (1 + spread))
	if qty < 0 {
		return 0
	}
	return entities.Quantity(qty)
}

// generateStock closes the last period with Cover times the average period's materials
func (g *GenerateCommand) generateStock(demand []entities.DemandRecord) entities.StockSnapshot {
	var total entities.VariantQuantities
	for _, record := range demand {
		for _, v := range entities.AllVariants() {
			total = total.Set(v, total.Get(v)+record.Quantities.Get(v))
		}
	}
	perPeriod := planning.MaterialRequirement(total, g.usage)

	scale := decimal.NewFromFloat(g.config.Cover).Div(decimal.NewFromInt(int64(len(demand))))
	return entities.StockSnapshot{
		Period: demand[len(demand)-1].Period,
		Materials: entities.Materials{
			Cotton: perPeriod.Cotton.Mul(scale).Round(2),
			Fibre:  perPeriod.Fibre.Mul(scale).Round(2),
		},
		Status: entities.Closed,
	}
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return write(f)
}

func newGenerateCommand(opts *rootOptions) *cobra.Command {
	gc := GenerateConfig{
		Mean: entities.VariantQuantities{Single: 6, Double: 4, King: 2},
	}
	var single, double, king uint64

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic demand history and closing stock as CSV",
		Long: fmt.Sprintf(`Generates %s for periods 1..--periods and a closed %s snapshot for the
last period, ready for "quiltplan import". Usage rates come from the config.`,
			csv.DemandFile, csv.StockFile),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			rates, err := cfg.Rates()
			if err != nil {
				return err
			}
			usage, err := entities.NewUsageTable(rates)
			if err != nil {
				return err
			}

			gc.Mean = entities.VariantQuantities{
				Single: entities.Quantity(single),
				Double: entities.Quantity(double),
				King:   entities.Quantity(king),
			}
			gen, err := NewGenerateCommand(gc, usage)
			if err != nil {
				return err
			}
			return gen.Execute(cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&gc.OutputDir, "out", "", "directory to write the CSV files into")
	flags.IntVar(&gc.Periods, "periods", 8, "number of periods of demand")
	flags.Uint64Var(&single, "single", uint64(gc.Mean.Single), "average Single demand per period")
	flags.Uint64Var(&double, "double", uint64(gc.Mean.Double), "average Double demand per period")
	flags.Uint64Var(&king, "king", uint64(gc.Mean.King), "average King demand per period")
	flags.Float64Var(&gc.Jitter, "jitter", 0.25, "relative spread around the average")
	flags.Float64Var(&gc.Cover, "cover", 1.5, "closing stock in average periods of material use")
	flags.Int64Var(&gc.Seed, "seed", 0, "random seed (0 picks one from the clock)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
