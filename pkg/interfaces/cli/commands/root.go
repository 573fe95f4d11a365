// Package commands builds the quiltplan command tree:
//
//	quiltplan [--config quiltplan.yaml] [--format text|json]
//	├── run       interactive day cycle
//	├── status    one-shot overview
//	├── import    load CSV ledgers into the store
//	├── export    write the ledgers as CSV to a directory or bucket
//	├── generate  write a synthetic CSV history for import
//	└── serve     read-only HTTP API
package commands

import (
	"github.com/spf13/cobra"

	"github.com/vsinha/quiltplan/pkg/infrastructure/config"
)

type rootOptions struct {
	configPath string
	format     string
}

// NewRootCommand builds the root command with every subcommand attached
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "quiltplan",
		Short: "Quilt and duvet production planning",
		Long: `quiltplan records demand per period, derives production and raw-material
requirements, orders cotton and fibre, and closes each period against stock.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "config file path")
	root.PersistentFlags().StringVar(&opts.format, "format", "text", "output format: text or json")

	root.AddCommand(newRunCommand(opts))
	root.AddCommand(newStatusCommand(opts))
	root.AddCommand(newImportCommand(opts))
	root.AddCommand(newExportCommand(opts))
	root.AddCommand(newGenerateCommand(opts))
	root.AddCommand(newServeCommand(opts))

	return root
}
