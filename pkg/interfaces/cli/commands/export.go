package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/vsinha/quiltplan/pkg/infrastructure/blob"
	"github.com/vsinha/quiltplan/pkg/infrastructure/repositories/csv"
)

func newExportCommand(opts *rootOptions) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the ledgers as CSV to a directory, s3://bucket/prefix or gs://bucket/prefix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if target == "" {
				target = a.cfg.Export.Target
			}
			parsed, err := blob.ParseTarget(target)
			if err != nil {
				return err
			}

			var clientOpts []option.ClientOption
			if parsed.Scheme == "gs" {
				if clientOpts, err = a.resolver.ClientOptions(ctx, a.cfg.Credentials); err != nil {
					return err
				}
			}
			sink, err := blob.Open(ctx, target, a.cfg.Export.Region, clientOpts...)
			if err != nil {
				return err
			}
			defer sink.Close()

			if err := csv.Export(ctx, a.store, sink.Put); err != nil {
				return err
			}
			a.logger.Info("export complete", "target", sink.String())
			fmt.Fprintf(cmd.OutOrStdout(), "Exported ledgers to %s\n", sink)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "to", "", "export target (default: export.target from the config)")
	return cmd
}
