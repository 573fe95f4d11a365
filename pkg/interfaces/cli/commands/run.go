package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the interactive day cycle",
		Long: `Show the overview and a numbered menu: edit the next period's demand,
view its requirements, order raw materials, close the period or exit.
End of input exits the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.Metrics.Enabled {
				stop := a.serveMetrics()
				defer stop()
			}

			menu := NewMenu(a.controller(), a.printer, cmd.InOrStdin(), cmd.OutOrStdout())
			return menu.Run(ctx)
		},
	}
}

// serveMetrics exposes the collector on the configured address until stop is called
func (a *app) serveMetrics() (stop func()) {
	server := &http.Server{
		Addr:              a.cfg.Metrics.Addr,
		Handler:           a.metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.logger.Info("metrics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
