package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/secure-scanner/internal/report"
	"github.com/example/secure-scanner/internal/server"
	"github.com/example/secure-scanner/internal/telemetry"
)

func newServeCmd(a *app) *cobra.Command {
	flags := &runtimeFlagSet{}
	var listen string
	var root string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve scans over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ov := flags.toOverrides(cmd)
			if cmd.Flags().Changed("listen") {
				ov.Listen = listen
			}
			if cmd.Flags().Changed("root") {
				ov.ServeRoot = root
			}

			cfg, err := a.resolve(ov)
			if err != nil {
				return err
			}

			metrics := telemetry.NewMetrics()
			scanner, err := newScanner(cfg, a.logger, cmd.ErrOrStderr(), func(error) { metrics.TrackLookupFailure() })
			if err != nil {
				return err
			}

			srv := &server.Server{
				Root:    cfg.ServeRoot,
				Engine:  scanner,
				Metrics: metrics,
				Logger:  a.logger,
				Tool:    report.DefaultTool,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.ListenAndServe(ctx, cfg.Listen)
		},
	}

	bindRuntimeFlags(cmd, flags)
	cmd.Flags().StringVar(&listen, "listen", "", "Address to listen on (default 127.0.0.1:9001)")
	cmd.Flags().StringVar(&root, "root", "", "Directory that request paths are resolved against")

	return cmd
}
