package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/example/secure-scanner/internal/report"
	"github.com/example/secure-scanner/internal/scan"
)

func newScanCmd(a *app) *cobra.Command {
	flags := &runtimeFlagSet{}
	var outputPath string

	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a Python project for insecure code and vulnerable dependencies",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && !cmd.Flags().Changed("path") {
				if err := cmd.Flags().Set("path", args[0]); err != nil {
					return err
				}
			}

			cfg, err := a.loadConfig(cmd, flags)
			if err != nil {
				return err
			}

			format, err := report.ParseFormat(cfg.Format)
			if err != nil {
				return err
			}

			scanner, err := newScanner(cfg, a.logger, cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}

			res, err := scanner.Scan(cmd.Context(), cfg.Path)
			if err != nil {
				if errors.Is(err, scan.ErrTargetNotFound) {
					return &ExitError{Code: 2, Err: err}
				}
				return err
			}

			for _, diag := range res.Diagnostics {
				a.logger.Warn("file not analyzed",
					"type", string(diag.Category),
					"file", diag.Location.File,
					"line", diag.Location.Line,
					"detail", diag.Description,
				)
			}

			out, closeOut, err := openOutput(outputPath, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := report.Write(out, format, res.Findings, report.DefaultTool); err != nil {
				closeOut()
				return err
			}
			if err := closeOut(); err != nil {
				return err
			}

			if code := report.ExitCode(format, res.Findings); code != 0 {
				return &ExitError{Code: code}
			}
			return nil
		},
	}

	bindRuntimeFlags(cmd, flags)
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the report to a file instead of stdout")

	return cmd
}
