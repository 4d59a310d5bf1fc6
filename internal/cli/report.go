package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/secure-scanner/internal/report"
)

func newReportCmd(a *app) *cobra.Command {
	var inputPath string
	var formatName string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Re-render a saved JSON report as text or SARIF",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" {
				return errors.New("--input is required")
			}

			format, err := report.ParseFormat(formatName)
			if err != nil {
				return err
			}

			f, err := os.Open(inputPath)
			if err != nil {
				return err
			}
			defer f.Close()

			findings, err := report.ReadJSON(f)
			if err != nil {
				return err
			}
			a.logger.Info("loaded report", "input", inputPath, "issues", len(findings))

			out, closeOut, err := openOutput(outputPath, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := report.Write(out, format, findings, report.DefaultTool); err != nil {
				closeOut()
				return err
			}
			if err := closeOut(); err != nil {
				return err
			}

			if code := report.ExitCode(format, findings); code != 0 {
				return &ExitError{Code: code}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "Path to a JSON report written by `scan --format json`")
	cmd.Flags().StringVar(&formatName, "format", string(report.FormatText), "Output format: text, sarif, or json")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the report to a file instead of stdout")
	if err := cmd.MarkFlagRequired("input"); err != nil {
		panic(err)
	}

	return cmd
}
