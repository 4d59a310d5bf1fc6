package cli

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/secure-scanner/internal/config"
	"github.com/example/secure-scanner/internal/detector"
	"github.com/example/secure-scanner/internal/osv"
	"github.com/example/secure-scanner/internal/syntax"
)

type doctorCheck struct {
	Name   string
	Status string // "✓", "✗" or "⊘"
	Detail string
	Error  error
}

const selfTestSource = "import pickle\nvalue = eval(data)\nobj = pickle.loads(blob)\ncursor.execute(f\"SELECT * FROM t WHERE id = {value}\")\n"

func newDoctorCmd(a *app) *cobra.Command {
	flags := &runtimeFlagSet{}
	var offline bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate the runtime, the Python grammar, configuration and advisory reachability",
		Long: `The doctor subcommand validates the scanner environment:
- Go runtime version
- Python grammar self-test against the built-in detectors
- Configuration validity
- Reachability of the OSV advisory endpoint (skipped with --offline)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loader.Load(flags.toOverrides(cmd))
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			checks := runDoctorChecks(cmd.Context(), cfg, offline)
			printDoctorReport(cmd, checks)

			for _, check := range checks {
				if check.Error != nil {
					return fmt.Errorf("doctor checks failed")
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), "\n✓ All checks passed. System is ready.")
			return nil
		},
	}

	bindRuntimeFlags(cmd, flags)
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the advisory endpoint check")

	return cmd
}

func runDoctorChecks(ctx context.Context, cfg config.RuntimeConfig, offline bool) []doctorCheck {
	checks := []doctorCheck{
		checkGoVersion(),
		checkGrammar(ctx),
		checkConfiguration(cfg),
	}

	switch {
	case offline:
		checks = append(checks, doctorCheck{Name: "Advisory Endpoint", Status: "⊘", Detail: "Skipped (offline)"})
	case cfg.NoDeps:
		checks = append(checks, doctorCheck{Name: "Advisory Endpoint", Status: "⊘", Detail: "Skipped (dependency lookup disabled)"})
	default:
		checks = append(checks, checkAdvisoryEndpoint(ctx, cfg.AdvisoryURL, cfg.AdvisoryTimeout))
	}

	return checks
}

func checkGoVersion() doctorCheck {
	return doctorCheck{
		Name:   "Go Runtime",
		Status: "✓",
		Detail: fmt.Sprintf("Version %s", runtime.Version()),
	}
}

// checkGrammar parses a fixture that triggers every built-in detector once.
func checkGrammar(ctx context.Context) doctorCheck {
	check := doctorCheck{Name: "Python Grammar"}

	tree, err := syntax.Parse(ctx, []byte(selfTestSource))
	if err != nil {
		check.Status = "✗"
		check.Detail = "Self-test source failed to parse"
		check.Error = err
		return check
	}

	detectors, err := detector.DefaultRegistry.BuildDetectors(nil)
	if err != nil {
		check.Status = "✗"
		check.Detail = "Detector registry is inconsistent"
		check.Error = err
		return check
	}

	findings, err := detector.Run(ctx, detectors, "self-test.py", tree)
	if err != nil {
		check.Status = "✗"
		check.Detail = "Detector run interrupted"
		check.Error = err
		return check
	}
	if len(findings) != len(detectors) {
		check.Status = "✗"
		check.Detail = fmt.Sprintf("Expected %d findings, got %d", len(detectors), len(findings))
		check.Error = fmt.Errorf("grammar self-test mismatch")
		return check
	}

	check.Status = "✓"
	check.Detail = fmt.Sprintf("%d detectors verified", len(detectors))
	return check
}

func checkConfiguration(cfg config.RuntimeConfig) doctorCheck {
	if err := cfg.Validate(); err != nil {
		return doctorCheck{
			Name:   "Configuration",
			Status: "✗",
			Detail: "Invalid configuration",
			Error:  err,
		}
	}

	detectors := "all"
	if len(cfg.Detectors) > 0 {
		detectors = fmt.Sprintf("%v", cfg.Detectors)
	}
	return doctorCheck{
		Name:   "Configuration",
		Status: "✓",
		Detail: fmt.Sprintf("format=%s, detectors=%s", cfg.Format, detectors),
	}
}

func checkAdvisoryEndpoint(ctx context.Context, url string, timeout time.Duration) doctorCheck {
	check := doctorCheck{Name: "Advisory Endpoint"}

	client := osv.NewClient(url, timeout)
	if err := client.Ping(ctx); err != nil {
		check.Status = "✗"
		check.Detail = "Unreachable"
		check.Error = err
		return check
	}

	check.Status = "✓"
	check.Detail = client.APIURL
	return check
}

func printDoctorReport(cmd *cobra.Command, checks []doctorCheck) {
	fmt.Fprintln(cmd.OutOrStdout(), "Running environment diagnostics...")

	for _, check := range checks {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %-30s %s\n", check.Status, check.Name+":", check.Detail)
		if check.Error != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "   Error: %v\n", check.Error)
		}
	}
}
