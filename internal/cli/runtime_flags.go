package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/example/secure-scanner/internal/config"
)

// runtimeFlagSet tracks shared flags before they are converted into config overrides.
type runtimeFlagSet struct {
	path            string
	format          string
	detectors       string
	skipDirs        string
	maxFileBytes    int64
	noDeps          bool
	advisoryURL     string
	advisoryTimeout time.Duration
	events          bool
}

func bindRuntimeFlags(cmd *cobra.Command, flags *runtimeFlagSet) {
	cmd.Flags().StringVar(&flags.path, "path", "", "Project directory or Python file to scan (default \".\")")
	cmd.Flags().StringVar(&flags.format, "format", "", "Output format: text, sarif, or json")
	cmd.Flags().StringVar(&flags.detectors, "detectors", "", "Comma-separated detectors to run (dangerous_function,unsafe_deserialization,sql_injection)")
	cmd.Flags().StringVar(&flags.skipDirs, "skip-dirs", "", "Comma-separated directory names to skip (replaces the default set)")
	cmd.Flags().Int64Var(&flags.maxFileBytes, "max-file-bytes", 0, "Largest Python file to analyze, in bytes")
	cmd.Flags().BoolVar(&flags.noDeps, "no-deps", false, "Skip the dependency vulnerability lookup")
	cmd.Flags().StringVar(&flags.advisoryURL, "advisory-url", "", "OSV querybatch endpoint")
	cmd.Flags().DurationVar(&flags.advisoryTimeout, "advisory-timeout", 0, "Timeout for the advisory lookup")
	cmd.Flags().BoolVar(&flags.events, "events", false, "Emit NDJSON progress events to stderr")
}

func (f runtimeFlagSet) toOverrides(cmd *cobra.Command) config.Overrides {
	ov := config.Overrides{}
	changed := cmd.Flags().Changed

	if changed("path") {
		ov.Path = f.path
	}

	if changed("format") {
		ov.Format = f.format
	}

	if changed("detectors") {
		ov.Detectors = config.ParseList(f.detectors)
	}

	if changed("skip-dirs") {
		ov.SkipDirs = config.ParseList(f.skipDirs)
	}

	if changed("max-file-bytes") {
		ov.MaxFileBytes = &f.maxFileBytes
	}

	if changed("no-deps") {
		ov.NoDeps = &f.noDeps
	}

	if changed("advisory-url") {
		ov.AdvisoryURL = f.advisoryURL
	}

	if changed("advisory-timeout") {
		ov.AdvisoryTimeout = &f.advisoryTimeout
	}

	if changed("events") {
		ov.Events = &f.events
	}

	return ov
}
