package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/secure-scanner/internal/config"
	"github.com/example/secure-scanner/internal/telemetry"
)

const version = "0.1.0"

// ExitError carries a process exit code out of a command. Err, when set, is
// printed before exiting.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute builds the root command tree, runs the CLI and returns the process
// exit code: 0 clean, 1 policy failure, 2 operational error.
func Execute() int {
	return run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", exitErr.Err)
		}
		return exitErr.Code
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 2
}

// app is shared by every sub-command.
type app struct {
	loader *config.Loader
	logger *slog.Logger
}

type rootOptions struct {
	ConfigPath string
	EnvFile    string
	LogLevel   string
	LogFormat  string
}

func newRootCmd() *cobra.Command {
	a := &app{
		loader: &config.Loader{ConfigPath: config.DefaultConfigPath, EnvFile: config.DefaultEnvFile},
		logger: telemetry.Discard(),
	}
	rootOpts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "secure-scanner",
		Short:         "Static security scanner for Python projects",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	rootCmd.SetVersionTemplate("secure-scanner version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&rootOpts.ConfigPath, "config", config.DefaultConfigPath, "Path to secure-scanner.yml (optional)")
	rootCmd.PersistentFlags().StringVar(&rootOpts.EnvFile, "env-file", config.DefaultEnvFile, "Path to a .env file (optional)")
	rootCmd.PersistentFlags().StringVar(&rootOpts.LogLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&rootOpts.LogFormat, "log-format", telemetry.LogFormatText, "Log format: text or json")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if rootOpts.ConfigPath != "" {
			a.loader.ConfigPath = rootOpts.ConfigPath
		}
		if rootOpts.EnvFile != "" {
			a.loader.EnvFile = rootOpts.EnvFile
		}

		level, err := telemetry.ParseLevel(rootOpts.LogLevel)
		if err != nil {
			return err
		}
		logger, err := telemetry.NewLogger(cmd.ErrOrStderr(), level, rootOpts.LogFormat)
		if err != nil {
			return err
		}
		a.logger = logger
		return nil
	}

	rootCmd.AddCommand(
		newScanCmd(a),
		newReportCmd(a),
		newServeCmd(a),
		newInitCmd(a),
		newDoctorCmd(a),
	)

	return rootCmd
}

// loadConfig resolves and validates the configuration for a command.
func (a *app) loadConfig(cmd *cobra.Command, flags *runtimeFlagSet) (config.RuntimeConfig, error) {
	return a.resolve(flags.toOverrides(cmd))
}

func (a *app) resolve(ov config.Overrides) (config.RuntimeConfig, error) {
	cfg, err := a.loader.Load(ov)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
