package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/example/secure-scanner/internal/config"
)

const configHeader = "# secure-scanner configuration. Environment variables (SECURE_SCANNER_*)\n# and command-line flags take precedence over these values.\n"

func newInitCmd(a *app) *cobra.Command {
	flags := &runtimeFlagSet{}
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter secure-scanner.yml from the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, flags)
			if err != nil {
				return err
			}

			path := a.loader.ConfigPath
			if path == "" {
				path = config.DefaultConfigPath
			}

			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists; use --force to overwrite", path)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
			}

			if err := writeConfigFile(path, cfg); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return nil
		},
	}

	bindRuntimeFlags(cmd, flags)
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")

	return cmd
}

func writeConfigFile(path string, cfg config.RuntimeConfig) error {
	data, err := yaml.Marshal(cfg.ToFile())
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := ensureOutputDir(dir); err != nil {
			return err
		}
	}

	return os.WriteFile(path, append([]byte(configHeader), data...), 0o644)
}
