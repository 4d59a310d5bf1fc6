package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/secure-scanner/internal/config"
)

func TestInitCommandWritesLoadableConfig(t *testing.T) {
	a := newTestApp(t)
	cmd := newInitCmd(a)

	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--format", "sarif", "--detectors", "dangerous_function", "--advisory-timeout", "20s"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("init command failed: %v\nOutput: %s", err, buf.String())
	}

	if !strings.Contains(buf.String(), a.loader.ConfigPath) {
		t.Fatalf("expected config path in message, got: %s", buf.String())
	}

	data, err := os.ReadFile(a.loader.ConfigPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.HasPrefix(string(data), "# secure-scanner configuration") {
		t.Fatalf("expected header comment, got: %s", data)
	}

	cfg, err := (config.Loader{ConfigPath: a.loader.ConfigPath, EnvFile: a.loader.EnvFile}).Load(config.Overrides{})
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if cfg.Format != "sarif" {
		t.Fatalf("expected format sarif, got %s", cfg.Format)
	}
	if len(cfg.Detectors) != 1 || cfg.Detectors[0] != "dangerous_function" {
		t.Fatalf("unexpected detectors: %#v", cfg.Detectors)
	}
	if cfg.AdvisoryTimeout != 20*time.Second {
		t.Fatalf("expected 20s timeout, got %s", cfg.AdvisoryTimeout)
	}
}

func TestInitCommandRefusesOverwriteWithoutForce(t *testing.T) {
	a := newTestApp(t)
	if err := os.WriteFile(a.loader.ConfigPath, []byte("format: text\n"), 0o600); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	cmd := newInitCmd(a)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "--force") {
		t.Fatalf("expected overwrite refusal, got %v", err)
	}

	cmd = newInitCmd(a)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--force", "--format", "json"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("forced init failed: %v", err)
	}

	data, err := os.ReadFile(a.loader.ConfigPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(data), "format: json") {
		t.Fatalf("expected overwritten config, got: %s", data)
	}
}

func TestInitCommandRejectsInvalidConfiguration(t *testing.T) {
	a := newTestApp(t)
	cmd := newInitCmd(a)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--advisory-timeout", "1ms"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := os.Stat(a.loader.ConfigPath); !os.IsNotExist(err) {
		t.Fatalf("config must not be written on validation failure: %v", err)
	}
}

func TestWriteConfigFileCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "secure-scanner.yml")
	if err := writeConfigFile(path, config.DefaultRuntimeConfig()); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not created: %v", err)
	}
}
