package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/secure-scanner/internal/config"
	"github.com/example/secure-scanner/internal/telemetry"
)

var scannerEnv = []string{
	"SECURE_SCANNER_PATH", "SECURE_SCANNER_FORMAT", "SECURE_SCANNER_DETECTORS",
	"SECURE_SCANNER_SKIP_DIRS", "SECURE_SCANNER_MAX_FILE_BYTES", "SECURE_SCANNER_ADVISORY_URL",
	"SECURE_SCANNER_ADVISORY_TIMEOUT", "SECURE_SCANNER_NO_DEPS", "SECURE_SCANNER_EVENTS",
	"SECURE_SCANNER_LISTEN", "SECURE_SCANNER_SERVE_ROOT",
}

// isolateEnv blanks scanner variables; empty values are treated as unset.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range scannerEnv {
		t.Setenv(key, "")
	}
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	isolateEnv(t)
	dir := t.TempDir()
	return &app{
		loader: &config.Loader{
			ConfigPath: filepath.Join(dir, "secure-scanner.yml"),
			EnvFile:    filepath.Join(dir, ".env"),
		},
		logger: telemetry.Discard(),
	}
}

// runCLI executes the full command tree with isolated config and env files.
func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	isolateEnv(t)
	dir := t.TempDir()
	full := append([]string{
		"--config", filepath.Join(dir, "secure-scanner.yml"),
		"--env-file", filepath.Join(dir, ".env"),
	}, args...)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return root
}
