package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/secure-scanner/internal/config"
)

func TestCheckGoVersion(t *testing.T) {
	check := checkGoVersion()

	if check.Name != "Go Runtime" {
		t.Errorf("expected Name='Go Runtime', got %q", check.Name)
	}
	if check.Status != "✓" {
		t.Errorf("expected Status='✓', got %q", check.Status)
	}
	if !strings.Contains(check.Detail, runtime.Version()) {
		t.Errorf("expected Detail to contain %q, got %q", runtime.Version(), check.Detail)
	}
}

func TestCheckGrammar(t *testing.T) {
	check := checkGrammar(context.Background())
	if check.Error != nil {
		t.Fatalf("grammar self-test failed: %v (%s)", check.Error, check.Detail)
	}
	if check.Status != "✓" {
		t.Errorf("expected Status='✓', got %q", check.Status)
	}
	if !strings.Contains(check.Detail, "3 detectors") {
		t.Errorf("unexpected detail %q", check.Detail)
	}
}

func TestCheckConfiguration(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*config.RuntimeConfig)
		wantError bool
	}{
		{name: "defaults", mutate: func(*config.RuntimeConfig) {}},
		{name: "bad format", mutate: func(c *config.RuntimeConfig) { c.Format = "html" }, wantError: true},
		{name: "bad timeout", mutate: func(c *config.RuntimeConfig) { c.AdvisoryTimeout = time.Hour }, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultRuntimeConfig()
			tt.mutate(&cfg)
			check := checkConfiguration(cfg)
			if (check.Error != nil) != tt.wantError {
				t.Fatalf("checkConfiguration() error = %v, wantError %v", check.Error, tt.wantError)
			}
			if tt.wantError && check.Status != "✗" {
				t.Errorf("expected Status='✗', got %q", check.Status)
			}
		})
	}
}

func TestCheckAdvisoryEndpoint(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer ok.Close()

	check := checkAdvisoryEndpoint(context.Background(), ok.URL, time.Second)
	if check.Error != nil || check.Status != "✓" {
		t.Fatalf("expected reachable endpoint, got %+v", check)
	}

	down := httptest.NewServer(http.NotFoundHandler())
	url := down.URL
	down.Close()

	check = checkAdvisoryEndpoint(context.Background(), url, time.Second)
	if check.Error == nil || check.Status != "✗" {
		t.Fatalf("expected unreachable endpoint, got %+v", check)
	}
}

func TestRunDoctorChecksSkipsNetwork(t *testing.T) {
	cfg := config.DefaultRuntimeConfig()

	checks := runDoctorChecks(context.Background(), cfg, true)
	last := checks[len(checks)-1]
	if last.Status != "⊘" || !strings.Contains(last.Detail, "offline") {
		t.Fatalf("expected skipped advisory check, got %+v", last)
	}

	cfg.NoDeps = true
	checks = runDoctorChecks(context.Background(), cfg, false)
	last = checks[len(checks)-1]
	if last.Status != "⊘" || !strings.Contains(last.Detail, "disabled") {
		t.Fatalf("expected skipped advisory check, got %+v", last)
	}
}

func TestPrintDoctorReport(t *testing.T) {
	cmd := &cobra.Command{}
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	printDoctorReport(cmd, []doctorCheck{
		{Name: "Go Runtime", Status: "✓", Detail: "Version go1.24"},
		{Name: "Advisory Endpoint", Status: "✗", Detail: "Unreachable", Error: context.DeadlineExceeded},
	})

	if !strings.Contains(stdout.String(), "Running environment diagnostics...") {
		t.Errorf("missing header: %s", stdout.String())
	}
	if !strings.Contains(stdout.String(), "✓ Go Runtime:") {
		t.Errorf("missing check line: %s", stdout.String())
	}
	if !strings.Contains(stderr.String(), "Error: context deadline exceeded") {
		t.Errorf("missing error detail: %s", stderr.String())
	}
}

func TestDoctorCommand(t *testing.T) {
	code, stdout, _ := runCLI(t, "doctor", "--offline")
	if code != 0 {
		t.Fatalf("expected doctor to pass offline, got %d: %s", code, stdout)
	}
	if !strings.Contains(stdout, "All checks passed") {
		t.Fatalf("unexpected output: %s", stdout)
	}

	code, _, _ = runCLI(t, "doctor", "--offline", "--format", "xml")
	if code != 2 {
		t.Fatalf("invalid configuration should fail doctor, got %d", code)
	}
}
