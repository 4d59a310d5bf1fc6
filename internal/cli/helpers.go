package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/example/secure-scanner/internal/config"
	"github.com/example/secure-scanner/internal/detector"
	"github.com/example/secure-scanner/internal/events"
	"github.com/example/secure-scanner/internal/osv"
	"github.com/example/secure-scanner/internal/scan"
)

func ensureOutputDir(path string) error {
	if path == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	return os.MkdirAll(path, 0o755)
}

// openOutput returns stdout when path is empty, otherwise a freshly created
// file whose parent directories are made on demand.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	if err := ensureOutputDir(filepath.Dir(path)); err != nil {
		return nil, nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// newScanner wires the engine from a validated configuration. onLookupFailure
// may be nil.
func newScanner(cfg config.RuntimeConfig, logger *slog.Logger, eventsOut io.Writer, onLookupFailure func(error)) (*scan.Scanner, error) {
	detectors, err := detector.DefaultRegistry.BuildDetectors(cfg.Detectors)
	if err != nil {
		return nil, err
	}

	s := &scan.Scanner{
		Detectors:    detectors,
		SkipDirs:     cfg.SkipDirs,
		MaxFileBytes: cfg.MaxFileBytes,
		Logger:       logger,
	}

	if !cfg.NoDeps {
		client := osv.NewClient(cfg.AdvisoryURL, cfg.AdvisoryTimeout)
		client.Logger = logger
		client.OnFailure = onLookupFailure
		s.Resolver = client
	}

	if cfg.Events {
		s.Emitter = events.NewEmitter(eventsOut)
	}

	return s, nil
}
