// Package scan drives one analysis run: it enumerates Python sources under a
// target, runs the detectors over each parsed file and checks the project
// manifest against the advisory database.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/example/secure-scanner/internal/detector"
	"github.com/example/secure-scanner/internal/events"
	"github.com/example/secure-scanner/internal/finding"
	"github.com/example/secure-scanner/internal/manifest"
	"github.com/example/secure-scanner/internal/syntax"
)

// ErrTargetNotFound is returned when the scan target does not exist.
var ErrTargetNotFound = errors.New("target path does not exist")

const pythonExt = ".py"

// Resolver turns pinned dependencies into vulnerable_dependency findings.
// Implementations must not fail the run; lookup problems yield no findings.
type Resolver interface {
	Resolve(ctx context.Context, manifestFile string, deps []manifest.Dependency) []finding.Finding
}

// Scanner holds the collaborators for a run. The zero value scans nothing;
// use detector.DefaultRegistry.BuildDetectors to populate Detectors.
type Scanner struct {
	Detectors []detector.Detector
	// Resolver is optional. A nil Resolver disables dependency lookup.
	Resolver Resolver
	// SkipDirs holds directory names that are never descended into.
	SkipDirs []string
	// MaxFileBytes bounds the size of a source file; 0 means unbounded.
	MaxFileBytes int64
	Emitter      *events.Emitter
	Logger       *slog.Logger
}

// Result is the outcome of one run. Diagnostics hold files that could not be
// analyzed and never count as issues.
type Result struct {
	Root        string
	Files       []string
	Findings    []finding.Finding
	Diagnostics []finding.Finding
}

// Scan analyzes target, which may be a directory or a single file.
func (s *Scanner) Scan(ctx context.Context, target string) (Result, error) {
	start := time.Now()

	info, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{}, fmt.Errorf("%w: %s", ErrTargetNotFound, target)
		}
		return Result{}, fmt.Errorf("stat %s: %w", target, err)
	}

	root := target
	base := target
	if !info.IsDir() {
		root = filepath.Dir(target)
		base = root
	} else if resolved, err := filepath.EvalSymlinks(target); err == nil {
		// WalkDir does not follow a symlinked root.
		base = resolved
	}
	res := Result{Root: root}

	s.emit(events.TypeScanStart, "Starting scan", "target", target, "detectors", len(s.Detectors))

	files, err := s.collect(ctx, target, base, info)
	if err != nil {
		return res, err
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		rel := relPath(base, path)
		findings, diag, err := s.scanFile(ctx, path, rel)
		if err != nil {
			return res, err
		}
		res.Files = append(res.Files, rel)
		if diag != nil {
			res.Diagnostics = append(res.Diagnostics, *diag)
			s.emit(events.TypeFileSkipped, "File could not be analyzed", "file", rel, "reason", string(diag.Category))
			continue
		}
		res.Findings = append(res.Findings, findings...)
		s.emit(events.TypeFileScanned, "", "file", rel, "findings", len(findings))
	}

	if s.Resolver != nil {
		res.Findings = append(res.Findings, s.checkManifest(ctx, root)...)
	}

	s.emit(events.TypeScanFinished, "Scan complete",
		"files", len(res.Files),
		"issues", len(res.Findings),
		"diagnostics", len(res.Diagnostics),
		"durationMs", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// collect lists the Python files to analyze. An explicitly named file is
// always analyzed; the skip set only prunes directories found while walking
// below base.
func (s *Scanner) collect(ctx context.Context, target, base string, info fs.FileInfo) ([]string, error) {
	if !info.IsDir() {
		if !isPython(target) {
			s.logger().Warn("target is not a Python file, skipping code analysis", "path", target)
			return nil, nil
		}
		return []string{target}, nil
	}

	skip := lo.SliceToMap(s.SkipDirs, func(name string) (string, struct{}) { return name, struct{}{} })

	var files []string
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger().Warn("cannot read path, skipping", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if _, ok := skip[d.Name()]; ok && path != base {
				return filepath.SkipDir
			}
			return nil
		}
		if !isPython(path) {
			return nil
		}
		switch {
		case d.Type().IsRegular():
			files = append(files, path)
		case d.Type()&fs.ModeSymlink != 0:
			if fi, statErr := os.Stat(path); statErr == nil && fi.Mode().IsRegular() {
				files = append(files, path)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// scanFile returns either the detector findings or a diagnostic. The error
// return is reserved for cancellation.
func (s *Scanner) scanFile(ctx context.Context, path, rel string) ([]finding.Finding, *finding.Finding, error) {
	src, err := s.readSource(path)
	if err != nil {
		s.logger().Warn("cannot read source file", "file", rel, "error", err)
		diag := finding.New(finding.CategoryParsingError, finding.SeverityError, 1,
			fmt.Sprintf("Failed to read file: %v", err)).WithFile(rel)
		return nil, &diag, nil
	}

	tree, err := syntax.Parse(ctx, src)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		var synErr *syntax.SyntaxError
		var diag finding.Finding
		if errors.As(err, &synErr) {
			diag = finding.New(finding.CategorySyntaxError, finding.SeverityError, synErr.Line,
				fmt.Sprintf("Syntax error: %s", synErr.Msg)).WithFile(rel)
		} else {
			diag = finding.New(finding.CategoryParsingError, finding.SeverityError, 1,
				fmt.Sprintf("Failed to parse file: %v", err)).WithFile(rel)
		}
		s.logger().Debug("file excluded from analysis", "file", rel, "error", err)
		return nil, &diag, nil
	}

	findings, err := detector.Run(ctx, s.Detectors, rel, tree)
	if err != nil {
		return nil, nil, err
	}
	finding.SortByLocation(findings)
	return findings, nil, nil
}

func (s *Scanner) readSource(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if s.MaxFileBytes <= 0 {
		return io.ReadAll(f)
	}

	data, err := io.ReadAll(io.LimitReader(f, s.MaxFileBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.MaxFileBytes {
		return nil, fmt.Errorf("file exceeds %d bytes", s.MaxFileBytes)
	}
	return data, nil
}

func (s *Scanner) checkManifest(ctx context.Context, root string) []finding.Finding {
	m, ok := manifest.Locate(root)
	if !ok {
		s.logger().Debug("no dependency manifest found", "root", root)
		return nil
	}

	deps := manifest.Load(m, s.logger())
	findings := s.Resolver.Resolve(ctx, m.Name(), deps)
	s.emit(events.TypeManifestChecked, "", "manifest", m.Name(), "dependencies", len(deps), "vulnerabilities", len(findings))
	return findings
}

func (s *Scanner) emit(typ, msg string, kv ...interface{}) {
	if err := s.Emitter.Emitf(typ, msg, kv...); err != nil {
		s.logger().Debug("failed to emit event", "type", typ, "error", err)
	}
}

func (s *Scanner) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func isPython(path string) bool {
	return strings.EqualFold(filepath.Ext(path), pythonExt)
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
