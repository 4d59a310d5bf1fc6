package detector

import (
	"context"
	"fmt"

	"github.com/example/secure-scanner/internal/finding"
	"github.com/example/secure-scanner/internal/syntax"
)

// Registry maps detector names to constructors.
type Registry map[string]Factory

// Factory builds a fresh detector instance.
type Factory func() Detector

// DefaultNames lists the built-in detectors in the order they run.
var DefaultNames = []string{
	DangerousFunctionName,
	UnsafeDeserializationName,
	SQLInjectionName,
}

// DefaultRegistry contains built-in detectors.
var DefaultRegistry = Registry{
	DangerousFunctionName:     func() Detector { return NewDangerousFunctionDetector() },
	UnsafeDeserializationName: func() Detector { return NewUnsafeDeserializationDetector() },
	SQLInjectionName:          func() Detector { return NewSQLInjectionDetector() },
}

// BuildDetectors instantiates detectors from the provided names. An empty
// list selects every default detector.
func (r Registry) BuildDetectors(names []string) ([]Detector, error) {
	if len(names) == 0 {
		names = DefaultNames
	}

	var detectors []Detector
	seen := map[string]struct{}{}
	for _, name := range names {
		factory, ok := r[name]
		if !ok {
			return nil, fmt.Errorf("unknown detector: %s", name)
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		detectors = append(detectors, factory())
	}
	return detectors, nil
}

// Run executes detectors sequentially against one tree and concatenates their
// findings, each located in file. Findings from different detectors are never
// merged, even when they report the same line.
func Run(ctx context.Context, detectors []Detector, file string, tree *syntax.Tree) ([]finding.Finding, error) {
	if len(detectors) == 0 || tree == nil {
		return nil, nil
	}

	var results []finding.Finding
	for _, detector := range detectors {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		for _, f := range detector.Scan(tree) {
			results = append(results, f.WithFile(file))
		}
	}

	return results, nil
}
