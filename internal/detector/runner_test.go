package detector

import (
	"context"
	"testing"

	"github.com/example/secure-scanner/internal/finding"
	"github.com/example/secure-scanner/internal/syntax"
)

type fakeDetector struct {
	name     string
	findings []finding.Finding
}

func (f fakeDetector) Name() string { return f.name }

func (f fakeDetector) Scan(tree *syntax.Tree) []finding.Finding {
	return f.findings
}

func parse(t *testing.T, src string) *syntax.Tree {
	t.Helper()
	tree, err := syntax.Parse(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return tree
}

func TestRunConcatenatesWithoutDeduplicating(t *testing.T) {
	dets := []Detector{
		fakeDetector{name: "one", findings: []finding.Finding{
			finding.New(finding.CategoryDangerousFunction, finding.SeverityHigh, 4, "one"),
		}},
		fakeDetector{name: "two", findings: []finding.Finding{
			finding.New(finding.CategoryUnsafeDeserialization, finding.SeverityCritical, 4, "two"),
		}},
	}

	results, err := Run(context.Background(), dets, "app/views.py", parse(t, "x = 1\n"))
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	for _, r := range results {
		if r.Location.File != "app/views.py" {
			t.Fatalf("expected file to be attached, got %q", r.Location.File)
		}
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dets := []Detector{fakeDetector{name: "one"}}
	if _, err := Run(ctx, dets, "a.py", parse(t, "x = 1\n")); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestRegistryBuildDetectors(t *testing.T) {
	r := Registry{
		"fake": func() Detector { return fakeDetector{name: "fake"} },
	}

	dets, err := r.BuildDetectors([]string{"fake", "fake"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(dets) != 1 || dets[0].Name() != "fake" {
		t.Fatalf("unexpected detectors: %#v", dets)
	}

	if _, err := r.BuildDetectors([]string{"missing"}); err == nil {
		t.Fatalf("expected error for unknown detector")
	}
}

func TestDefaultRegistryBuildsAllByDefault(t *testing.T) {
	dets, err := DefaultRegistry.BuildDetectors(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(dets) != len(DefaultNames) {
		t.Fatalf("expected %d detectors, got %d", len(DefaultNames), len(dets))
	}

	for i, d := range dets {
		if d.Name() != DefaultNames[i] {
			t.Fatalf("detector %d: expected %s, got %s", i, DefaultNames[i], d.Name())
		}
	}
}
