package detector

import (
	"github.com/example/secure-scanner/internal/finding"
	"github.com/example/secure-scanner/internal/syntax"
)

// Detector is implemented by rules that scan one syntax tree for one class of
// vulnerability pattern. Implementations match on literal identifier names
// only; aliased imports and indirect calls are not resolved.
type Detector interface {
	Name() string
	Scan(tree *syntax.Tree) []finding.Finding
}
