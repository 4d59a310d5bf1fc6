package detector

import (
	"fmt"

	"github.com/example/secure-scanner/internal/finding"
	"github.com/example/secure-scanner/internal/syntax"
)

const DangerousFunctionName = "dangerous_function"

var dangerousFunctions = map[string]struct{}{
	"eval": {},
	"exec": {},
}

// DangerousFunctionDetector flags direct calls to eval and exec.
type DangerousFunctionDetector struct{}

func NewDangerousFunctionDetector() *DangerousFunctionDetector {
	return &DangerousFunctionDetector{}
}

// Name implements Detector.
func (d *DangerousFunctionDetector) Name() string {
	return DangerousFunctionName
}

// Scan implements Detector.
func (d *DangerousFunctionDetector) Scan(tree *syntax.Tree) []finding.Finding {
	var findings []finding.Finding
	tree.Calls(func(call syntax.Call) {
		if _, ok := dangerousFunctions[call.Name]; !ok {
			return
		}
		findings = append(findings, finding.New(
			finding.CategoryDangerousFunction,
			finding.SeverityHigh,
			call.Line,
			fmt.Sprintf("Use of dangerous function `%s()`", call.Name),
		))
	})
	return findings
}
