package detector

import (
	"github.com/example/secure-scanner/internal/finding"
	"github.com/example/secure-scanner/internal/syntax"
)

const SQLInjectionName = "sql_injection"

// SQLInjectionDetector flags execute/executemany calls whose query argument
// is an f-string with substituted values.
type SQLInjectionDetector struct{}

func NewSQLInjectionDetector() *SQLInjectionDetector {
	return &SQLInjectionDetector{}
}

// Name implements Detector.
func (d *SQLInjectionDetector) Name() string {
	return SQLInjectionName
}

// Scan implements Detector.
func (d *SQLInjectionDetector) Scan(tree *syntax.Tree) []finding.Finding {
	var findings []finding.Finding
	tree.Calls(func(call syntax.Call) {
		if call.Method != "execute" && call.Method != "executemany" {
			return
		}
		if !tree.IsInterpolated(call.FirstPositional()) {
			return
		}
		findings = append(findings, finding.New(
			finding.CategorySQLInjectionRisk,
			finding.SeverityHigh,
			call.Line,
			"SQL query built using f-string - possible injection",
		))
	})
	return findings
}
