package detector

import (
	"github.com/example/secure-scanner/internal/finding"
	"github.com/example/secure-scanner/internal/syntax"
)

const UnsafeDeserializationName = "unsafe_deserialization"

type deserializer struct {
	receiver    string
	method      string
	severity    finding.Severity
	description string
}

// yaml.load is flagged whatever loader argument is passed.
var deserializers = []deserializer{
	{
		receiver:    "pickle",
		method:      "loads",
		severity:    finding.SeverityCritical,
		description: "Use of `pickle.loads()` - insecure deserialization",
	},
	{
		receiver:    "yaml",
		method:      "load",
		severity:    finding.SeverityHigh,
		description: "Use of `yaml.load()` without SafeLoader - may lead to RCE",
	},
}

// UnsafeDeserializationDetector flags pickle.loads and yaml.load calls.
type UnsafeDeserializationDetector struct{}

func NewUnsafeDeserializationDetector() *UnsafeDeserializationDetector {
	return &UnsafeDeserializationDetector{}
}

// Name implements Detector.
func (d *UnsafeDeserializationDetector) Name() string {
	return UnsafeDeserializationName
}

// Scan implements Detector.
func (d *UnsafeDeserializationDetector) Scan(tree *syntax.Tree) []finding.Finding {
	var findings []finding.Finding
	tree.Calls(func(call syntax.Call) {
		for _, des := range deserializers {
			if call.Receiver == des.receiver && call.Method == des.method {
				findings = append(findings, finding.New(
					finding.CategoryUnsafeDeserialization,
					des.severity,
					call.Line,
					des.description,
				))
				return
			}
		}
	})
	return findings
}
