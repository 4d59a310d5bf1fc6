package finding

import (
	"fmt"
	"strings"
)

// Severity is the ordered impact level of a finding.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"

	// SeverityError marks diagnostics (files that could not be analyzed).
	// Detectors never emit it.
	SeverityError Severity = "error"
)

// Rank returns an integer rank for comparison (Low=1, Critical=4).
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// AtLeast reports whether s ranks at or above min.
func (s Severity) AtLeast(min Severity) bool {
	return s.Rank() > 0 && s.Rank() >= min.Rank()
}

func (s Severity) String() string {
	return string(s)
}

// ParseSeverity parses a severity string case-insensitively.
// Accepts "moderate" as "medium".
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow, nil
	case "medium", "moderate":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	case "critical":
		return SeverityCritical, nil
	case "error":
		return SeverityError, nil
	default:
		return "", fmt.Errorf("invalid severity: %s", s)
	}
}
