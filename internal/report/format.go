// Package report renders findings as text, SARIF 2.1.0 or JSON and decides
// the process exit code for each rendering.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"

	"github.com/example/secure-scanner/internal/finding"
)

// Format selects an output rendering.
type Format string

const (
	FormatText  Format = "text"
	FormatSARIF Format = "sarif"
	FormatJSON  Format = "json"
)

// Formats lists the supported renderings.
var Formats = []Format{FormatText, FormatSARIF, FormatJSON}

var ErrUnsupportedFormat = errors.New("unsupported output format")

// ParseFormat resolves a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if lo.Contains(Formats, f) {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Write renders findings in format to w.
func Write(w io.Writer, format Format, findings []finding.Finding, tool Tool) error {
	switch format {
	case FormatText:
		return WriteText(w, findings)
	case FormatSARIF:
		return WriteSARIF(w, findings, tool)
	case FormatJSON:
		return WriteJSON(w, findings)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ExitCode applies the exit policy of format. Text and JSON fail on any
// finding; SARIF fails only when a finding is high or critical so CI can
// tolerate low-signal results.
func ExitCode(format Format, findings []finding.Finding) int {
	switch format {
	case FormatSARIF:
		for _, f := range findings {
			if f.Severity.AtLeast(finding.SeverityHigh) {
				return 1
			}
		}
		return 0
	default:
		if len(findings) > 0 {
			return 1
		}
		return 0
	}
}
