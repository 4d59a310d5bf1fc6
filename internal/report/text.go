package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/example/secure-scanner/internal/finding"
)

var severityColors = map[finding.Severity]lipgloss.Color{
	finding.SeverityCritical: lipgloss.Color("196"),
	finding.SeverityHigh:     lipgloss.Color("202"),
	finding.SeverityMedium:   lipgloss.Color("214"),
	finding.SeverityLow:      lipgloss.Color("39"),
	finding.SeverityError:    lipgloss.Color("244"),
}

// WriteText writes one line per finding followed by a total. Colors are
// only emitted when w is a terminal.
func WriteText(w io.Writer, findings []finding.Finding) error {
	renderer := lipgloss.NewRenderer(w)

	if len(findings) == 0 {
		_, err := fmt.Fprintln(w, renderer.NewStyle().Foreground(lipgloss.Color("46")).Render("No issues found."))
		return err
	}

	for _, f := range findings {
		tag := renderer.NewStyle().
			Foreground(severityColors[f.Severity]).
			Bold(f.Severity.AtLeast(finding.SeverityHigh)).
			Render("[" + strings.ToUpper(f.Severity.String()) + "]")

		line := fmt.Sprintf("%s %s:%d — %s", tag, f.Location.File, f.Location.Line, f.Description)
		if f.AdvisoryURL != "" {
			line += " (" + f.AdvisoryURL + ")"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "\nFound %d issue(s).\n", len(findings))
	return err
}
