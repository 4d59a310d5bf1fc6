package finding

import "sort"

// Category identifies the rule a finding violates. It doubles as the SARIF rule id.
type Category string

const (
	CategoryDangerousFunction     Category = "dangerous_function"
	CategoryUnsafeDeserialization Category = "unsafe_deserialization"
	CategorySQLInjectionRisk      Category = "sql_injection_risk"
	CategoryVulnerableDependency  Category = "vulnerable_dependency"

	CategorySyntaxError  Category = "syntax_error"
	CategoryParsingError Category = "parsing_error"
)

// IsDiagnostic reports whether the category describes an analysis failure
// rather than a vulnerability.
func (c Category) IsDiagnostic() bool {
	return c == CategorySyntaxError || c == CategoryParsingError
}

// Location points at a file (relative to the project root) and a 1-based line.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// Finding is one normalized detection result.
type Finding struct {
	Category    Category `json:"type"`
	Description string   `json:"description"`
	Location    Location `json:"location"`
	Severity    Severity `json:"severity"`
	AdvisoryID  string   `json:"advisory_id,omitempty"`
	AdvisoryURL string   `json:"advisory_url,omitempty"`
}

// New builds a finding. Lines below 1 are clamped to 1.
func New(category Category, severity Severity, line int, description string) Finding {
	if line < 1 {
		line = 1
	}
	return Finding{
		Category:    category,
		Description: description,
		Location:    Location{Line: line},
		Severity:    severity,
	}
}

// WithFile returns a copy of f located in file.
func (f Finding) WithFile(file string) Finding {
	f.Location.File = file
	return f
}

// SortByLocation orders findings by file then line, keeping the relative
// order of findings that share a position.
func SortByLocation(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i].Location, findings[j].Location
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})
}
