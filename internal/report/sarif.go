package report

import (
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/example/secure-scanner/internal/finding"
)

const (
	SARIFSchema  = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemas/sarif-schema-2.1.0.json"
	SARIFVersion = "2.1.0"

	srcRoot = "%SRCROOT%"
)

// Tool identifies the analyzer in the SARIF driver block.
type Tool struct {
	Name           string
	Version        string
	InformationURI string
}

// DefaultTool describes this scanner.
var DefaultTool = Tool{
	Name:           "secure-scanner",
	Version:        "0.1.0",
	InformationURI: "https://github.com/example/secure-scanner",
}

// Log represents the top-level SARIF log object.
// https://docs.oasis-open.org/sarif/sarif/v2.1.0/sarif-v2.1.0.html
type Log struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`
}

type Run struct {
	Tool    SARIFTool `json:"tool"`
	Results []Result  `json:"results"`
}

type SARIFTool struct {
	Driver Driver `json:"driver"`
}

type Driver struct {
	Name           string `json:"name"`
	Version        string `json:"version,omitempty"`
	InformationURI string `json:"informationUri,omitempty"`
	Rules          []Rule `json:"rules"`
}

type Rule struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	ShortDescription Message `json:"shortDescription"`
	HelpURI          string  `json:"helpUri,omitempty"`
}

type Result struct {
	RuleID    string     `json:"ruleId"`
	Level     string     `json:"level"`
	Message   Message    `json:"message"`
	Locations []Location `json:"locations"`
}

type Message struct {
	Text string `json:"text"`
}

type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region"`
}

type ArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId,omitempty"`
}

type Region struct {
	StartLine int `json:"startLine"`
}

// BuildSARIF converts findings into a single-run SARIF log. The rule catalog
// holds each distinct category once, in order of first appearance.
func BuildSARIF(findings []finding.Finding, tool Tool) Log {
	findings = lo.Filter(findings, func(f finding.Finding, _ int) bool {
		return f.Category != "" && f.Severity != ""
	})

	categories := lo.Uniq(lo.Map(findings, func(f finding.Finding, _ int) finding.Category {
		return f.Category
	}))

	rules := make([]Rule, 0, len(categories))
	for _, c := range categories {
		rules = append(rules, Rule{
			ID:               string(c),
			Name:             strings.ReplaceAll(RuleTitle(c), " ", ""),
			ShortDescription: Message{Text: RuleTitle(c)},
			HelpURI:          helpURI(tool, c),
		})
	}

	results := make([]Result, 0, len(findings))
	for _, f := range findings {
		description := f.Description
		if description == "" {
			description = "No description"
		}
		line := f.Location.Line
		if line < 1 {
			line = 1
		}
		uri := filepath.ToSlash(f.Location.File)
		if uri == "" {
			uri = "unknown"
		}

		results = append(results, Result{
			RuleID:  string(f.Category),
			Level:   Level(f.Severity),
			Message: Message{Text: description},
			Locations: []Location{{
				PhysicalLocation: PhysicalLocation{
					ArtifactLocation: ArtifactLocation{URI: uri, URIBaseID: srcRoot},
					Region:           Region{StartLine: line},
				},
			}},
		})
	}

	return Log{
		Schema:  SARIFSchema,
		Version: SARIFVersion,
		Runs: []Run{{
			Tool: SARIFTool{Driver: Driver{
				Name:           tool.Name,
				Version:        tool.Version,
				InformationURI: tool.InformationURI,
				Rules:          rules,
			}},
			Results: results,
		}},
	}
}

// WriteSARIF writes the SARIF log for findings as indented JSON.
func WriteSARIF(w io.Writer, findings []finding.Finding, tool Tool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildSARIF(findings, tool))
}

// Level maps a severity onto the SARIF result level scale.
func Level(s finding.Severity) string {
	switch s {
	case finding.SeverityCritical, finding.SeverityHigh:
		return "error"
	case finding.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

// RuleTitle turns a category id into a human title: sql_injection_risk
// becomes "Sql Injection Risk".
func RuleTitle(c finding.Category) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(string(c), "_", " "))
}

func helpURI(tool Tool, c finding.Category) string {
	if tool.InformationURI == "" {
		return ""
	}
	return strings.TrimSuffix(tool.InformationURI, "/") + "/blob/main/docs/rules/" + string(c) + ".md"
}
