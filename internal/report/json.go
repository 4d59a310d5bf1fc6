package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/example/secure-scanner/internal/finding"
)

// Document is the JSON report shape, shared with the HTTP endpoint.
type Document struct {
	Status      string            `json:"status"`
	IssuesCount int               `json:"issues_count"`
	Issues      []finding.Finding `json:"issues"`
}

// NewDocument wraps findings in a completed report.
func NewDocument(findings []finding.Finding) Document {
	if findings == nil {
		findings = []finding.Finding{}
	}
	return Document{Status: "completed", IssuesCount: len(findings), Issues: findings}
}

// WriteJSON writes findings as an indented JSON document.
func WriteJSON(w io.Writer, findings []finding.Finding) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(findings))
}

// ReadJSON loads a document written by WriteJSON.
func ReadJSON(r io.Reader) ([]finding.Finding, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode findings report: %w", err)
	}
	return doc.Issues, nil
}
