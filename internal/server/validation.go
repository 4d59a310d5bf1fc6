package server

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/example/secure-scanner/internal/report"
)

type scanRequest struct {
	Path   string `json:"path"`
	Format string `json:"format"`
}

// validateRequest checks a scan request and returns the cleaned target
// relative to the serve root together with the response format.
func validateRequest(req scanRequest) (string, report.Format, error) {
	format := report.FormatJSON
	if req.Format != "" {
		parsed, err := report.ParseFormat(req.Format)
		if err != nil || parsed == report.FormatText {
			return "", "", errors.New("invalid format: expected json or sarif")
		}
		format = parsed
	}

	target := strings.TrimSpace(req.Path)
	if target == "" {
		target = "."
	}
	if filepath.IsAbs(target) || strings.HasPrefix(target, "/") || strings.HasPrefix(target, `\`) {
		return "", "", errors.New("invalid path: must be relative to the serve root")
	}
	if strings.ContainsRune(target, 0) {
		return "", "", errors.New("invalid path")
	}

	cleaned := filepath.Clean(filepath.FromSlash(target))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", "", errors.New("invalid path: escapes the serve root")
	}

	return cleaned, format, nil
}
