// Package manifest normalizes Python dependency declarations into exact
// (name, version) pins that can be matched against advisories.
package manifest

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/samber/lo"
)

const (
	RequirementsFile = "requirements.txt"
	PyprojectFile    = "pyproject.toml"
)

// Dependency is a pinned package. Name is lowercased.
type Dependency struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// String returns the requirement form name==version.
func (d Dependency) String() string {
	return d.Name + "==" + d.Version
}

// Kind tells which parser handles a manifest.
type Kind int

const (
	KindRequirements Kind = iota + 1
	KindPyproject
)

// Manifest is a dependency declaration file found at a project root.
type Manifest struct {
	Path string
	Kind Kind
}

// Name returns the manifest file name used as the finding location.
func (m Manifest) Name() string {
	return filepath.Base(m.Path)
}

// Locate picks the project manifest in dir. requirements.txt is used
// exclusively when present; pyproject.toml is only consulted in its absence.
func Locate(dir string) (Manifest, bool) {
	candidates := []Manifest{
		{Path: filepath.Join(dir, RequirementsFile), Kind: KindRequirements},
		{Path: filepath.Join(dir, PyprojectFile), Kind: KindPyproject},
	}
	for _, m := range candidates {
		if info, err := os.Stat(m.Path); err == nil && !info.IsDir() {
			return m, true
		}
	}
	return Manifest{}, false
}

// Load parses m. Unreadable or malformed manifests are logged and reported
// as having no dependencies.
func Load(m Manifest, logger *slog.Logger) []Dependency {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		deps []Dependency
		err  error
	)
	switch m.Kind {
	case KindRequirements:
		deps, err = ParseRequirementsFile(m.Path)
	case KindPyproject:
		var data []byte
		data, err = os.ReadFile(m.Path)
		if err == nil {
			deps, err = ParsePyproject(data)
		}
	default:
		logger.Warn("unsupported manifest", "path", m.Path)
		return nil
	}

	if err != nil {
		logger.Warn("failed to parse manifest, treating as no dependencies", "path", m.Path, "error", err)
		return nil
	}
	return deps
}

func unique(deps []Dependency) []Dependency {
	return lo.UniqBy(deps, func(d Dependency) string { return d.String() })
}
