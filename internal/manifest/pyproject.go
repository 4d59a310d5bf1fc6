package manifest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// versionLiteral accepts exact release strings such as 1.2, 1.2.3 or 2.0.0rc1.
var versionLiteral = regexp.MustCompile(`^[0-9]+(\.[0-9]+)+([._+-]?[0-9A-Za-z]+)*$`)

type pyproject struct {
	Project struct {
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Dependencies map[string]any `toml:"dependencies"`
			Group        map[string]struct {
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"group"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// ParsePyproject extracts exact pins from a pyproject.toml document. The
// poetry dependency tables and the [project] dependency lists are both read
// and their results unioned.
func ParsePyproject(data []byte) ([]Dependency, error) {
	var doc pyproject
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode pyproject: %w", err)
	}

	var deps []Dependency
	deps = append(deps, poetryPins(doc.Tool.Poetry.Dependencies)...)
	for _, group := range sortedKeys(doc.Tool.Poetry.Group) {
		deps = append(deps, poetryPins(doc.Tool.Poetry.Group[group].Dependencies)...)
	}

	for _, spec := range doc.Project.Dependencies {
		if dep, ok := parseRequirement(spec); ok {
			deps = append(deps, dep)
		}
	}
	for _, extra := range sortedKeys(doc.Project.OptionalDependencies) {
		for _, spec := range doc.Project.OptionalDependencies[extra] {
			if dep, ok := parseRequirement(spec); ok {
				deps = append(deps, dep)
			}
		}
	}

	return unique(deps), nil
}

// poetryPins keeps string values that are exact versions. Tables (git, path,
// markers) and caret/tilde ranges are discarded, as is the python key which
// constrains the interpreter rather than a package.
func poetryPins(table map[string]any) []Dependency {
	var deps []Dependency
	for _, name := range sortedKeys(table) {
		if strings.EqualFold(name, "python") {
			continue
		}
		version, ok := table[name].(string)
		if !ok {
			continue
		}
		version = strings.TrimSpace(version)
		if !versionLiteral.MatchString(version) {
			continue
		}
		deps = append(deps, Dependency{Name: strings.ToLower(name), Version: version})
	}
	return deps
}
