package manifest

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// name, then an optional version operator and the rest of the spec.
var requirementRegex = regexp.MustCompile(`^([A-Za-z0-9._-]+)\s*([<>=!~].*)?$`)

// version following a literal ==, up to whitespace or a comma.
var pinRegex = regexp.MustCompile(`^==\s*([^\s,=]+)`)

// ParseRequirementsFile parses a pinned-list manifest from disk.
func ParseRequirementsFile(path string) ([]Dependency, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseRequirements(f)
}

// ParseRequirements reads one declaration per line. Only exact == pins are
// kept; range constraints and unversioned names cannot be matched against a
// specific advisory and are dropped.
func ParseRequirements(r io.Reader) ([]Dependency, error) {
	var deps []Dependency
	// bufio.Reader has no line length cap, so one huge comment cannot hide
	// the pins around it.
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			if dep, ok := parseRequirement(strings.TrimRight(line, "\r\n")); ok {
				deps = append(deps, dep)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return unique(deps), nil
}

// parseRequirement handles one declaration, also used for PEP 621
// dependency strings.
func parseRequirement(line string) (Dependency, bool) {
	if i := strings.Index(line, "#"); i >= 0 {
		line = line[:i]
	}
	if i := strings.Index(line, ";"); i >= 0 {
		line = line[:i]
	}
	line = stripExtras(strings.TrimSpace(line))
	if line == "" {
		return Dependency{}, false
	}

	match := requirementRegex.FindStringSubmatch(line)
	if match == nil {
		return Dependency{}, false
	}

	pin := pinRegex.FindStringSubmatch(strings.TrimSpace(match[2]))
	if pin == nil {
		return Dependency{}, false
	}

	return Dependency{Name: strings.ToLower(match[1]), Version: pin[1]}, true
}

// stripExtras turns "name[extra1,extra2]==1.0" into "name==1.0".
func stripExtras(line string) string {
	open := strings.Index(line, "[")
	if open <= 0 {
		return line
	}
	end := strings.Index(line[open:], "]")
	if end < 0 {
		return line
	}
	return line[:open] + line[open+end+1:]
}
