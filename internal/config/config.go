package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/example/secure-scanner/internal/detector"
	"github.com/example/secure-scanner/internal/osv"
	"github.com/example/secure-scanner/internal/report"
)

const (
	DefaultConfigPath = "secure-scanner.yml"
	DefaultEnvFile    = ".env"

	DefaultListen       = "127.0.0.1:9001"
	DefaultMaxFileBytes = 5 << 20

	MinAdvisoryTimeout = time.Second
	MaxAdvisoryTimeout = 5 * time.Minute

	envPath            = "SECURE_SCANNER_PATH"
	envFormat          = "SECURE_SCANNER_FORMAT"
	envDetectors       = "SECURE_SCANNER_DETECTORS"
	envSkipDirs        = "SECURE_SCANNER_SKIP_DIRS"
	envMaxFileBytes    = "SECURE_SCANNER_MAX_FILE_BYTES"
	envAdvisoryURL     = "SECURE_SCANNER_ADVISORY_URL"
	envAdvisoryTimeout = "SECURE_SCANNER_ADVISORY_TIMEOUT"
	envNoDeps          = "SECURE_SCANNER_NO_DEPS"
	envEvents          = "SECURE_SCANNER_EVENTS"
	envListen          = "SECURE_SCANNER_LISTEN"
	envServeRoot       = "SECURE_SCANNER_SERVE_ROOT"
)

// DefaultSkipDirs lists directory names never descended into.
var DefaultSkipDirs = []string{
	".venv", "venv", "__pycache__", ".git", "node_modules",
	".mypy_cache", ".pytest_cache", ".tox", "dist", "build",
}

// Loader merges configuration coming from files, environment variables, and CLI flags.
// Precedence, lowest first: defaults, YAML file, .env file, process environment, overrides.
type Loader struct {
	ConfigPath string
	EnvFile    string
}

// RuntimeConfig contains the fully merged settings required by the sub-commands.
type RuntimeConfig struct {
	Path            string
	Format          string
	Detectors       []string
	SkipDirs        []string
	MaxFileBytes    int64
	AdvisoryURL     string
	AdvisoryTimeout time.Duration
	NoDeps          bool
	Events          bool
	Listen          string
	ServeRoot       string
}

// Overrides captures values coming from env vars or CLI flags. Zero values
// mean "not set"; pointers distinguish an explicit false or zero.
type Overrides struct {
	Path            string
	Format          string
	Detectors       []string
	SkipDirs        []string
	MaxFileBytes    *int64
	AdvisoryURL     string
	AdvisoryTimeout *time.Duration
	NoDeps          *bool
	Events          *bool
	Listen          string
	ServeRoot       string
}

// DefaultRuntimeConfig returns the baseline configuration when no overrides are provided.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Path:            ".",
		Format:          string(report.FormatText),
		SkipDirs:        append([]string(nil), DefaultSkipDirs...),
		MaxFileBytes:    DefaultMaxFileBytes,
		AdvisoryURL:     osv.DefaultQueryBatchURL,
		AdvisoryTimeout: osv.DefaultTimeout,
		Listen:          DefaultListen,
		ServeRoot:       ".",
	}
}

// Load resolves the final runtime configuration.
func (l Loader) Load(override Overrides) (RuntimeConfig, error) {
	cfg := DefaultRuntimeConfig()
	path := l.ConfigPath
	if path == "" {
		path = DefaultConfigPath
	}

	if fileExists(path) {
		fileOv, err := loadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
		cfg.apply(fileOv)
	}

	dotenv, err := l.readEnvFile()
	if err != nil {
		return cfg, err
	}

	envOv, err := overridesFromEnv(func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return dotenv[key]
	})
	if err != nil {
		return cfg, err
	}
	cfg.apply(envOv)

	cfg.apply(override)

	return cfg, nil
}

func (l Loader) readEnvFile() (map[string]string, error) {
	path := l.EnvFile
	if path == "" {
		path = DefaultEnvFile
	}
	if !fileExists(path) {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("env file %s: %w", path, err)
	}
	return values, nil
}

// Validate ensures the config contains consistent values for the sub-commands.
func (c RuntimeConfig) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return errors.New("scan path cannot be empty")
	}

	if _, err := report.ParseFormat(c.Format); err != nil {
		return err
	}

	if _, err := detector.DefaultRegistry.BuildDetectors(c.Detectors); err != nil {
		return err
	}

	if c.MaxFileBytes < 1 {
		return fmt.Errorf("max file size must be positive (got %d)", c.MaxFileBytes)
	}

	if c.AdvisoryTimeout < MinAdvisoryTimeout || c.AdvisoryTimeout > MaxAdvisoryTimeout {
		return fmt.Errorf("advisory timeout must be between %s and %s (got %s)", MinAdvisoryTimeout, MaxAdvisoryTimeout, c.AdvisoryTimeout)
	}

	if !c.NoDeps && strings.TrimSpace(c.AdvisoryURL) == "" {
		return errors.New("advisory URL cannot be empty unless dependency lookup is disabled")
	}

	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", c.Listen, err)
	}

	return nil
}

func (c *RuntimeConfig) apply(src Overrides) {
	if src.Path != "" {
		c.Path = src.Path
	}

	if src.Format != "" {
		c.Format = strings.ToLower(src.Format)
	}

	if len(src.Detectors) > 0 {
		c.Detectors = cleanList(src.Detectors)
	}

	if len(src.SkipDirs) > 0 {
		c.SkipDirs = cleanList(src.SkipDirs)
	}

	if src.MaxFileBytes != nil {
		c.MaxFileBytes = *src.MaxFileBytes
	}

	if src.AdvisoryURL != "" {
		c.AdvisoryURL = src.AdvisoryURL
	}

	if src.AdvisoryTimeout != nil {
		c.AdvisoryTimeout = *src.AdvisoryTimeout
	}

	if src.NoDeps != nil {
		c.NoDeps = *src.NoDeps
	}

	if src.Events != nil {
		c.Events = *src.Events
	}

	if src.Listen != "" {
		c.Listen = src.Listen
	}

	if src.ServeRoot != "" {
		c.ServeRoot = src.ServeRoot
	}
}

// FileConfig is the on-disk YAML shape, shared by the loader and `init`.
type FileConfig struct {
	Path            string   `yaml:"path,omitempty"`
	Format          string   `yaml:"format,omitempty"`
	Detectors       nameList `yaml:"detectors,omitempty"`
	SkipDirs        nameList `yaml:"skipDirs,omitempty"`
	MaxFileBytes    *int64   `yaml:"maxFileBytes,omitempty"`
	AdvisoryURL     string   `yaml:"advisoryURL,omitempty"`
	AdvisoryTimeout string   `yaml:"advisoryTimeout,omitempty"`
	NoDeps          *bool    `yaml:"noDeps,omitempty"`
	Events          *bool    `yaml:"events,omitempty"`
	Listen          string   `yaml:"listen,omitempty"`
	ServeRoot       string   `yaml:"serveRoot,omitempty"`
}

// ToFile converts the runtime configuration into its YAML representation.
func (c RuntimeConfig) ToFile() FileConfig {
	maxBytes := c.MaxFileBytes
	noDeps := c.NoDeps
	evts := c.Events
	return FileConfig{
		Path:            c.Path,
		Format:          c.Format,
		Detectors:       nameList(c.Detectors),
		SkipDirs:        nameList(c.SkipDirs),
		MaxFileBytes:    &maxBytes,
		AdvisoryURL:     c.AdvisoryURL,
		AdvisoryTimeout: c.AdvisoryTimeout.String(),
		NoDeps:          &noDeps,
		Events:          &evts,
		Listen:          c.Listen,
		ServeRoot:       c.ServeRoot,
	}
}

func loadFromFile(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Overrides{}, err
	}

	var raw FileConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Overrides{}, err
	}

	over := Overrides{
		Path:         raw.Path,
		Format:       raw.Format,
		Detectors:    raw.Detectors,
		SkipDirs:     raw.SkipDirs,
		MaxFileBytes: raw.MaxFileBytes,
		AdvisoryURL:  raw.AdvisoryURL,
		NoDeps:       raw.NoDeps,
		Events:       raw.Events,
		Listen:       raw.Listen,
		ServeRoot:    raw.ServeRoot,
	}

	if raw.AdvisoryTimeout != "" {
		d, err := time.ParseDuration(raw.AdvisoryTimeout)
		if err != nil {
			return Overrides{}, fmt.Errorf("advisoryTimeout: %w", err)
		}
		over.AdvisoryTimeout = &d
	}

	return over, nil
}

func overridesFromEnv(getenv func(string) string) (Overrides, error) {
	ov := Overrides{
		Path:        getenv(envPath),
		Format:      getenv(envFormat),
		AdvisoryURL: getenv(envAdvisoryURL),
		Listen:      getenv(envListen),
		ServeRoot:   getenv(envServeRoot),
	}

	if value := getenv(envDetectors); value != "" {
		ov.Detectors = ParseList(value)
	}

	if value := getenv(envSkipDirs); value != "" {
		ov.SkipDirs = ParseList(value)
	}

	if value := getenv(envMaxFileBytes); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return ov, fmt.Errorf("%s: %w", envMaxFileBytes, err)
		}
		ov.MaxFileBytes = &parsed
	}

	if value := getenv(envAdvisoryTimeout); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return ov, fmt.Errorf("%s: %w", envAdvisoryTimeout, err)
		}
		ov.AdvisoryTimeout = &parsed
	}

	if value := getenv(envNoDeps); value != "" {
		parsed := parseBool(value)
		ov.NoDeps = &parsed
	}

	if value := getenv(envEvents); value != "" {
		parsed := parseBool(value)
		ov.Events = &parsed
	}

	return ov, nil
}

func parseBool(value string) bool {
	return strings.EqualFold(value, "true") || value == "1" || strings.EqualFold(value, "yes")
}

// ParseList splits comma, whitespace or newline separated names.
func ParseList(input string) []string {
	return splitOnDelimiters(input, []rune{',', '\n', '\r', ' ', '\t'})
}

func splitOnDelimiters(input string, delims []rune) []string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil
	}

	separator := func(r rune) bool {
		for _, d := range delims {
			if r == d {
				return true
			}
		}
		return false
	}

	return cleanList(strings.FieldsFunc(trimmed, separator))
}

func cleanList(values []string) []string {
	var out []string
	for _, v := range values {
		candidate := strings.TrimSpace(v)
		if candidate != "" {
			out = append(out, candidate)
		}
	}
	return out
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// nameList enables YAML fields that can be specified as a scalar or sequence.
type nameList []string

func (n *nameList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var out []string
		for _, node := range value.Content {
			out = append(out, strings.TrimSpace(node.Value))
		}
		*n = cleanList(out)
	case yaml.ScalarNode:
		*n = ParseList(value.Value)
	default:
		return fmt.Errorf("unsupported YAML type for list value")
	}
	return nil
}
