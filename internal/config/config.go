package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/sharedstate/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "sharedstate.json"

	// YAMLFileName is the name of the YAML configuration file.
	YAMLFileName = "sharedstate.yaml"

	// DefaultInspectorPort is the default devtools inspector port.
	DefaultInspectorPort = 7070

	// DefaultInspectorHost is the default devtools inspector host.
	DefaultInspectorHost = "localhost"

	// DefaultMaxFlushPasses bounds render passes per flush.
	DefaultMaxFlushPasses = 100

	// DefaultDispatchQueue is the runtime's cross-goroutine queue size.
	DefaultDispatchQueue = 256

	// DefaultNamespace is the Prometheus namespace.
	DefaultNamespace = "sharedstate"
)

// fileNames lists config file names in lookup order.
var fileNames = []string{ConfigFileName, YAMLFileName, "sharedstate.yml"}

// Config represents a sharedstate.json or sharedstate.yaml file.
type Config struct {
	// Log configures the process logger.
	Log LogConfig `json:"log" yaml:"log"`

	// Runtime configures the component runtime.
	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`

	// Inspector configures the devtools HTTP server.
	Inspector InspectorConfig `json:"inspector" yaml:"inspector"`

	// Metrics configures instrumentation.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Persist configures where shared state snapshots are stored.
	Persist PersistConfig `json:"persist" yaml:"persist"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig contains logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// RuntimeConfig contains component runtime settings.
type RuntimeConfig struct {
	// MaxFlushPasses bounds the render/commit passes of one flush.
	MaxFlushPasses int `json:"maxFlushPasses,omitempty" yaml:"maxFlushPasses,omitempty"`

	// DispatchQueue is the size of the cross-goroutine dispatch queue.
	DispatchQueue int `json:"dispatchQueue,omitempty" yaml:"dispatchQueue,omitempty"`

	// Debug enables hook order validation.
	Debug bool `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// InspectorConfig contains devtools inspector settings.
type InspectorConfig struct {
	// Enabled starts the inspector with the serve command.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// ReadOnly rejects writes from the HTTP API.
	ReadOnly bool `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
}

// MetricsConfig contains instrumentation settings.
type MetricsConfig struct {
	// Prometheus installs Prometheus instrumentation.
	Prometheus bool `json:"prometheus,omitempty" yaml:"prometheus,omitempty"`

	// Tracing installs OpenTelemetry instrumentation.
	Tracing bool `json:"tracing,omitempty" yaml:"tracing,omitempty"`

	// Namespace is the Prometheus metric namespace.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// Persist backends.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendDisk   = "disk"
	BackendS3     = "s3"
)

// PersistConfig contains snapshot storage settings.
type PersistConfig struct {
	// Backend is one of none, memory, disk, s3.
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`

	// Dir is the snapshot directory for the disk backend.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// Bucket is the S3 bucket for the s3 backend.
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`

	// Prefix is prepended to S3 object keys.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Region overrides the AWS region.
	Region string `json:"region,omitempty" yaml:"region,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from the specified directory. It looks for
// sharedstate.json, then sharedstate.yaml and sharedstate.yml.
func Load(dir string) (*Config, error) {
	for _, name := range fileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New(errors.CodeConfigNotFound).
		WithDetail("No sharedstate.json or sharedstate.yaml found in " + dir).
		WithSuggestion("Run 'sharedstate init' to create one")
}

// LoadOptional is like Load but returns defaults when no file exists.
func LoadOptional(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if errors.HasCode(err, errors.CodeConfigNotFound) {
		return New(), nil
	}
	return cfg, err
}

// LoadFile reads configuration from the specified file path. Files ending
// in .yaml or .yml are parsed as YAML, everything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.New(errors.CodeConfigNotFound).WithDetail("No config file at " + path)
		}
		return nil, errors.New(errors.CodeConfigParse).Wrap(err)
	}

	cfg, err := Parse(data, isYAML(path))
	if err != nil {
		return nil, err
	}
	cfg.configPath = path
	return cfg, nil
}

// Parse decodes a config document, applies defaults and validates it.
func Parse(data []byte, asYAML bool) (*Config, error) {
	cfg := &Config{}
	if asYAML {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.New(errors.CodeConfigParse).
				WithDetail("Failed to parse YAML: " + err.Error()).
				WithSuggestion("Check that the file is valid YAML")
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.New(errors.CodeConfigParse).
				WithDetail("Failed to parse JSON: " + err.Error()).
				WithSuggestion("Check that the file is valid JSON")
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path, as YAML when
// the extension says so.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		// Add newline at end of file
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Runtime.MaxFlushPasses == 0 {
		c.Runtime.MaxFlushPasses = DefaultMaxFlushPasses
	}
	if c.Runtime.DispatchQueue == 0 {
		c.Runtime.DispatchQueue = DefaultDispatchQueue
	}

	if c.Inspector.Host == "" {
		c.Inspector.Host = DefaultInspectorHost
	}
	if c.Inspector.Port == 0 {
		c.Inspector.Port = DefaultInspectorPort
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}

	if c.Persist.Backend == "" {
		c.Persist.Backend = BackendNone
	}
	if c.Persist.Dir == "" {
		c.Persist.Dir = ".sharedstate"
	}
	if c.Persist.Prefix == "" {
		c.Persist.Prefix = "states/"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, ok := levels[strings.ToLower(c.Log.Level)]; !ok {
		return invalid("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Runtime.MaxFlushPasses < 1 {
		return invalid("runtime.maxFlushPasses must be positive")
	}
	if c.Runtime.DispatchQueue < 1 {
		return invalid("runtime.dispatchQueue must be positive")
	}
	if c.Inspector.Port < 0 || c.Inspector.Port > 65535 {
		return invalid("inspector.port must be between 0 and 65535")
	}
	switch c.Persist.Backend {
	case BackendNone, BackendMemory, BackendDisk:
	case BackendS3:
		if c.Persist.Bucket == "" {
			return invalid("persist.bucket is required for the s3 backend").
				WithExample(`"persist": {"backend": "s3", "bucket": "my-app-state"}`)
		}
	default:
		return invalid("persist.backend must be none, memory, disk or s3, got %q", c.Persist.Backend)
	}
	return nil
}

func invalid(format string, args ...any) *errors.Error {
	return errors.New(errors.CodeConfigInvalid).WithDetail(fmt.Sprintf(format, args...))
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	return levels[strings.ToLower(c.Log.Level)]
}

// InspectorAddress returns the address string for the inspector.
func (c *Config) InspectorAddress() string {
	return c.Inspector.Host + ":" + strconv.Itoa(c.Inspector.Port)
}

// PersistPath returns the absolute path to the snapshot directory.
func (c *Config) PersistPath() string {
	if filepath.IsAbs(c.Persist.Dir) {
		return c.Persist.Dir
	}
	return filepath.Join(c.Dir(), c.Persist.Dir)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range fileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a config file, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New(errors.CodeConfigNotFound).
				WithDetail("No sharedstate config found in " + startDir + " or any parent directory").
				WithSuggestion("Run 'sharedstate init' to create one")
		}
		dir = parent
	}
}
