// Package projectconfig provides the ProjectConfig struct and loader for
// .modelrank.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spboyer/modelrank/internal/validation"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up by Load.
const FileName = ".modelrank.yaml"

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultDataDir = ".modelrank"
	DefaultEnvFile = ".env"

	DefaultEndpoint       = "https://artificialanalysis.ai/api/v2/data/llms/models"
	DefaultTimeoutSeconds = 30

	DefaultMedium = MediumFile

	DefaultTopK          = 5
	DefaultMaxAgeHours   = 24.0
	DefaultMissingPolicy = "penalize"

	DefaultSchedule = "@every 6h"
	DefaultTimezone = "UTC"

	DefaultServerAddr = "127.0.0.1:8000"
)

// Storage media.
const (
	MediumFile   = "file"
	MediumAzBlob = "azblob"
)

// PathsConfig holds local paths.
type PathsConfig struct {
	DataDir string `yaml:"data_dir,omitempty"`
	EnvFile string `yaml:"env_file,omitempty"`
}

// SourceConfig holds the primary connector settings.
type SourceConfig struct {
	Endpoint       string `yaml:"endpoint,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
	// Fixture replaces the built-in fallback sample.
	Fixture string `yaml:"fixture,omitempty"`
}

// StorageConfig selects where snapshot files live. The catalog always stays
// under Paths.DataDir.
type StorageConfig struct {
	Medium     string `yaml:"medium,omitempty"`
	AccountURL string `yaml:"account_url,omitempty"`
	Container  string `yaml:"container,omitempty"`
}

// RecommendConfig holds defaults for the recommend command.
type RecommendConfig struct {
	TopK          int     `yaml:"topk,omitempty"`
	MaxAgeHours   float64 `yaml:"max_age_hours,omitempty"`
	MissingPolicy string  `yaml:"missing_policy,omitempty"`
}

// IngestConfig holds scheduled ingestion settings.
type IngestConfig struct {
	Schedule string `yaml:"schedule,omitempty"`
	Timezone string `yaml:"timezone,omitempty"`
}

// MetricsConfig holds the Prometheus textfile location. Empty disables it.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// ServerConfig holds settings for the serve command.
type ServerConfig struct {
	Addr           string   `yaml:"addr,omitempty"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .modelrank.yaml.
type ProjectConfig struct {
	Paths     PathsConfig     `yaml:"paths,omitempty"`
	Source    SourceConfig    `yaml:"source,omitempty"`
	Storage   StorageConfig   `yaml:"storage,omitempty"`
	Recommend RecommendConfig `yaml:"recommend,omitempty"`
	Ingest    IngestConfig    `yaml:"ingest,omitempty"`
	Metrics   MetricsConfig   `yaml:"metrics,omitempty"`
	Server    ServerConfig    `yaml:"server,omitempty"`

	// dir is the directory holding the loaded file; relative paths resolve
	// against it. Empty when defaults were used.
	dir string
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Paths: PathsConfig{
			DataDir: DefaultDataDir,
			EnvFile: DefaultEnvFile,
		},
		Source: SourceConfig{
			Endpoint:       DefaultEndpoint,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Storage: StorageConfig{
			Medium: DefaultMedium,
		},
		Recommend: RecommendConfig{
			TopK:          DefaultTopK,
			MaxAgeHours:   DefaultMaxAgeHours,
			MissingPolicy: DefaultMissingPolicy,
		},
		Ingest: IngestConfig{
			Schedule: DefaultSchedule,
			Timezone: DefaultTimezone,
		},
		Server: ServerConfig{
			Addr: DefaultServerAddr,
		},
	}
}

// Load finds .modelrank.yaml by walking up from startDir (max 10 levels),
// validates it, and fills in missing fields with defaults. If no config file
// is found, returns defaults with a nil error.
func Load(startDir string) (*ProjectConfig, error) {
	path, data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}
	return parse(path, data)
}

// LoadFile reads an explicit config file. Unlike Load, a missing file is
// an error.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", path, err)
	}
	return parse(abs, data)
}

func parse(path string, data []byte) (*ProjectConfig, error) {
	if errs := validation.ValidateConfigBytes(data); len(errs) > 0 {
		return nil, fmt.Errorf("invalid %s: %s", path, strings.Join(errs, "; "))
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg := New()
	mergeConfig(cfg, &fileCfg)
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// findConfigFile walks up from dir looking for .modelrank.yaml (max 10
// levels). Returns os.ErrNotExist if none is found.
func findConfigFile(dir string) (string, []byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for range 10 {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return p, data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Paths
	if src.Paths.DataDir != "" {
		dst.Paths.DataDir = src.Paths.DataDir
	}
	if src.Paths.EnvFile != "" {
		dst.Paths.EnvFile = src.Paths.EnvFile
	}

	// Source
	if src.Source.Endpoint != "" {
		dst.Source.Endpoint = src.Source.Endpoint
	}
	if src.Source.TimeoutSeconds != 0 {
		dst.Source.TimeoutSeconds = src.Source.TimeoutSeconds
	}
	if src.Source.Fixture != "" {
		dst.Source.Fixture = src.Source.Fixture
	}

	// Storage
	if src.Storage.Medium != "" {
		dst.Storage.Medium = src.Storage.Medium
	}
	if src.Storage.AccountURL != "" {
		dst.Storage.AccountURL = src.Storage.AccountURL
	}
	if src.Storage.Container != "" {
		dst.Storage.Container = src.Storage.Container
	}

	// Recommend
	if src.Recommend.TopK != 0 {
		dst.Recommend.TopK = src.Recommend.TopK
	}
	if src.Recommend.MaxAgeHours != 0 {
		dst.Recommend.MaxAgeHours = src.Recommend.MaxAgeHours
	}
	if src.Recommend.MissingPolicy != "" {
		dst.Recommend.MissingPolicy = src.Recommend.MissingPolicy
	}

	// Ingest
	if src.Ingest.Schedule != "" {
		dst.Ingest.Schedule = src.Ingest.Schedule
	}
	if src.Ingest.Timezone != "" {
		dst.Ingest.Timezone = src.Ingest.Timezone
	}

	// Metrics
	if src.Metrics.Textfile != "" {
		dst.Metrics.Textfile = src.Metrics.Textfile
	}

	// Server
	if src.Server.Addr != "" {
		dst.Server.Addr = src.Server.Addr
	}
	if len(src.Server.AllowedOrigins) > 0 {
		dst.Server.AllowedOrigins = src.Server.AllowedOrigins
	}
}

// Resolve makes p absolute relative to the config file's directory. Absolute
// and empty paths are returned unchanged, as is every path when no file was
// loaded.
func (c *ProjectConfig) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// SourceTimeout returns the connector timeout.
func (c *ProjectConfig) SourceTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}

// MaxAge returns the staleness threshold for recommend.
func (c *ProjectConfig) MaxAge() time.Duration {
	return time.Duration(c.Recommend.MaxAgeHours * float64(time.Hour))
}
