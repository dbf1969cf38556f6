package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"deltae/internal/ciede2000"
)

//go:embed sample_config.toml
var sampleConfig string

// Input controls how source streams are read.
type Input struct {
	// BlockSize is the number of bytes read from each source per step.
	BlockSize int `toml:"block_size"`
	// StrictEOF stops the run at the first exhausted source without
	// accounting for the other stream's remaining frames.
	StrictEOF bool `toml:"strict_eof"`
}

// Metric holds the CIEDE2000 weights and the score ceiling.
type Metric struct {
	KL       float64 `toml:"kl"`
	KC       float64 `toml:"kc"`
	KH       float64 `toml:"kh"`
	MaxScore float64 `toml:"max_score"`
}

// Output controls what is written to stdout.
type Output struct {
	Format      string `toml:"format"`
	SummaryOnly bool   `toml:"summary_only"`
	// Progress is one of auto, always or never.
	Progress string `toml:"progress"`
}

// History controls the local run database.
type History struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
	// Keep is the number of most recent runs retained. Zero keeps all.
	Keep int `toml:"keep"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// File, when set, receives a JSON copy of every log record.
	File string `toml:"file"`
}

// Config encapsulates all configuration values for deltae.
type Config struct {
	Input   Input   `toml:"input"`
	Metric  Metric  `toml:"metric"`
	Output  Output  `toml:"output"`
	History History `toml:"history"`
	Logging Logging `toml:"logging"`
}

// Weights returns the configured CIEDE2000 parametric factors.
func (c *Config) Weights() ciede2000.Weights {
	return ciede2000.Weights{KL: c.Metric.KL, KC: c.Metric.KC, KH: c.Metric.KH}
}

// HistoryPath returns the SQLite database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.History.Dir, historyFileName)
}

// HistoryLockPath returns the lock file guarding history writes.
func (c *Config) HistoryLockPath() string {
	return filepath.Join(c.History.Dir, historyFileName+".lock")
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strings.TrimSpace(strict.String()))
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the history directory when history is enabled.
func (c *Config) EnsureDirectories() error {
	if !c.History.Enabled {
		return nil
	}
	if err := os.MkdirAll(c.History.Dir, 0o755); err != nil {
		return fmt.Errorf("create history directory %q: %w", c.History.Dir, err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultHistoryDir() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "deltae")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.local/state/deltae"
	}
	return filepath.Join(home, ".local", "state", "deltae")
}

// CreateSample writes a sample configuration file to the specified location.
// An existing file is never overwritten.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("config already exists at %s: %w", path, fs.ErrExist)
		}
		return fmt.Errorf("write sample config: %w", err)
	}
	defer file.Close()
	if _, err := file.WriteString(sampleConfig); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SampleConfig returns the annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}
