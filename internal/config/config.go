// Package config reads the yukari configuration file
// (~/.config/yukari/config.yaml).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/samcharles93/yukari/internal/session"
)

// Environment variables that override the file.
const (
	EnvModelDir   = "YUKARI_MODEL_DIR"
	EnvMemoryPath = "YUKARI_MEMORY_PATH"
)

// DefaultMemoryPath is used when neither the file nor a flag names one.
const DefaultMemoryPath = "yukarimemory.json"

// File is the on-disk configuration. Numeric and boolean fields are pointers
// so "not set" is distinguishable from zero.
type File struct {
	// Context opens every prompt.
	Context string `yaml:"context"`

	// Model
	ModelDir     string `yaml:"model_dir"`
	Backend      string `yaml:"backend"`
	PredictorURL string `yaml:"predictor_url"`
	Seed         *int64 `yaml:"seed"`

	// Sampling and turn defaults
	Temperature  *float64 `yaml:"temperature"`
	TopK         *int     `yaml:"top_k"`
	TopP         *float64 `yaml:"top_p"`
	Nucleus      *bool    `yaml:"nucleus"`
	Greedy       *bool    `yaml:"greedy"`
	BatchSize    *int     `yaml:"batch_size"`
	OutputLength *int     `yaml:"output_length"`
	PastLength   *int     `yaml:"past_length"`

	MemoryPath string `yaml:"memory_path"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

// DefaultPath returns the config location under the user config directory,
// or "" when that cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "yukari", "config.yaml")
}

// Load reads path. A missing file yields a zero File and no error.
func Load(path string) (File, error) {
	if path == "" {
		return File{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return File{}, nil
	}
	if err != nil {
		return File{}, fmt.Errorf("read config: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return f, nil
}

// WithEnv returns f with values from the environment applied on top.
func (f File) WithEnv(getenv func(string) string) File {
	if v := getenv(EnvModelDir); v != "" {
		f.ModelDir = v
	}
	if v := getenv(EnvMemoryPath); v != "" {
		f.MemoryPath = v
	}
	return f
}

// Settings overlays the fields set in f onto base.
func (f File) Settings(base session.Settings) session.Settings {
	if f.Temperature != nil {
		base.Temperature = *f.Temperature
	}
	if f.TopK != nil {
		base.TopK = *f.TopK
	}
	if f.TopP != nil {
		base.TopP = *f.TopP
	}
	if f.Nucleus != nil {
		base.Nucleus = *f.Nucleus
	}
	if f.Greedy != nil {
		base.Greedy = *f.Greedy
	}
	if f.BatchSize != nil {
		base.BatchSize = *f.BatchSize
	}
	if f.OutputLength != nil {
		base.OutputLength = *f.OutputLength
	}
	if f.PastLength != nil {
		base.PastLength = *f.PastLength
	}
	return base
}
