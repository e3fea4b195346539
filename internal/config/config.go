package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type LoggingCfg struct {
	Dir          string `yaml:"dir" json:"dir"`                     // Log file directory; empty disables file logging
	RotationDays int    `yaml:"rotation_days" json:"rotation_days"` // Days to keep logs before rotation
}

type MetricsCfg struct {
	PushGateway string `yaml:"push_gateway" json:"push_gateway"` // Pushgateway address; empty disables metrics push
	JobName     string `yaml:"job_name" json:"job_name"`
}

type SafetyCfg struct {
	ProtectedPaths []string `yaml:"protected_paths" json:"protected_paths"` // Extra roots that may never be pruned
}

type ArchiveCfg struct {
	Compressors []string `yaml:"compressors" json:"compressors"` // Candidate compression tools, first one on PATH wins
}

type Config struct {
	HistoryDBPath string     `yaml:"history_db_path" json:"history_db_path"` // SQLite operation history; empty disables recording
	Logging       LoggingCfg `yaml:"logging" json:"logging"`
	Metrics       MetricsCfg `yaml:"metrics" json:"metrics"`
	Safety        SafetyCfg  `yaml:"safety" json:"safety"`
	Archive       ArchiveCfg `yaml:"archive" json:"archive"`
}

var errRelativePath = errors.New("path must be absolute")

// Default returns the configuration used when no config file is given
func Default() *Config {
	cfg := &Config{}
	// validation cannot fail on an empty config
	_ = cfg.validateAndDefault()
	return cfg
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateAndDefault(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

func (c *Config) validateAndDefault() error {
	if c.Logging.RotationDays <= 0 {
		c.Logging.RotationDays = 30 // Default: keep logs for 30 days
	}

	if c.Metrics.JobName == "" {
		c.Metrics.JobName = "dirkeep"
	}

	if len(c.Archive.Compressors) == 0 {
		c.Archive.Compressors = []string{"pigz", "gzip"}
	}

	if c.HistoryDBPath != "" {
		cp, err := cleanAbsolute(c.HistoryDBPath)
		if err != nil {
			return fmt.Errorf("history_db_path: %w", err)
		}
		c.HistoryDBPath = cp
	}

	cleaned := make([]string, 0, len(c.Safety.ProtectedPaths))
	for _, p := range c.Safety.ProtectedPaths {
		cp, err := cleanAbsolute(p)
		if err != nil {
			return fmt.Errorf("protected path: %w", err)
		}
		cleaned = append(cleaned, cp)
	}
	c.Safety.ProtectedPaths = cleaned

	return nil
}

func cleanAbsolute(p string) (string, error) {
	if p == "" {
		return "", errRelativePath
	}
	cp := filepath.Clean(p)
	if !filepath.IsAbs(cp) {
		return "", fmt.Errorf("%w: %s", errRelativePath, p)
	}
	return cp, nil
}
