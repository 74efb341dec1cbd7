package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings holds process-level options loaded from voxflow.yml.
type Settings struct {
	LogLevel          string             `yaml:"logLevel,omitempty"`
	LogFormat         string             `yaml:"logFormat,omitempty"`
	ConfigPath        string             `yaml:"configPath,omitempty"`
	MaxConcurrentRuns int                `yaml:"maxConcurrentRuns,omitempty"`
	WatchConfig       bool               `yaml:"watchConfig,omitempty"`
	ToolServer        ToolServerSettings `yaml:"toolServer,omitempty"`
}

// ToolServerSettings configures the local tool endpoint.
type ToolServerSettings struct {
	Name         string `yaml:"name,omitempty"`
	Host         string `yaml:"host,omitempty"`
	Instructions string `yaml:"instructions,omitempty"`
}

// LoadSettings attempts to read voxflow.yml or voxflow.yaml from the given
// directory, then applies VOXFLOW_* environment overrides and defaults.
// A missing file is not an error.
func LoadSettings(dir string) (*Settings, error) {
	var s Settings
	for _, name := range []string{"voxflow.yml", "voxflow.yaml"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		break
	}
	s.applyEnv(os.LookupEnv)
	s.applyDefaults()
	return &s, nil
}

func (s *Settings) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("VOXFLOW_LOG_LEVEL"); ok && v != "" {
		s.LogLevel = v
	}
	if v, ok := lookup("VOXFLOW_LOG_FORMAT"); ok && v != "" {
		s.LogFormat = v
	}
	if v, ok := lookup("VOXFLOW_CONFIG"); ok && v != "" {
		s.ConfigPath = v
	}
	if v, ok := lookup("VOXFLOW_MAX_CONCURRENT_RUNS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			s.MaxConcurrentRuns = n
		}
	}
	if v, ok := lookup("VOXFLOW_WATCH_CONFIG"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.WatchConfig = b
		}
	}
}

func (s *Settings) applyDefaults() {
	s.LogLevel = strings.ToLower(s.LogLevel)
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	if s.LogFormat == "" {
		s.LogFormat = "console"
	}
	if s.ConfigPath == "" {
		s.ConfigPath = DefaultConfigPath()
	}
	if s.MaxConcurrentRuns <= 0 {
		s.MaxConcurrentRuns = 4
	}
}

// DefaultConfigPath returns the per-user configuration file location.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "voxflow.json"
	}
	return filepath.Join(dir, "voxflow", "config.json")
}
