package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config carries process-level settings for the console: where the backend
// lives, how long requests may take, and where user settings persist.
type Config struct {
	BackendBase  string `json:"backend_base"`
	SettingsPath string `json:"settings_path"`

	Timeout       time.Duration `json:"-"`
	TimeoutString string        `json:"timeout"`

	HTTPMaxIdleConns    int `json:"http_max_idle_conns"`
	HTTPMaxIdlePerHost  int `json:"http_max_idle_per_host"`
	HTTPMaxConnsPerHost int `json:"http_max_conns_per_host"`
}

func (c Config) Merge(override Config) Config {
	result := c
	if strings.TrimSpace(override.BackendBase) != "" {
		result.BackendBase = strings.TrimSpace(override.BackendBase)
	}
	if strings.TrimSpace(override.SettingsPath) != "" {
		result.SettingsPath = strings.TrimSpace(override.SettingsPath)
	}
	if override.Timeout > 0 {
		result.Timeout = override.Timeout
	}
	if strings.TrimSpace(override.TimeoutString) != "" {
		result.TimeoutString = strings.TrimSpace(override.TimeoutString)
	}
	if override.HTTPMaxIdleConns > 0 {
		result.HTTPMaxIdleConns = override.HTTPMaxIdleConns
	}
	if override.HTTPMaxIdlePerHost > 0 {
		result.HTTPMaxIdlePerHost = override.HTTPMaxIdlePerHost
	}
	if override.HTTPMaxConnsPerHost > 0 {
		result.HTTPMaxConnsPerHost = override.HTTPMaxConnsPerHost
	}
	return result
}

// LoadConfig resolves configuration in ascending precedence: defaults, an
// optional JSON file named by RAGOPS_CONFIG_FILE, then RAGOPS_* environment
// variables. The persisted settings file is applied separately by the store.
func LoadConfig() (Config, error) {
	cfg := Config{}
	if path := strings.TrimSpace(os.Getenv("RAGOPS_CONFIG_FILE")); path != "" {
		fileCfg, err := loadConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = cfg.Merge(fileCfg)
	}
	envCfg, err := loadConfigEnv()
	if err != nil {
		return Config{}, err
	}
	cfg = cfg.Merge(envCfg)
	cfg.applyDefaults()
	return cfg, nil
}

func loadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func loadConfigEnv() (Config, error) {
	cfg := Config{
		BackendBase:   strings.TrimSpace(os.Getenv("RAGOPS_BACKEND")),
		SettingsPath:  strings.TrimSpace(os.Getenv("RAGOPS_SETTINGS_FILE")),
		TimeoutString: strings.TrimSpace(os.Getenv("RAGOPS_TIMEOUT")),
	}
	for _, pair := range []struct {
		env string
		dst *int
	}{
		{"RAGOPS_HTTP_MAX_IDLE_CONNS", &cfg.HTTPMaxIdleConns},
		{"RAGOPS_HTTP_MAX_IDLE_PER_HOST", &cfg.HTTPMaxIdlePerHost},
		{"RAGOPS_HTTP_MAX_CONNS_PER_HOST", &cfg.HTTPMaxConnsPerHost},
	} {
		raw := strings.TrimSpace(os.Getenv(pair.env))
		if raw == "" {
			continue
		}
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", pair.env, err)
		}
		*pair.dst = parsed
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.BackendBase) == "" {
		c.BackendBase = DefaultBackendBase
	}
	if strings.TrimSpace(c.SettingsPath) == "" {
		c.SettingsPath = defaultSettingsPath()
	}
	if c.Timeout <= 0 {
		if c.TimeoutString != "" {
			if parsed, err := time.ParseDuration(c.TimeoutString); err == nil {
				c.Timeout = parsed
			}
		}
		if c.Timeout <= 0 {
			c.Timeout = 10 * time.Minute
		}
	}
	if c.HTTPMaxIdleConns <= 0 {
		c.HTTPMaxIdleConns = 16
	}
	if c.HTTPMaxIdlePerHost <= 0 {
		c.HTTPMaxIdlePerHost = 4
	}
}

// DefaultBackendBase targets a locally published RAG API. The browser console
// this tool replaces used the relative prefix /api behind the same origin; a
// standalone client needs an absolute address.
const DefaultBackendBase = "http://localhost:8000"

func defaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".ragops", "settings.json")
	}
	return filepath.Join(dir, "ragops", "settings.json")
}
