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

type Config struct {
	DBPath         string   `json:"db_path"`
	WebEnabled     bool     `json:"web_enabled"`
	WebPort        int      `json:"web_port"`
	AllowedOrigins []string `json:"allowed_origins,omitempty"`
	CatalogPath    string   `json:"catalog_path,omitempty"`
	Timezone       string   `json:"timezone"`
	PageSize       int      `json:"page_size"`
}

func Default() Config {
	return Config{
		WebPort:  8080,
		Timezone: "America/Mexico_City",
		PageSize: 50,
	}
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "obracrm", "config.json"), nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

// Load reads the config file at path and applies the OBRACRM_* environment
// overrides on top of it.
func Load(path string) (Config, error) {
	config, err := LoadFile(path)
	if err != nil {
		return Config{}, err
	}
	ApplyEnv(&config)
	return config, nil
}

// LoadFile reads the config file at path without the environment layer.
// A missing file yields the defaults. This is the config Save writes back.
func LoadFile(path string) (Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return Config{}, err
	}
	if err == nil {
		if err := json.Unmarshal(data, &config); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	return config, nil
}

func ApplyEnv(cfg *Config) {
	envOverride(&cfg.DBPath, "OBRACRM_DB_PATH")
	envOverrideBool(&cfg.WebEnabled, "OBRACRM_WEB_ENABLED")
	envOverrideInt(&cfg.WebPort, "OBRACRM_WEB_PORT")
	envOverride(&cfg.CatalogPath, "OBRACRM_CATALOG_PATH")
	envOverride(&cfg.Timezone, "OBRACRM_TIMEZONE")
	envOverrideInt(&cfg.PageSize, "OBRACRM_PAGE_SIZE")

	if origins := os.Getenv("OBRACRM_ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = nil
		for _, origin := range strings.Split(origins, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// Location resolves the configured timezone. Dates without a time of day
// and the "today" of date grouping are computed in it.
func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func envOverride(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func envOverrideInt(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

func envOverrideBool(target *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*target = b
		}
	}
}
