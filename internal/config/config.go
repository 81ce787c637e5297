// Package config handles the global ~/.vktui/config.toml plus
// environment overrides loaded from an optional .env file.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// EnvToken is the environment variable that overrides the stored OAuth
// token, mainly for scripted use of vkctl.
const EnvToken = "VK_ACCESS_TOKEN"

// Config represents the global ~/.vktui/config.toml.
type Config struct {
	DefaultSession string `toml:"default_session"`
	// APIBaseURL overrides the API endpoint, empty for production.
	APIBaseURL string `toml:"api_base_url"`
	// LongPollWait is the server-side poll hold in seconds, 0 for the
	// default.
	LongPollWait int `toml:"long_poll_wait"`
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// LoadEnv loads a .env file next to the config, if present, then
// returns the token override from the environment. A missing .env is
// not an error.
func LoadEnv(configPath string) string {
	_ = godotenv.Load(filepath.Join(filepath.Dir(configPath), ".env"))
	return os.Getenv(EnvToken)
}
