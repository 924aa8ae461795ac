package config

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the client configuration: where the backend lives, how to
// authenticate, which project is active and where the offline cache sits.
type Config struct {
	BackendURL string `yaml:"backend_url"`
	SessionURL string `yaml:"session_url"`
	Token      string `yaml:"token"`
	ProjectID  string `yaml:"project_id"`
	CachePath  string `yaml:"cache_path"`
}

// Load reads the yaml config file, then overlays environment variables
// (CANARY_BACKEND_URL, CANARY_SESSION_URL, CANARY_TOKEN, CANARY_PROJECT_ID,
// CANARY_CACHE_PATH). A .env file next to the process is honored when
// present. A missing backend URL is a configuration error: callers cannot
// reach anything without it.
func Load(filename string) (*Config, error) {
	var ret Config

	if filename != "" {
		f, err := os.Open(filename)
		if err != nil {
			return nil, fmt.Errorf("while opening config file: %w", err)
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("while reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &ret); err != nil {
			return nil, fmt.Errorf("while parsing config file: %w", err)
		}
	}

	// A .env file is optional; a missing one is not an error.
	_ = godotenv.Load()
	applyEnv(&ret)

	if ret.BackendURL == "" {
		return nil, fmt.Errorf("backend URL is not configured (set backend_url or CANARY_BACKEND_URL)")
	}
	if ret.ProjectID == "" {
		return nil, fmt.Errorf("project id is not configured (set project_id or CANARY_PROJECT_ID)")
	}
	if ret.CachePath == "" {
		ret.CachePath = "canary-cache.db"
	}
	return &ret, nil
}

func applyEnv(c *Config) {
	overlay := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	overlay(&c.BackendURL, "CANARY_BACKEND_URL")
	overlay(&c.SessionURL, "CANARY_SESSION_URL")
	overlay(&c.Token, "CANARY_TOKEN")
	overlay(&c.ProjectID, "CANARY_PROJECT_ID")
	overlay(&c.CachePath, "CANARY_CACHE_PATH")
}
