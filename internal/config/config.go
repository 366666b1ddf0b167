package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Config is the persistent configuration shared by moviefinder, mf and recserver.
type Config struct {
	// Client (TUI and mf)
	Client ClientConfig `json:"client"`

	// Development backend
	Server ServerConfig `json:"server"`

	// LLM providers used by the backend for the narrative
	Models ModelConfig `json:"models"`

	// Catalog import
	TMDB TMDBConfig `json:"tmdb"`
}

// ClientConfig holds settings for the recommendation client.
type ClientConfig struct {
	BackendURL   string `json:"backend_url"`
	ImageBaseURL string `json:"image_base_url"`
	// TimeoutSeconds bounds each backend call. 0 means no timeout, so a hung
	// backend keeps the loading indicator up until the call errors.
	TimeoutSeconds int `json:"timeout_seconds"`
	// CardWidth is the width of one movie card in the results grid.
	CardWidth int `json:"card_width"`
}

// ServerConfig holds settings for recserver.
type ServerConfig struct {
	Addr               string   `json:"addr"`
	DBPath             string   `json:"db_path,omitempty"` // defaults to DataDir()/catalog.db
	CORSOrigins        []string `json:"cors_origins"`
	RateLimitPerMinute int      `json:"rate_limit_per_minute"` // 0 disables
}

// ModelConfig selects the LLM used to write recommendations.
type ModelConfig struct {
	Preferred string        `json:"preferred"` // "groq" or "ollama"
	Groq      ModelSettings `json:"groq"`
	Ollama    ModelSettings `json:"ollama"`
}

// ModelSettings for a single provider.
type ModelSettings struct {
	Enabled  bool   `json:"enabled"`
	APIKey   string `json:"api_key,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
	Model    string `json:"model,omitempty"`
}

// TMDBConfig holds catalog import settings.
type TMDBConfig struct {
	APIKey string `json:"api_key,omitempty"`
	Pages  int    `json:"pages"`
}

// DefaultConfig returns the defaults used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			BackendURL:   "http://0.0.0.0:5001",
			ImageBaseURL: "https://image.tmdb.org/t/p/w500",
			CardWidth:    34,
		},
		Server: ServerConfig{
			Addr:               ":5001",
			CORSOrigins:        []string{"*"},
			RateLimitPerMinute: 60,
		},
		Models: ModelConfig{
			Preferred: "groq",
			Groq: ModelSettings{
				Enabled:  true,
				Endpoint: "https://api.groq.com/openai/v1/chat/completions",
				Model:    "llama-3.3-70b-versatile",
			},
			Ollama: ModelSettings{
				Enabled:  false,
				Endpoint: "http://localhost:11434",
				// Model auto-detected if empty
			},
		},
		TMDB: TMDBConfig{
			Pages: 20,
		},
	}
}

// DataDir returns ~/.moviefinder.
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".moviefinder")
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.json")
}

// EventLogPath returns the path to the JSONL event log.
func EventLogPath() string {
	return filepath.Join(DataDir(), "moviefinder.events.jsonl")
}

// Load reads the config at ConfigPath and applies environment overrides.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path. A missing file yields defaults.
// Environment overrides are applied in both cases.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// Save writes the config to ConfigPath.
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the config to path with owner-only permissions (it holds API keys).
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("MOVIEFINDER_BACKEND_URL"); v != "" {
		c.Client.BackendURL = v
	}
	if v := os.Getenv("MOVIEFINDER_IMAGE_BASE"); v != "" {
		c.Client.ImageBaseURL = v
	}
	if v := os.Getenv("MOVIEFINDER_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Client.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("MOVIEFINDER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("MOVIEFINDER_DB"); v != "" {
		c.Server.DBPath = v
	}
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		c.Models.Groq.APIKey = v
		c.Models.Groq.Enabled = true
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		c.Models.Ollama.Endpoint = v
		c.Models.Ollama.Enabled = true
	}
	if v := os.Getenv("TMDB_API_KEY"); v != "" {
		c.TMDB.APIKey = v
	}
}

// LoadKeysFromFile reads "export KEY=value" lines (a keys.sh) and applies
// the keys it recognizes.
func (c *Config) LoadKeysFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimPrefix(strings.TrimSpace(line), "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"'`)

		switch key {
		case "GROQ_API_KEY":
			c.Models.Groq.APIKey = value
			c.Models.Groq.Enabled = true
		case "TMDB_API_KEY":
			c.TMDB.APIKey = value
		}
	}
	return nil
}

// Timeout returns the client request timeout; zero means none.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Client.TimeoutSeconds) * time.Second
}

// ResolvedDBPath returns the catalog database path.
func (c *Config) ResolvedDBPath() string {
	if c.Server.DBPath != "" {
		return c.Server.DBPath
	}
	return filepath.Join(DataDir(), "catalog.db")
}
