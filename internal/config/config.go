// Package config handles Stillpoint configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all configuration
type Config struct {
	// Paths
	DataDir string `json:"data_dir"`

	// Server
	Server ServerConfig `json:"server"`

	// Services
	Qdrant QdrantConfig `json:"qdrant"`
	Ollama OllamaConfig `json:"ollama"`
	Claude ClaudeConfig `json:"claude"`
	Google GoogleConfig `json:"google"`

	// Assessment behavior
	Assessment AssessmentConfig `json:"assessment"`

	// Logging
	LogLevel string `json:"log_level"`
}

// ServerConfig for HTTP server
type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// QdrantConfig for vector database
type QdrantConfig struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Collection string `json:"collection"`
}

// OllamaConfig for local LLM and embeddings
type OllamaConfig struct {
	URL        string `json:"url"`
	Model      string `json:"model"`
	EmbedModel string `json:"embed_model"`
}

// ClaudeConfig for Claude API
type ClaudeConfig struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

// GoogleConfig for Calendar reminders
type GoogleConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURL  string `json:"redirect_url"`
}

// AssessmentConfig tunes the conversation state machine
type AssessmentConfig struct {
	// MaxTurnsInStage caps how long a probing stage may hold the
	// conversation before advancing with the field left unknown.
	MaxTurnsInStage int `json:"max_turns_in_stage"`

	// ExtractTimeoutSeconds bounds each model extraction call.
	ExtractTimeoutSeconds int `json:"extract_timeout_seconds"`

	// KeywordOnly disables model extraction entirely, relying on
	// the keyword tables. Useful for offline operation and tests.
	KeywordOnly bool `json:"keyword_only"`
}

// Default returns default configuration
func Default() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		DataDir: filepath.Join(home, ".stillpoint"),
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "teachings",
		},
		Ollama: OllamaConfig{
			URL:        "http://localhost:11434",
			Model:      "llama3.2",
			EmbedModel: "nomic-embed-text",
		},
		Claude: ClaudeConfig{
			APIKey: os.Getenv("ANTHROPIC_API_KEY"),
			Model:  "claude-sonnet-4-20250514",
		},
		Google: GoogleConfig{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  "http://localhost:8080/auth/google/callback",
		},
		Assessment: AssessmentConfig{
			MaxTurnsInStage:       5,
			ExtractTimeoutSeconds: 20,
			KeywordOnly:           false,
		},
		LogLevel: "info",
	}
}

// Load loads config from file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = filepath.Join(cfg.DataDir, "config.json")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil // Use defaults
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	if cfg.Assessment.MaxTurnsInStage < 1 {
		cfg.Assessment.MaxTurnsInStage = 5
	}
	if cfg.Assessment.ExtractTimeoutSeconds < 1 {
		cfg.Assessment.ExtractTimeoutSeconds = 20
	}

	return cfg, nil
}

// applyEnv lets environment variables override secrets and knobs
// so they never need to live in the config file.
func (c *Config) applyEnv() {
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		c.Claude.APIKey = apiKey
	}
	if id := os.Getenv("GOOGLE_CLIENT_ID"); id != "" {
		c.Google.ClientID = id
	}
	if secret := os.Getenv("GOOGLE_CLIENT_SECRET"); secret != "" {
		c.Google.ClientSecret = secret
	}
	if lvl := os.Getenv("STILLPOINT_LOG_LEVEL"); lvl != "" {
		c.LogLevel = lvl
	}
	if turns := os.Getenv("STILLPOINT_MAX_TURNS_IN_STAGE"); turns != "" {
		if n, err := strconv.Atoi(turns); err == nil && n > 0 {
			c.Assessment.MaxTurnsInStage = n
		}
	}
}

// Save saves config to file
func (c *Config) Save(path string) error {
	if path == "" {
		path = filepath.Join(c.DataDir, "config.json")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	// Don't save secrets to file
	safeCfg := *c
	safeCfg.Claude.APIKey = ""
	safeCfg.Google.ClientSecret = ""

	data, err := json.MarshalIndent(safeCfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
