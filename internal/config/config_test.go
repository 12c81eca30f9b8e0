package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// =============================================================================
// Default Config Tests
// =============================================================================

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.DataDir == "" {
		t.Error("DataDir should not be empty")
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "localhost")
	}

	if cfg.Qdrant.Port != 6334 {
		t.Errorf("Qdrant.Port = %d, want 6334", cfg.Qdrant.Port)
	}
	if cfg.Qdrant.Collection != "teachings" {
		t.Errorf("Qdrant.Collection = %q, want %q", cfg.Qdrant.Collection, "teachings")
	}

	if cfg.Ollama.URL != "http://localhost:11434" {
		t.Errorf("Ollama.URL = %q, want %q", cfg.Ollama.URL, "http://localhost:11434")
	}
	if cfg.Ollama.EmbedModel != "nomic-embed-text" {
		t.Errorf("Ollama.EmbedModel = %q, want %q", cfg.Ollama.EmbedModel, "nomic-embed-text")
	}

	if cfg.Assessment.MaxTurnsInStage != 5 {
		t.Errorf("Assessment.MaxTurnsInStage = %d, want 5", cfg.Assessment.MaxTurnsInStage)
	}
	if cfg.Assessment.ExtractTimeoutSeconds != 20 {
		t.Errorf("Assessment.ExtractTimeoutSeconds = %d, want 20", cfg.Assessment.ExtractTimeoutSeconds)
	}
	if cfg.Assessment.KeywordOnly {
		t.Error("Assessment.KeywordOnly should default to false")
	}
}

func TestDefault_DataDirBase(t *testing.T) {
	cfg := Default()

	if !filepath.IsAbs(cfg.DataDir) {
		t.Error("DataDir should be an absolute path")
	}
	if filepath.Base(cfg.DataDir) != ".stillpoint" {
		t.Errorf("DataDir should end with .stillpoint, got %q", filepath.Base(cfg.DataDir))
	}
}

// =============================================================================
// Load Config Tests
// =============================================================================

func TestLoad_NonExistentFile(t *testing.T) {
	cfg, err := Load("/non/existent/path/config.json")

	if err != nil {
		t.Fatalf("Load() error = %v, want nil for non-existent file", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080 (default)", cfg.Server.Port)
	}
}

func TestLoad_ValidConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	raw := map[string]interface{}{
		"server": map[string]interface{}{"port": 9090, "host": "0.0.0.0"},
		"assessment": map[string]interface{}{
			"max_turns_in_stage": 3,
			"keyword_only":       true,
		},
	}
	data, _ := json.Marshal(raw)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Assessment.MaxTurnsInStage != 3 {
		t.Errorf("Assessment.MaxTurnsInStage = %d, want 3", cfg.Assessment.MaxTurnsInStage)
	}
	if !cfg.Assessment.KeywordOnly {
		t.Error("Assessment.KeywordOnly should be true")
	}
	// Fields not in the file keep defaults.
	if cfg.Qdrant.Port != 6334 {
		t.Errorf("Qdrant.Port = %d, want 6334 (default)", cfg.Qdrant.Port)
	}
}

func TestLoad_ClampsBadAssessmentValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	os.WriteFile(configPath, []byte(`{"assessment":{"max_turns_in_stage":0,"extract_timeout_seconds":-4}}`), 0644)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Assessment.MaxTurnsInStage != 5 {
		t.Errorf("MaxTurnsInStage = %d, want clamped default 5", cfg.Assessment.MaxTurnsInStage)
	}
	if cfg.Assessment.ExtractTimeoutSeconds != 20 {
		t.Errorf("ExtractTimeoutSeconds = %d, want clamped default 20", cfg.Assessment.ExtractTimeoutSeconds)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	os.WriteFile(configPath, []byte(`{"claude":{"api_key":"file-key"},"assessment":{"max_turns_in_stage":4}}`), 0644)

	os.Setenv("ANTHROPIC_API_KEY", "env-key")
	os.Setenv("STILLPOINT_MAX_TURNS_IN_STAGE", "7")
	defer os.Unsetenv("ANTHROPIC_API_KEY")
	defer os.Unsetenv("STILLPOINT_MAX_TURNS_IN_STAGE")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Claude.APIKey != "env-key" {
		t.Errorf("Claude.APIKey = %q, want env override", cfg.Claude.APIKey)
	}
	if cfg.Assessment.MaxTurnsInStage != 7 {
		t.Errorf("MaxTurnsInStage = %d, want env override 7", cfg.Assessment.MaxTurnsInStage)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	os.WriteFile(configPath, []byte("{ invalid json }"), 0644)

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() should return error for invalid JSON")
	}
}

// =============================================================================
// Save Config Tests
// =============================================================================

func TestSave_CreatesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.json")

	cfg := Default()
	cfg.DataDir = tmpDir
	cfg.Server.Port = 9999

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read saved config: %v", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("failed to unmarshal saved config: %v", err)
	}
	if loaded.Server.Port != 9999 {
		t.Errorf("saved Server.Port = %d, want 9999", loaded.Server.Port)
	}
}

func TestSave_DoesNotSaveSecrets(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	cfg := Default()
	cfg.Claude.APIKey = "super-secret-key"
	cfg.Google.ClientSecret = "google-secret"

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, _ := os.ReadFile(configPath)
	if strings.Contains(string(data), "super-secret-key") {
		t.Error("API key should not be saved to file")
	}
	if strings.Contains(string(data), "google-secret") {
		t.Error("Google client secret should not be saved to file")
	}

	// Original config keeps its secrets in memory.
	if cfg.Claude.APIKey != "super-secret-key" {
		t.Error("original config API key was modified")
	}
}

func TestSave_FilePermissions(t *testing.T) {
	if os.Getenv("OS") == "Windows_NT" {
		t.Skip("Skipping permission test on Windows")
	}

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	cfg := Default()
	cfg.Save(configPath)

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("failed to stat config file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}

func TestLoadAndSave_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	original := Default()
	original.DataDir = tmpDir
	original.Server.Port = 5000
	original.Assessment.MaxTurnsInStage = 2

	if err := original.Save(configPath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.Server.Port != original.Server.Port {
		t.Errorf("loaded Server.Port = %d, want %d", loaded.Server.Port, original.Server.Port)
	}
	if loaded.Assessment.MaxTurnsInStage != original.Assessment.MaxTurnsInStage {
		t.Errorf("loaded MaxTurnsInStage = %d, want %d", loaded.Assessment.MaxTurnsInStage, original.Assessment.MaxTurnsInStage)
	}
}

// =============================================================================
// Benchmark Tests
// =============================================================================

func BenchmarkDefault(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Default()
	}
}

func BenchmarkLoad_ExistingFile(b *testing.B) {
	tmpDir := b.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	cfg := Default()
	cfg.Save(configPath)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Load(configPath)
	}
}
