package config

import (
	"os"
	"path/filepath"
	"testing"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "test-gemini-key")
	t.Setenv("YT_DATA_API_KEY", "test-yt-key")
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("GOOGLE_CLIENT_SECRET", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
}

func TestLoadFromEnv(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.AI.GeminiAPIKey != "test-gemini-key" {
		t.Errorf("gemini key = %q", cfg.AI.GeminiAPIKey)
	}
	if cfg.YouTube.APIKey != "test-yt-key" {
		t.Errorf("youtube key = %q", cfg.YouTube.APIKey)
	}
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.AI.Model != "gemini-2.5-flash" {
		t.Errorf("model = %q", cfg.AI.Model)
	}
	if cfg.AI.Temperature != 0.2 {
		t.Errorf("temperature = %v", cfg.AI.Temperature)
	}
	if cfg.Pipeline.StageTimeoutSeconds != 60 {
		t.Errorf("stage timeout = %d", cfg.Pipeline.StageTimeoutSeconds)
	}
	if cfg.Pipeline.Workers != 4 {
		t.Errorf("workers = %d", cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.OutputDir != "output" {
		t.Errorf("output dir = %q", cfg.Pipeline.OutputDir)
	}
	if cfg.Cache.TTLHours != 48 {
		t.Errorf("cache ttl = %d", cfg.Cache.TTLHours)
	}
	if cfg.Watch.HealthPort != 8080 {
		t.Errorf("health port = %d", cfg.Watch.HealthPort)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	setBaseEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `ai:
  model: gemini-2.5-pro
  temperature: 0.7
pipeline:
  stage_timeout_seconds: 30
  workers: 2
  output_dir: results
watch:
  schedule: "0 0 6 * * *"
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.AI.Model != "gemini-2.5-pro" {
		t.Errorf("model = %q", cfg.AI.Model)
	}
	if cfg.AI.Temperature != 0.7 {
		t.Errorf("temperature = %v", cfg.AI.Temperature)
	}
	if cfg.Pipeline.StageTimeoutSeconds != 30 {
		t.Errorf("stage timeout = %d", cfg.Pipeline.StageTimeoutSeconds)
	}
	if cfg.Pipeline.OutputDir != "results" {
		t.Errorf("output dir = %q", cfg.Pipeline.OutputDir)
	}
	if cfg.Watch.Schedule != "0 0 6 * * *" {
		t.Errorf("schedule = %q", cfg.Watch.Schedule)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	// Env still fills what the file leaves out.
	if cfg.AI.GeminiAPIKey != "test-gemini-key" {
		t.Errorf("gemini key = %q", cfg.AI.GeminiAPIKey)
	}
}

func TestLoadMissingGeminiKey(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("GEMINI_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Error("expected validation failure without a Gemini key")
	}
}

func TestLoadMissingYouTubeAccess(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("YT_DATA_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Error("expected validation failure without YouTube credentials")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	setBaseEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ai: [not: valid"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	if _, err := Load(); err == nil {
		t.Error("expected an error for malformed YAML")
	}
}
