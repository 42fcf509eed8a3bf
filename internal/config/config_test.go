package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"scandoc-translator/internal/types"
)

func TestNewManager(t *testing.T) {
	t.Run("with custom path", func(t *testing.T) {
		customPath := filepath.Join(t.TempDir(), "test-config.json")
		m, err := NewManager(customPath)
		if err != nil {
			t.Fatalf("NewManager failed: %v", err)
		}
		if m.GetConfigPath() != customPath {
			t.Errorf("expected config path %s, got %s", customPath, m.GetConfigPath())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		m, err := NewManager("")
		if err != nil {
			t.Fatalf("NewManager failed: %v", err)
		}
		if m.GetConfigPath() == "" {
			t.Error("expected non-empty config path")
		}
	})
}

func TestManagerLoadSave(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "test-config.json")

	t.Run("load with missing file uses defaults", func(t *testing.T) {
		m, err := NewManager(configPath)
		if err != nil {
			t.Fatalf("NewManager failed: %v", err)
		}
		if err := m.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		cfg := m.GetConfig()
		if cfg.MistralBaseURL != DefaultBaseURL {
			t.Errorf("expected default base URL, got %s", cfg.MistralBaseURL)
		}
		if cfg.OCRModel != DefaultOCRModel {
			t.Errorf("expected default OCR model, got %s", cfg.OCRModel)
		}
		if cfg.ChatModel != DefaultChatModel {
			t.Errorf("expected default chat model, got %s", cfg.ChatModel)
		}
		if cfg.TimeoutSeconds != DefaultTimeoutSeconds {
			t.Errorf("expected default timeout, got %d", cfg.TimeoutSeconds)
		}
	})

	t.Run("save and reload round trip", func(t *testing.T) {
		m, _ := NewManager(configPath)
		m.Load()
		m.GetConfig().MistralAPIKey = "test-key"
		m.GetConfig().ChatModel = "mistral-large-latest"
		if err := m.Save(); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		m2, _ := NewManager(configPath)
		if err := m2.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if m2.GetAPIKey() != "test-key" {
			t.Errorf("expected saved API key, got %q", m2.GetAPIKey())
		}
		if m2.GetChatModel() != "mistral-large-latest" {
			t.Errorf("expected saved chat model, got %q", m2.GetChatModel())
		}
	})

	t.Run("invalid JSON falls back to defaults", func(t *testing.T) {
		badPath := filepath.Join(t.TempDir(), "bad-config.json")
		os.WriteFile(badPath, []byte("{not json"), 0600)

		m, _ := NewManager(badPath)
		if err := m.Load(); err != nil {
			t.Fatalf("Load should not fail on invalid JSON: %v", err)
		}
		if m.GetConfig().MistralBaseURL != DefaultBaseURL {
			t.Errorf("expected defaults after invalid JSON")
		}
	})

	t.Run("partial config gets defaults applied", func(t *testing.T) {
		partialPath := filepath.Join(t.TempDir(), "partial-config.json")
		data, _ := json.Marshal(&types.Config{MistralAPIKey: "k"})
		os.WriteFile(partialPath, data, 0600)

		m, _ := NewManager(partialPath)
		if err := m.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if m.GetOCRModel() != DefaultOCRModel {
			t.Errorf("expected default OCR model, got %q", m.GetOCRModel())
		}
		if m.GetAPIKey() != "k" {
			t.Errorf("expected key from file, got %q", m.GetAPIKey())
		}
	})
}

func TestAPIKeyEnvFallback(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "test-config.json")
	m, _ := NewManager(configPath)
	m.Load()

	t.Setenv(EnvMistralAPIKey, "env-key")
	if m.GetAPIKey() != "env-key" {
		t.Errorf("expected env fallback, got %q", m.GetAPIKey())
	}

	key, err := m.RequireAPIKey()
	if err != nil {
		t.Fatalf("RequireAPIKey failed: %v", err)
	}
	if key != "env-key" {
		t.Errorf("expected env-key, got %q", key)
	}
}

func TestRequireAPIKeyMissing(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "test-config.json")
	m, _ := NewManager(configPath)
	m.Load()

	t.Setenv(EnvMistralAPIKey, "")
	_, err := m.RequireAPIKey()
	if err == nil {
		t.Fatal("expected error when API key missing")
	}
	if types.CodeOf(err) != types.ErrConfig {
		t.Errorf("expected ErrConfig, got %v", types.CodeOf(err))
	}
}

func TestBaseURLEnvFallback(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "test-config.json")
	m, _ := NewManager(configPath)
	m.Load()

	t.Setenv(EnvMistralBaseURL, "http://localhost:8080/v1")
	if m.GetBaseURL() != "http://localhost:8080/v1" {
		t.Errorf("expected env base URL, got %q", m.GetBaseURL())
	}
}
