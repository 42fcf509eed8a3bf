// Package config provides configuration management for the scandoc translator.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"scandoc-translator/internal/logger"
	"scandoc-translator/internal/types"
)

const (
	// DefaultConfigFileName is the default configuration file name
	DefaultConfigFileName = "scandoc-translator-config.json"
	// EnvMistralAPIKey is the environment variable supplying the API credential
	EnvMistralAPIKey = "MISTRAL_API_KEY"
	// EnvMistralBaseURL is the environment variable name for the API base URL
	EnvMistralBaseURL = "MISTRAL_BASE_URL"
	// DefaultBaseURL is the default Mistral API base URL
	DefaultBaseURL = "https://api.mistral.ai/v1"
	// DefaultOCRModel is the default document OCR model
	DefaultOCRModel = "mistral-ocr-latest"
	// DefaultChatModel is the default model for the clean and translate transforms
	DefaultChatModel = "mistral-medium-latest"
	// DefaultTimeoutSeconds is the default per-call API timeout
	DefaultTimeoutSeconds = 300
)

// Manager manages application configuration
type Manager struct {
	configPath string
	config     *types.Config
}

// NewManager creates a new Manager with the specified config path.
// If configPath is empty, it uses the default path in the user's home directory.
func NewManager(configPath string) (*Manager, error) {
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			logger.Error("failed to get user home directory", err)
			return nil, types.NewAppError(types.ErrConfig, "failed to get user home directory", err)
		}
		configPath = filepath.Join(homeDir, ".config", "scandoc-translator", DefaultConfigFileName)
	}

	logger.Info("config manager initialized", logger.String("configPath", configPath))
	return &Manager{
		configPath: configPath,
		config:     defaultConfig(),
	}, nil
}

// defaultConfig returns a Config with default values
func defaultConfig() *types.Config {
	return &types.Config{
		MistralAPIKey:  "",
		MistralBaseURL: DefaultBaseURL,
		OCRModel:       DefaultOCRModel,
		ChatModel:      DefaultChatModel,
		TimeoutSeconds: DefaultTimeoutSeconds,
		WorkDirectory:  "",
	}
}

// Load loads configuration from the config file.
// If the file doesn't exist, it uses default values.
// Environment variables take precedence for the API key and base URL when
// the config file values are empty.
func (m *Manager) Load() error {
	logger.Debug("loading configuration", logger.String("path", m.configPath))

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("config file not found, using defaults", logger.String("path", m.configPath))
			m.config = defaultConfig()
		} else {
			logger.Error("failed to read config file", err, logger.String("path", m.configPath))
			return types.NewAppError(types.ErrConfig, "failed to read config file", err)
		}
	} else {
		config := &types.Config{}
		if err := json.Unmarshal(data, config); err != nil {
			logger.Warn("invalid config file format, using defaults", logger.String("path", m.configPath), logger.Err(err))
			m.config = defaultConfig()
		} else {
			logger.Info("configuration loaded",
				logger.String("path", m.configPath),
				logger.Int("apiKeyLength", len(config.MistralAPIKey)),
				logger.String("baseURL", config.MistralBaseURL),
				logger.String("ocrModel", config.OCRModel),
				logger.String("chatModel", config.ChatModel))
			m.config = config
		}
	}

	// Apply defaults for empty fields
	if m.config.MistralBaseURL == "" {
		m.config.MistralBaseURL = DefaultBaseURL
	}
	if m.config.OCRModel == "" {
		m.config.OCRModel = DefaultOCRModel
	}
	if m.config.ChatModel == "" {
		m.config.ChatModel = DefaultChatModel
	}
	if m.config.TimeoutSeconds == 0 {
		m.config.TimeoutSeconds = DefaultTimeoutSeconds
	}

	return nil
}

// Save saves the current configuration to the config file.
func (m *Manager) Save() error {
	logger.Debug("saving configuration", logger.String("path", m.configPath))

	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error("failed to create config directory", err, logger.String("dir", dir))
		return types.NewAppError(types.ErrConfig, "failed to create config directory", err)
	}

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		logger.Error("failed to marshal config", err)
		return types.NewAppError(types.ErrConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		logger.Error("failed to write config file", err, logger.String("path", m.configPath))
		return types.NewAppError(types.ErrConfig, "failed to write config file", err)
	}

	logger.Info("configuration saved", logger.String("path", m.configPath))
	return nil
}

// GetAPIKey returns the Mistral API key.
// It first checks the config file value, then falls back to the environment variable.
func (m *Manager) GetAPIKey() string {
	if m.config != nil && m.config.MistralAPIKey != "" {
		return m.config.MistralAPIKey
	}
	return os.Getenv(EnvMistralAPIKey)
}

// RequireAPIKey returns the API key or a fatal configuration error when it is
// absent from both the config file and the environment.
func (m *Manager) RequireAPIKey() (string, error) {
	key := m.GetAPIKey()
	if key == "" {
		return "", types.NewAppErrorWithDetails(types.ErrConfig,
			"Mistral API key is not configured",
			"set "+EnvMistralAPIKey+" or add mistral_api_key to "+m.configPath, nil)
	}
	return key, nil
}

// GetBaseURL returns the Mistral API base URL.
// It first checks the config file value, then falls back to the environment variable.
func (m *Manager) GetBaseURL() string {
	if m.config != nil && m.config.MistralBaseURL != "" && m.config.MistralBaseURL != DefaultBaseURL {
		return m.config.MistralBaseURL
	}
	if envURL := os.Getenv(EnvMistralBaseURL); envURL != "" {
		return envURL
	}
	return DefaultBaseURL
}

// GetOCRModel returns the document OCR model to use.
func (m *Manager) GetOCRModel() string {
	if m.config != nil && m.config.OCRModel != "" {
		return m.config.OCRModel
	}
	return DefaultOCRModel
}

// GetChatModel returns the chat model used for the clean and translate transforms.
func (m *Manager) GetChatModel() string {
	if m.config != nil && m.config.ChatModel != "" {
		return m.config.ChatModel
	}
	return DefaultChatModel
}

// GetTimeoutSeconds returns the per-call API timeout in seconds.
func (m *Manager) GetTimeoutSeconds() int {
	if m.config != nil && m.config.TimeoutSeconds > 0 {
		return m.config.TimeoutSeconds
	}
	return DefaultTimeoutSeconds
}

// GetConfig returns the current configuration.
func (m *Manager) GetConfig() *types.Config {
	if m.config == nil {
		return defaultConfig()
	}
	return m.config
}

// GetConfigPath returns the path to the config file.
func (m *Manager) GetConfigPath() string {
	return m.configPath
}
