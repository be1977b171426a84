// Package config provides configuration management for the PDF translator.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/types"
)

const (
	// DefaultConfigFileName is the default configuration file name
	DefaultConfigFileName = "pdf-translator-config.json"
	// EnvOpenAIAPIKey is the environment variable name for OpenAI API key
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	// EnvOpenAIBaseURL is the environment variable name for OpenAI base URL
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	// EnvOpenAIModel is the environment variable name for the model
	EnvOpenAIModel = "OPENAI_MODEL"
	// EnvFontDirectory overrides the font directory
	EnvFontDirectory = "PDF_TRANSLATOR_FONT_DIR"
	// DefaultBaseURL is the default OpenAI API base URL
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel is the default OpenAI model to use
	DefaultModel = "gpt-4o-mini"
	// DefaultChunkSize is the backend size limit in characters
	DefaultChunkSize = 4500
	// DefaultRecoveryChunkSize is the limit used when re-splitting a failed chunk
	DefaultRecoveryChunkSize = 2000
	// DefaultConcurrency is the default translation concurrency
	DefaultConcurrency = 3
	// DefaultCallTimeoutSeconds bounds a single backend call
	DefaultCallTimeoutSeconds = 60
	// DefaultMaxRetries is the number of attempts for retryable backend errors
	DefaultMaxRetries = 2
	// DefaultPlaceholder replaces sections that could not be translated
	DefaultPlaceholder = "[Translation error for this section]"
	// DefaultFontDirectory holds the bundled Noto fonts
	DefaultFontDirectory = "fonts"
	// DefaultLogFile is the default log file path
	DefaultLogFile = "pdf-translator.log"
)

// ConfigManager manages application configuration
type ConfigManager struct {
	configPath string
	config     *types.Config
}

// NewConfigManager creates a new ConfigManager with the specified config path.
// If configPath is empty, it uses the default path in user's home directory.
func NewConfigManager(configPath string) (*ConfigManager, error) {
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			logger.Error("failed to get user home directory", err)
			return nil, types.NewAppError(types.ErrConfig, "failed to get user home directory", err)
		}
		configPath = filepath.Join(homeDir, ".config", "pdf-translator", DefaultConfigFileName)
	}

	logger.Info("ConfigManager initialized", logger.String("configPath", configPath))
	return &ConfigManager{
		configPath: configPath,
		config:     defaultConfig(),
	}, nil
}

// defaultConfig returns a Config with default values
func defaultConfig() *types.Config {
	return &types.Config{
		OpenAIBaseURL:      DefaultBaseURL,
		OpenAIModel:        DefaultModel,
		ChunkSize:          DefaultChunkSize,
		RecoveryChunkSize:  DefaultRecoveryChunkSize,
		Concurrency:        DefaultConcurrency,
		CallTimeoutSeconds: DefaultCallTimeoutSeconds,
		MaxRetries:         DefaultMaxRetries,
		Placeholder:        DefaultPlaceholder,
		FontDirectory:      DefaultFontDirectory,
		LogFile:            DefaultLogFile,
		LogLevel:           "info",
	}
}

// isYAML reports whether path should be decoded as YAML rather than JSON.
func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load loads configuration from the config file.
// If the file doesn't exist, it uses default values.
// Environment variables fill fields the file leaves empty.
func (m *ConfigManager) Load() error {
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
		if isYAML(m.configPath) {
			err = yaml.Unmarshal(data, config)
		} else {
			err = json.Unmarshal(data, config)
		}
		if err != nil {
			logger.Warn("invalid config file format, using defaults", logger.String("path", m.configPath), logger.Err(err))
			m.config = defaultConfig()
		} else {
			logger.Info("configuration loaded successfully",
				logger.String("path", m.configPath),
				logger.Int("apiKeyLength", len(config.OpenAIAPIKey)),
				logger.String("baseURL", config.OpenAIBaseURL),
				logger.String("model", config.OpenAIModel))
			m.config = config
		}
	}

	m.applyEnvironment()
	m.applyDefaults()
	return nil
}

func (m *ConfigManager) applyEnvironment() {
	if m.config.OpenAIAPIKey == "" {
		m.config.OpenAIAPIKey = os.Getenv(EnvOpenAIAPIKey)
	}
	if m.config.OpenAIBaseURL == "" {
		m.config.OpenAIBaseURL = os.Getenv(EnvOpenAIBaseURL)
	}
	if m.config.OpenAIModel == "" {
		m.config.OpenAIModel = os.Getenv(EnvOpenAIModel)
	}
	if dir := os.Getenv(EnvFontDirectory); dir != "" && m.config.FontDirectory == "" {
		m.config.FontDirectory = dir
	}
}

// applyDefaults fills zero-valued fields.
func (m *ConfigManager) applyDefaults() {
	c := m.config
	if c.OpenAIModel == "" {
		c.OpenAIModel = DefaultModel
	}
	if c.OpenAIBaseURL == "" {
		c.OpenAIBaseURL = DefaultBaseURL
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.RecoveryChunkSize <= 0 {
		c.RecoveryChunkSize = DefaultRecoveryChunkSize
	}
	if c.RecoveryChunkSize > c.ChunkSize {
		c.RecoveryChunkSize = c.ChunkSize / 2
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.CallTimeoutSeconds <= 0 {
		c.CallTimeoutSeconds = DefaultCallTimeoutSeconds
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.Placeholder == "" {
		c.Placeholder = DefaultPlaceholder
	}
	if c.FontDirectory == "" {
		c.FontDirectory = DefaultFontDirectory
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Save saves the current configuration to the config file.
func (m *ConfigManager) Save() error {
	logger.Debug("saving configuration", logger.String("path", m.configPath))

	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error("failed to create config directory", err, logger.String("dir", dir))
		return types.NewAppError(types.ErrConfig, "failed to create config directory", err)
	}

	var (
		data []byte
		err  error
	)
	if isYAML(m.configPath) {
		data, err = yaml.Marshal(m.config)
	} else {
		data, err = json.MarshalIndent(m.config, "", "  ")
	}
	if err != nil {
		logger.Error("failed to marshal config", err)
		return types.NewAppError(types.ErrConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		logger.Error("failed to write config file", err, logger.String("path", m.configPath))
		return types.NewAppError(types.ErrConfig, "failed to write config file", err)
	}

	logger.Info("configuration saved successfully", logger.String("path", m.configPath))
	return nil
}

// GetConfig returns the current configuration.
func (m *ConfigManager) GetConfig() *types.Config {
	if m.config == nil {
		return defaultConfig()
	}
	return m.config
}

// SetConfig sets the entire configuration.
func (m *ConfigManager) SetConfig(config *types.Config) {
	m.config = config
}

// GetConfigPath returns the path to the config file.
func (m *ConfigManager) GetConfigPath() string {
	return m.configPath
}

// GetAPIKey returns the OpenAI API key.
// It first checks the config file value, then falls back to the environment variable.
func (m *ConfigManager) GetAPIKey() string {
	if m.config != nil && m.config.OpenAIAPIKey != "" {
		return m.config.OpenAIAPIKey
	}
	return os.Getenv(EnvOpenAIAPIKey)
}

// GetCallTimeout returns the per-call backend timeout.
func (m *ConfigManager) GetCallTimeout() time.Duration {
	if m.config != nil && m.config.CallTimeoutSeconds > 0 {
		return time.Duration(m.config.CallTimeoutSeconds) * time.Second
	}
	return DefaultCallTimeoutSeconds * time.Second
}

// GetLoggerConfig builds the logger configuration from the loaded settings.
func (m *ConfigManager) GetLoggerConfig() *logger.Config {
	cfg := logger.DefaultConfig()
	c := m.GetConfig()
	if c.LogFile != "" {
		cfg.LogFilePath = c.LogFile
	}
	cfg.Level = logger.ParseLevel(c.LogLevel)
	cfg.EnableConsole = c.LogToConsole
	return cfg
}
