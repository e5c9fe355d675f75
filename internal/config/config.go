package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"epub-translator/internal/translation"

	"github.com/joho/godotenv"
)

const (
	DefaultGeminiModel = "gemini-flash-lite-latest"
	DefaultOpenAIModel = "gpt-4o"

	// placeholderKey is what config.example.json ships with.
	placeholderKey = "your-api-key-here"
)

// Duration is a custom type that handles JSON marshaling/unmarshaling
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int      `json:"port"`
	ReadTimeout  Duration `json:"read_timeout"`
	WriteTimeout Duration `json:"write_timeout"`
}

// ProviderConfig selects and configures the model provider.
type ProviderConfig struct {
	Name      string   `json:"name"`
	APIKey    string   `json:"api_key"`
	Model     string   `json:"model"`
	BaseURL   string   `json:"base_url,omitempty"`
	MaxTokens int      `json:"max_tokens"`
	Timeout   Duration `json:"timeout"`
}

// TranslationConfig holds the default translation settings.
type TranslationConfig struct {
	SourceLanguage string   `json:"source_language"`
	TargetLanguage string   `json:"target_language"`
	TargetTags     []string `json:"target_tags"`
	Temperature    float32  `json:"temperature"`
	UILanguage     string   `json:"ui_language"`
	FreeTier       bool     `json:"free_tier"`
	QuotaWait      Duration `json:"quota_wait"`
	PacingFloor    Duration `json:"pacing_floor"`
	SupportedLangs []string `json:"supported_languages"`
}

// AppConfig holds working directories.
type AppConfig struct {
	TempDir   string `json:"temp_dir"`
	OutputDir string `json:"output_dir"`
	// DataDir holds the cache, the resume checkpoint and the history.
	DataDir string `json:"data_dir"`
}

// Config is the application configuration.
type Config struct {
	Server      ServerConfig      `json:"server"`
	Provider    ProviderConfig    `json:"provider"`
	Translation TranslationConfig `json:"translation"`
	App         AppConfig         `json:"app"`
}

// New returns a Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  Duration{30 * time.Second},
			WriteTimeout: Duration{30 * time.Second},
		},
		Provider: ProviderConfig{
			Name:      translation.ProviderGemini,
			Model:     DefaultGeminiModel,
			MaxTokens: 4096,
			Timeout:   Duration{2 * time.Minute},
		},
		Translation: TranslationConfig{
			SourceLanguage: "English",
			TargetLanguage: "Turkish",
			Temperature:    0.3,
			UILanguage:     "English",
			QuotaWait:      Duration{65 * time.Second},
			PacingFloor:    Duration{4 * time.Second},
			SupportedLangs: []string{
				"en", "es", "fr", "de", "it", "pt", "ru", "ja", "ko", "zh",
				"ar", "fa", "he", "hi", "tr", "pl", "nl", "sv", "da", "no",
			},
		},
		App: AppConfig{
			TempDir:   "tmp",
			OutputDir: "output",
			DataDir:   "data",
		},
	}
}

// LoadFromFile overlays the JSON file at filepath.
func (c *Config) LoadFromFile(filepath string) error {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, c)
}

// SaveToFile writes the configuration as indented JSON.
func (c *Config) SaveToFile(filepath string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, data, 0600)
}

// LoadFromEnv applies environment overrides. API keys are not copied here;
// Credentials reads them at call time so a key exported after startup works.
func (c *Config) LoadFromEnv() {
	if name := os.Getenv("EPUB_TRANSLATOR_PROVIDER"); name != "" {
		if !strings.EqualFold(name, c.Provider.Name) && os.Getenv("EPUB_TRANSLATOR_MODEL") == "" {
			c.Provider.Model = DefaultModel(name)
		}
		c.Provider.Name = strings.ToLower(name)
	}
	if model := os.Getenv("EPUB_TRANSLATOR_MODEL"); model != "" {
		c.Provider.Model = model
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			c.Server.Port = p
		}
	}
	if tempDir := os.Getenv("TEMP_DIR"); tempDir != "" {
		c.App.TempDir = tempDir
	}
	if outputDir := os.Getenv("OUTPUT_DIR"); outputDir != "" {
		c.App.OutputDir = outputDir
	}
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.App.DataDir = dataDir
	}
}

// DefaultModel returns the model used when a provider is selected without one.
func DefaultModel(provider string) string {
	if strings.EqualFold(provider, translation.ProviderOpenAI) {
		return DefaultOpenAIModel
	}
	return DefaultGeminiModel
}

// Load loads configuration with the following priority:
// 1. Command line flags (handled in main.go)
// 2. Environment variables, including a .env file in the working directory
// 3. Configuration file (config.json)
// 4. Default values
func Load(configPath string) (*Config, error) {
	cfg := New()

	if err := ensureConfigFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to ensure config file: %w", err)
	}

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config from file: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg.LoadFromEnv()

	if cfg.Provider.APIKey == placeholderKey {
		cfg.Provider.APIKey = ""
	}

	return cfg, nil
}

// Credentials resolves the API key from the flag value, then the
// environment, then the config file.
func (c *Config) Credentials(flagKey string) translation.CredentialProvider {
	env := translation.EnvCredentials{"EPUB_TRANSLATOR_API_KEY"}
	switch strings.ToLower(c.Provider.Name) {
	case translation.ProviderOpenAI:
		env = append(env, "OPENAI_API_KEY")
	default:
		env = append(env, "GEMINI_API_KEY", "API_KEY")
	}
	return translation.ChainCredentials{
		translation.StaticCredentials(flagKey),
		env,
		translation.StaticCredentials(c.Provider.APIKey),
	}
}

// ProviderOptions converts the provider section for translation.NewProvider.
func (c *Config) ProviderOptions() translation.ProviderOptions {
	return translation.ProviderOptions{
		Name:      c.Provider.Name,
		Model:     c.Provider.Model,
		BaseURL:   c.Provider.BaseURL,
		MaxTokens: c.Provider.MaxTokens,
		Timeout:   c.Provider.Timeout.Duration,
	}
}

// Settings returns the default run settings.
func (c *Config) Settings() translation.Settings {
	return translation.Settings{
		SourceLanguage: c.Translation.SourceLanguage,
		TargetLanguage: c.Translation.TargetLanguage,
		TargetTags:     append([]string(nil), c.Translation.TargetTags...),
		Temperature:    c.Translation.Temperature,
		Model:          c.Provider.Model,
		UILanguage:     c.Translation.UILanguage,
		FreeTier:       c.Translation.FreeTier,
	}
}

// CacheDir is where cached translations live.
func (c *Config) CacheDir() string {
	return filepath.Join(c.App.DataDir, "cache")
}

// MaskKey shortens a key for display.
func MaskKey(key string) string {
	if len(key) <= 10 {
		return strings.Repeat("*", len(key))
	}
	return key[:6] + "..." + key[len(key)-4:]
}

// ensureConfigFile checks if config.json exists, if not creates it from config.example.json
func ensureConfigFile(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	configDir := filepath.Dir(configPath)
	examplePath := filepath.Join(configDir, "config.example.json")

	// If we're running from a different directory, try to find the example file
	// relative to the executable
	if _, err := os.Stat(examplePath); os.IsNotExist(err) {
		if execPath, execErr := os.Executable(); execErr == nil {
			examplePath = filepath.Join(filepath.Dir(execPath), "config.example.json")
		}
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	if _, err := os.Stat(examplePath); os.IsNotExist(err) {
		return New().SaveToFile(configPath)
	}

	return copyFile(examplePath, configPath)
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = sourceFile.Close() }()

	destFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer func() { _ = destFile.Close() }()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// GetConfigPath returns the path to the config file
// It looks for config.json in the same directory as the executable
func GetConfigPath() string {
	if execPath, err := os.Executable(); err == nil {
		return filepath.Join(filepath.Dir(execPath), "config.json")
	}

	if pwd, err := os.Getwd(); err == nil {
		return filepath.Join(pwd, "config.json")
	}

	return "config.json"
}
