// Package config loads and persists the application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	// Ollama holds strategy-model settings.
	Ollama OllamaConfig `toml:"ollama"`

	// Data holds catalog and collection settings.
	Data DataConfig `toml:"data"`

	// App holds general application settings.
	App AppConfig `toml:"app"`
}

// OllamaConfig contains settings for the external strategy model.
type OllamaConfig struct {
	Endpoint    string  `toml:"endpoint"`    // Ollama API base URL
	Model       string  `toml:"model"`       // Model name
	Timeout     string  `toml:"timeout"`     // Request timeout (e.g., "30s")
	Temperature float64 `toml:"temperature"` // Sampling temperature
	NumPredict  int     `toml:"num_predict"` // Max generated tokens
}

// DataConfig contains catalog and collection settings.
type DataConfig struct {
	Dir            string `toml:"dir"`             // Directory for downloaded card data and the cache DB
	CatalogMaxAge  string `toml:"catalog_max_age"` // How long the cached catalog stays fresh (e.g., "168h")
	CollectionFile string `toml:"collection_file"` // Path to the Moxfield collection CSV
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode"` // Enable debug logging
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Ollama: OllamaConfig{
			Endpoint:    "http://localhost:11434",
			Model:       "mistral",
			Timeout:     "30s",
			Temperature: 0.1,
			NumPredict:  1024,
		},
		Data: DataConfig{
			Dir:           "",
			CatalogMaxAge: "168h",
		},
		App: AppConfig{
			DebugMode: false,
		},
	}
}

// configDir returns the application configuration directory, creating it
// if necessary.
func configDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	dir := filepath.Join(homeDir, ".commander-companion")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return dir, nil
}

// configPath returns the path to the configuration file.
func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads the configuration from disk. On first run the default
// configuration is written out so the user has a file to edit.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(); err != nil {
			return nil, fmt.Errorf("write initial config: %w", err)
		}
		return config, nil
	}

	return LoadFrom(path)
}

// LoadFrom loads the configuration from an explicit path.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to an explicit path.
func (c *Config) SaveTo(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Ollama.Timeout); err != nil {
		return fmt.Errorf("invalid ollama timeout %q: %w", c.Ollama.Timeout, err)
	}

	if _, err := time.ParseDuration(c.Data.CatalogMaxAge); err != nil {
		return fmt.Errorf("invalid catalog max age %q: %w", c.Data.CatalogMaxAge, err)
	}

	if c.Ollama.Temperature < 0 || c.Ollama.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2: %v", c.Ollama.Temperature)
	}

	if c.Ollama.NumPredict < 0 {
		return fmt.Errorf("num_predict cannot be negative: %d", c.Ollama.NumPredict)
	}

	return nil
}

// GetOllamaTimeout returns the Ollama request timeout as a duration.
func (c *Config) GetOllamaTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Ollama.Timeout)
}

// GetCatalogMaxAge returns the catalog freshness window as a duration.
func (c *Config) GetCatalogMaxAge() (time.Duration, error) {
	return time.ParseDuration(c.Data.CatalogMaxAge)
}

// DataDir returns the configured data directory, defaulting to a directory
// alongside the config file.
func (c *Config) DataDir() (string, error) {
	if c.Data.Dir != "" {
		return c.Data.Dir, nil
	}

	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}
