package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the application configuration
type Config struct {
	Augment AugmentConfig `json:"augment"`
	Suggest SuggestConfig `json:"suggest"`
	Folders FolderConfig  `json:"folders"`
}

// AugmentConfig holds configuration for the augmentation engine
type AugmentConfig struct {
	Enabled bool `json:"enabled"`
	Count   int  `json:"count"`
	Quality int  `json:"quality"`
}

// SuggestConfig holds configuration for label suggestion via a vision model
type SuggestConfig struct {
	Enabled bool   `json:"enabled"`
	Model   string `json:"model"`
	URL     string `json:"url"`
}

// FolderConfig holds the default input and output folders
type FolderConfig struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Augment: AugmentConfig{
			Enabled: true,
			Count:   10,
			Quality: 90,
		},
		Suggest: SuggestConfig{
			Enabled: false,
			Model:   "llava",
			URL:     "http://localhost:11434",
		},
		Folders: FolderConfig{},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Augment.Count < 1 {
		return fmt.Errorf("augment.count must be positive")
	}

	if c.Augment.Quality < 1 || c.Augment.Quality > 100 {
		return fmt.Errorf("augment.quality must be between 1 and 100")
	}

	if c.Suggest.Enabled && c.Suggest.Model == "" {
		return fmt.Errorf("suggest.model cannot be empty when suggestion is enabled")
	}

	if c.Suggest.Enabled && c.Suggest.URL == "" {
		return fmt.Errorf("suggest.url cannot be empty when suggestion is enabled")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "jersey-annotator", "config.json")
}
