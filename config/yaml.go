package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SearchPaths lists the config file locations in lookup order.
func SearchPaths() []string {
	home := os.Getenv("HOME")
	var paths []string
	for _, dir := range []string{".", filepath.Join(home, ".splitrender"), "/etc/splitrender"} {
		base := "config"
		if dir == "." {
			base = "splitrender"
		}
		paths = append(paths,
			filepath.Join(dir, base+".yaml"),
			filepath.Join(dir, base+".yml"),
		)
	}
	return paths
}

// FindConfigFile returns the first existing entry of SearchPaths, or ""
// when there is none.
func FindConfigFile() string {
	for _, path := range SearchPaths() {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// LoadConfigFile overlays a YAML file on DefaultConfig. Keys absent from
// the file keep their default values.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// SaveConfigFile writes cfg as YAML, creating parent directories.
func SaveConfigFile(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
