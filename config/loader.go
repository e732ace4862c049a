package config

import (
	"flag"
	"fmt"
	"runtime"
	"strings"
)

// LoadConfig loads configuration with priority: CLI flags > Config file > Defaults
func LoadConfig(args []string) (*Config, error) {
	cfg, err := loadBase(args)
	if err != nil {
		return nil, err
	}

	if err := cfg.MergeFromFlags(args); err != nil {
		return nil, err
	}

	// Auto-detect workers if set to 0
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadServerConfig loads renderd configuration. Only -config, -addr,
// -log-format and -verbose are accepted on the command line.
func LoadServerConfig(args []string) (*Config, error) {
	cfg, err := loadBase(args)
	if err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("renderd", flag.ContinueOnError)
	_ = fs.String("config", "", "Path to config file")
	addr := fs.String("addr", "", "Listen address (default: :8000)")
	format := fs.String("log-format", "", "Log format: console or json")
	verbose := fs.Bool("verbose", false, "Enable verbose logging")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *format != "" {
		cfg.Log.Format = *format
	}
	if *verbose {
		cfg.Verbose = true
	}

	if err := cfg.ValidateServer(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadBase returns defaults overlaid with the config file named by
// -config, or the first one found in the standard locations.
func loadBase(args []string) (*Config, error) {
	configPath := configFlag(args)
	if configPath == "" {
		configPath = FindConfigFile()
	}

	if configPath == "" {
		return DefaultConfig(), nil
	}

	cfg, err := LoadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// configFlag extracts the -config value without running the full parser.
func configFlag(args []string) string {
	for i, arg := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
