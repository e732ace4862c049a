package config

import (
	"fmt"
	"os"
	"strings"

	"splitrender/autoconfig"
)

// Validate checks a CLI run configuration
func (c *Config) Validate() error {
	var errors []string

	if c.Input == "" {
		errors = append(errors, "input file is required")
	} else if _, err := os.Stat(c.Input); os.IsNotExist(err) {
		errors = append(errors, fmt.Sprintf("input file does not exist: %s", c.Input))
	}

	if c.Output == "" {
		errors = append(errors, "output file is required")
	} else if c.Output == c.Input {
		errors = append(errors, "output must differ from input")
	}

	// 0 is valid, means auto-detect
	if c.Workers < 0 {
		errors = append(errors, "workers cannot be negative (use 0 for auto-detect)")
	}

	if c.TempDir == "" {
		errors = append(errors, "temp dir is required")
	}

	errors = append(errors, c.validateShared()...)

	return joinErrors(errors)
}

// ValidateServer checks a renderd configuration. No input is required.
func (c *Config) ValidateServer() error {
	var errors []string

	if err := c.Server.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("server config: %v", err))
	}

	errors = append(errors, c.validateShared()...)

	return joinErrors(errors)
}

func (c *Config) validateShared() []string {
	var errors []string

	if c.Tools.FFmpeg == "" || c.Tools.FFprobe == "" {
		errors = append(errors, "tools: ffmpeg and ffprobe paths are required")
	}

	if err := c.Video.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("video config: %v", err))
	}

	if err := c.Merge.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("merge config: %v", err))
	}

	if err := c.Adaptive.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("adaptive config: %v", err))
	}

	if err := c.Log.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("log config: %v", err))
	}

	return errors
}

// Validate checks if video configuration is valid
func (vc *VideoConfig) Validate() error {
	return validateEncode(vc.Codec, vc.Preset, vc.CRF, vc.AudioCodec)
}

// Validate checks if merge configuration is valid
func (mc *MergeConfig) Validate() error {
	return validateEncode(mc.Codec, mc.Preset, mc.CRF, mc.AudioCodec)
}

func validateEncode(codec, preset string, crf int, audio string) error {
	var errors []string

	if codec == "" {
		errors = append(errors, "codec is required")
	}

	if preset == "" {
		errors = append(errors, "preset is required")
	}

	if crf < 0 || crf > 51 {
		errors = append(errors, "CRF must be between 0 and 51")
	}

	if audio == "" {
		errors = append(errors, "audio codec is required")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}

	return nil
}

// Validate checks the adaptive section. Selecting content-aware without
// enabling it is a configuration error, not a silent downgrade.
func (ac *AdaptiveConfig) Validate() error {
	v, err := autoconfig.ParseVariant(ac.Variant)
	if err != nil {
		return err
	}

	if v == autoconfig.VariantContentAware && !ac.ContentAware {
		return fmt.Errorf("variant %q requires content_aware to be enabled", ac.Variant)
	}

	if ac.MotionSampleSeconds <= 0 {
		return fmt.Errorf("motion sample seconds must be positive")
	}

	return nil
}

// Validate checks if server configuration is valid
func (sc *ServerConfig) Validate() error {
	var errors []string

	if sc.Addr == "" {
		errors = append(errors, "addr is required")
	}

	if sc.MaxConcurrentJobs < 1 {
		errors = append(errors, "max concurrent jobs must be at least 1")
	}

	if sc.OutputDir == "" || sc.TempDir == "" {
		errors = append(errors, "output and temp dirs are required")
	}

	if sc.SerialSampleSeconds <= 0 || sc.CompareSampleSeconds <= 0 {
		errors = append(errors, "sample seconds must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}

	return nil
}

// Validate checks if log configuration is valid
func (lc *LogConfig) Validate() error {
	if !contains(LogLevelValues(), strings.ToLower(lc.Level)) {
		return fmt.Errorf("invalid level '%s', must be one of: %s",
			lc.Level, strings.Join(LogLevelValues(), ", "))
	}
	if !contains(LogFormatValues(), strings.ToLower(lc.Format)) {
		return fmt.Errorf("invalid format '%s', must be one of: %s",
			lc.Format, strings.Join(LogFormatValues(), ", "))
	}
	return nil
}

func joinErrors(errors []string) error {
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}
