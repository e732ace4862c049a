package config

import (
	"os"
	"path/filepath"
)

// Config holds all splitrender configuration options
type Config struct {
	// CLI run settings
	Input      string `yaml:"input"`
	Output     string `yaml:"output"`
	Workers    int    `yaml:"workers"` // 0 = auto-detect
	Filter     string `yaml:"filter"`  // ffmpeg -vf chain applied to every segment
	SkipSerial bool   `yaml:"skip_serial"`
	Sweep      bool   `yaml:"sweep"`
	Export     string `yaml:"export"`    // benchmark JSON path, empty = no export
	KeepTemp   bool   `yaml:"keep_temp"` // keep segment files after the run
	TempDir    string `yaml:"temp_dir"`  // CLI working directory
	Smart      bool   `yaml:"smart"`     // let the adaptive configurator pick workers/filter
	Verbose    bool   `yaml:"verbose"`

	Tools    ToolsConfig    `yaml:"tools"`
	Video    VideoConfig    `yaml:"video"`
	Merge    MergeConfig    `yaml:"merge"`
	Adaptive AdaptiveConfig `yaml:"adaptive"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// ToolsConfig locates the external binaries
type ToolsConfig struct {
	FFmpeg  string `yaml:"ffmpeg"`
	FFprobe string `yaml:"ffprobe"`
}

// VideoConfig holds the segment (and serial baseline) encode settings
type VideoConfig struct {
	Codec      string `yaml:"codec"`       // e.g., "libx264", "libx265"
	Preset     string `yaml:"preset"`      // e.g., "ultrafast", "medium"
	CRF        int    `yaml:"crf"`         // 0-51, lower = better quality
	AudioCodec string `yaml:"audio_codec"` // "copy" passes audio through
}

// MergeConfig holds the re-encode fallback used when stream copy fails
type MergeConfig struct {
	Codec              string `yaml:"codec"`
	Preset             string `yaml:"preset"`
	CRF                int    `yaml:"crf"`
	AudioCodec         string `yaml:"audio_codec"`
	ValidateSignatures bool   `yaml:"validate_signatures"` // probe segments before stream copy
}

// AdaptiveConfig controls smart mode
type AdaptiveConfig struct {
	Variant             string  `yaml:"variant"`       // "resolution"/"v1" or "content-aware"/"v2"
	ContentAware        bool    `yaml:"content_aware"` // register the content-aware variant
	MotionSampleSeconds float64 `yaml:"motion_sample_seconds"`
}

// ServerConfig holds renderd settings
type ServerConfig struct {
	Addr                 string  `yaml:"addr"`
	MaxConcurrentJobs    int     `yaml:"max_concurrent_jobs"`
	OutputDir            string  `yaml:"output_dir"`
	TempDir              string  `yaml:"temp_dir"`
	SerialSampleSeconds  float64 `yaml:"serial_sample_seconds"`
	CompareSampleSeconds float64 `yaml:"compare_sample_seconds"`
}

// LogConfig selects log level and format
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// DefaultFilter is the sharpen chain used when nothing else is configured.
const DefaultFilter = "unsharp=5:5:1.5:5:5:0.5"

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		// Required - must be provided by user
		Input: "",

		Output:     "output_processed.mp4",
		Workers:    0, // Auto-detect CPU count
		Filter:     DefaultFilter,
		SkipSerial: false,
		Sweep:      false,
		KeepTemp:   false,
		TempDir:    ".temp_chunks",

		Tools: ToolsConfig{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
		},

		// Fast software encode; the benchmark measures parallelism, not compression
		Video: VideoConfig{
			Codec:      "libx264",
			Preset:     "ultrafast",
			CRF:        23,
			AudioCodec: "copy",
		},

		Merge: MergeConfig{
			Codec:              "libx264",
			Preset:             "ultrafast",
			CRF:                23,
			AudioCodec:         "aac",
			ValidateSignatures: true,
		},

		Adaptive: AdaptiveConfig{
			Variant:             "resolution",
			ContentAware:        false,
			MotionSampleSeconds: 4,
		},

		Server: ServerConfig{
			Addr:                 ":8000",
			MaxConcurrentJobs:    1,
			OutputDir:            "outputs",
			TempDir:              filepath.Join(os.TempDir(), "splitrender"),
			SerialSampleSeconds:  2,
			CompareSampleSeconds: 8,
		},

		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Copy creates a deep copy of the config
func (c *Config) Copy() *Config {
	copy := *c
	return &copy
}

// LogLevel returns the effective level, forcing debug when verbose.
func (c *Config) LogLevel() string {
	if c.Verbose {
		return "debug"
	}
	return c.Log.Level
}

// LogLevelValues returns valid log level values
func LogLevelValues() []string {
	return []string{"debug", "info", "warn", "error"}
}

// LogFormatValues returns valid log format values
func LogFormatValues() []string {
	return []string{"console", "json"}
}

func contains(values []string, v string) bool {
	for _, valid := range values {
		if v == valid {
			return true
		}
	}
	return false
}
