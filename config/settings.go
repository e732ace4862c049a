package config

import (
	"splitrender/concatenator"
	"splitrender/pipeline"
)

// EncodeSettings returns the per-segment encode settings.
func (c *Config) EncodeSettings() pipeline.EncodeSettings {
	return pipeline.EncodeSettings{
		Bin:        c.Tools.FFmpeg,
		Codec:      c.Video.Codec,
		Preset:     c.Video.Preset,
		CRF:        c.Video.CRF,
		AudioCodec: c.Video.AudioCodec,
	}
}

// MergeOptions returns the reassembly options. Signature is left for the
// caller to wire to a prober when Merge.ValidateSignatures is set.
func (c *Config) MergeOptions() concatenator.Options {
	return concatenator.Options{
		Bin:        c.Tools.FFmpeg,
		Codec:      c.Merge.Codec,
		Preset:     c.Merge.Preset,
		CRF:        c.Merge.CRF,
		AudioCodec: c.Merge.AudioCodec,
	}
}
