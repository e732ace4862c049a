package pipeline

import (
	"context"
	"time"

	"splitrender/command"
	"splitrender/command/video"
	"splitrender/ffmpeg"
	"splitrender/models"
)

// EncodeSettings holds the encoder parameters shared by segment encodes and
// the serial baseline. Both must use the same settings for a benchmark to
// be meaningful.
type EncodeSettings struct {
	Bin        string
	Codec      string
	Preset     string
	CRF        int
	AudioCodec string
}

// DefaultEncodeSettings returns libx264 ultrafast at CRF 23 with audio copied.
func DefaultEncodeSettings() EncodeSettings {
	return EncodeSettings{
		Bin:        "ffmpeg",
		Codec:      video.DefaultCodec,
		Preset:     video.DefaultPreset,
		CRF:        video.DefaultCRF,
		AudioCodec: video.DefaultAudioCodec,
	}
}

// Apply copies the settings onto a builder.
func (s EncodeSettings) Apply(b *video.VideoBuilder) *video.VideoBuilder {
	b.SetBinary(s.Bin)
	if s.Codec != "" {
		b.SetCodec(s.Codec)
	}
	if s.Preset != "" {
		b.SetPreset(s.Preset)
	}
	b.SetCRF(s.CRF)
	if s.AudioCodec != "" {
		b.SetAudioCodec(s.AudioCodec)
	}
	return b
}

// FFmpegWorker encodes one segment per call by running one ffmpeg process.
type FFmpegWorker struct {
	runner   ffmpeg.Runner
	settings EncodeSettings
}

// NewFFmpegWorker creates a segment worker. A nil runner uses ffmpeg.ExecRunner.
func NewFFmpegWorker(runner ffmpeg.Runner, settings EncodeSettings) *FFmpegWorker {
	if runner == nil {
		runner = ffmpeg.ExecRunner{}
	}
	return &FFmpegWorker{runner: runner, settings: settings}
}

// Encode seeks to the segment start, applies filter, and writes the
// segment's destination file. Failures are reported in the result with the
// encoder's stderr tail as the diagnostic.
func (w *FFmpegWorker) Encode(ctx context.Context, task models.SegmentTask, filter string) models.SegmentResult {
	start := time.Now()

	var cmd command.Command = w.settings.Apply(video.NewSegmentBuilder(task)).SetFilterChain(filter)
	err := cmd.Run(ctx, w.runner)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		return models.NewSegmentFailure(task.ID, elapsed, err.Error())
	}
	return models.NewSegmentSuccess(task.ID, elapsed)
}
