// Package ffprobe extracts media metadata using the ffprobe command-line tool.
package ffprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"splitrender/ffmpeg"
	"splitrender/models"
)

// DefaultFrameRate is used when the stream reports no usable rate.
const DefaultFrameRate = 30.0

// Stream represents a media stream (audio, video, subtitle, etc.)
type Stream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	PixFmt       string `json:"pix_fmt,omitempty"`
	RFrameRate   string `json:"r_frame_rate,omitempty"`
	AvgFrameRate string `json:"avg_frame_rate,omitempty"`
	Duration     string `json:"duration,omitempty"`
}

// Format represents the container format information.
type Format struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

// ffprobeOutput represents the raw JSON output from ffprobe.
type ffprobeOutput struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// ProbeError reports a source that cannot be analyzed. It is fatal before
// any segment work starts.
type ProbeError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ProbeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("probe %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("probe %s: %s", e.Path, e.Reason)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// Signature identifies the encoding parameters of a file's first video
// stream. Segments can be stream-copied together only when their
// signatures match.
type Signature struct {
	Codec     string
	Width     int
	Height    int
	PixFmt    string
	FrameRate string
}

// Prober runs ffprobe through an injected runner.
type Prober struct {
	bin    string
	runner ffmpeg.Runner
}

// NewProber creates a prober. An empty bin defaults to "ffprobe".
func NewProber(bin string, runner ffmpeg.Runner) *Prober {
	if bin == "" {
		bin = "ffprobe"
	}
	if runner == nil {
		runner = ffmpeg.ExecRunner{}
	}
	return &Prober{bin: bin, runner: runner}
}

// Probe analyzes a media file and returns its metadata.
//
// Example:
//
//	meta, err := ffprobe.NewProber("", nil).Probe(ctx, "/path/to/video.mp4")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Duration: %.2f seconds @ %.2f fps\n", meta.Duration, meta.FrameRate)
func (p *Prober) Probe(ctx context.Context, sourcePath string) (models.MediaMetadata, error) {
	if sourcePath == "" {
		return models.MediaMetadata{}, &ProbeError{Path: sourcePath, Reason: "source path cannot be empty"}
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		sourcePath,
	}

	res, err := p.runner.Run(ctx, p.bin, args...)
	if err != nil {
		return models.MediaMetadata{}, &ProbeError{Path: sourcePath, Reason: "ffprobe failed", Err: err}
	}

	return ParseMetadata(sourcePath, []byte(res.Stdout))
}

// StreamSignature returns the first video stream's encoding signature.
func (p *Prober) StreamSignature(ctx context.Context, path string) (Signature, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-select_streams", "v:0",
		"-show_streams",
		path,
	}

	res, err := p.runner.Run(ctx, p.bin, args...)
	if err != nil {
		return Signature{}, &ProbeError{Path: path, Reason: "ffprobe failed", Err: err}
	}

	var out ffprobeOutput
	if err := json.Unmarshal([]byte(res.Stdout), &out); err != nil {
		return Signature{}, &ProbeError{Path: path, Reason: "invalid ffprobe JSON", Err: err}
	}
	video, ok := firstVideoStream(out.Streams)
	if !ok {
		return Signature{}, &ProbeError{Path: path, Reason: "no video stream found"}
	}

	return Signature{
		Codec:     video.CodecName,
		Width:     video.Width,
		Height:    video.Height,
		PixFmt:    video.PixFmt,
		FrameRate: video.RFrameRate,
	}, nil
}

// ParseMetadata converts raw ffprobe JSON into MediaMetadata.
func ParseMetadata(sourcePath string, data []byte) (models.MediaMetadata, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return models.MediaMetadata{}, &ProbeError{Path: sourcePath, Reason: "invalid ffprobe JSON", Err: err}
	}

	video, ok := firstVideoStream(out.Streams)
	if !ok {
		return models.MediaMetadata{}, &ProbeError{Path: sourcePath, Reason: "no video stream found"}
	}

	durationText := out.Format.Duration
	if durationText == "" {
		durationText = video.Duration
	}
	if durationText == "" {
		return models.MediaMetadata{}, &ProbeError{Path: sourcePath, Reason: "duration not available"}
	}
	duration, err := strconv.ParseFloat(durationText, 64)
	if err != nil {
		return models.MediaMetadata{}, &ProbeError{Path: sourcePath, Reason: fmt.Sprintf("invalid duration %q", durationText), Err: err}
	}

	if video.Width <= 0 || video.Height <= 0 {
		return models.MediaMetadata{}, &ProbeError{Path: sourcePath, Reason: "video stream has no dimensions"}
	}
	if video.CodecName == "" {
		return models.MediaMetadata{}, &ProbeError{Path: sourcePath, Reason: "video stream has no codec"}
	}

	fps, ok := ParseFrameRate(video.RFrameRate)
	if !ok {
		fps, ok = ParseFrameRate(video.AvgFrameRate)
	}
	if !ok {
		fps = DefaultFrameRate
	}

	meta := models.MediaMetadata{
		Duration:  duration,
		Width:     video.Width,
		Height:    video.Height,
		FrameRate: fps,
		Codec:     video.CodecName,
		HasAudio:  hasStreamType(out.Streams, "audio"),
	}
	if err := meta.Validate(); err != nil {
		return models.MediaMetadata{}, &ProbeError{Path: sourcePath, Reason: "unusable metadata", Err: err}
	}
	return meta, nil
}

// ParseFrameRate parses a rational "num/den" or plain decimal rate.
// It reports false for empty, malformed or non-positive values.
func ParseFrameRate(rate string) (float64, bool) {
	rate = strings.TrimSpace(rate)
	if rate == "" {
		return 0, false
	}

	num, den, isRatio := strings.Cut(rate, "/")
	if !isRatio {
		v, err := strconv.ParseFloat(rate, 64)
		if err != nil || v <= 0 {
			return 0, false
		}
		return v, true
	}

	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 || n <= 0 {
		return 0, false
	}
	return n / d, true
}

func firstVideoStream(streams []Stream) (Stream, bool) {
	for _, s := range streams {
		if s.CodecType == "video" {
			return s, true
		}
	}
	return Stream{}, false
}

func hasStreamType(streams []Stream, codecType string) bool {
	for _, s := range streams {
		if s.CodecType == codecType {
			return true
		}
	}
	return false
}
