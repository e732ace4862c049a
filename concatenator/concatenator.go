// Package concatenator reassembles encoded segments into one output file.
package concatenator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"splitrender/ffmpeg"
	"splitrender/ffprobe"
	"splitrender/internal/fsutil"
)

// ConcatListName is the manifest written into the work directory.
const ConcatListName = "concat_list.txt"

// Strategy identifies which merge path produced the output.
type Strategy string

const (
	StrategyCopy     Strategy = "copy"     // concat demuxer, stream copy
	StrategyReencode Strategy = "reencode" // concat demuxer, full re-encode
)

// SignatureFunc reports the video stream signature of one segment file.
type SignatureFunc func(ctx context.Context, path string) (ffprobe.Signature, error)

// Options configures the merge commands.
type Options struct {
	Bin        string
	Codec      string
	Preset     string
	CRF        int
	AudioCodec string

	// Signature, when set, is used to compare segments before attempting
	// the stream-copy path. Divergent segments go straight to re-encode.
	Signature SignatureFunc
}

// DefaultOptions returns the fallback re-encode settings.
func DefaultOptions() Options {
	return Options{
		Bin:        "ffmpeg",
		Codec:      "libx264",
		Preset:     "ultrafast",
		CRF:        23,
		AudioCodec: "aac",
	}
}

// MergeError reports that both merge paths failed. No output was written.
type MergeError struct {
	CopyErr     error
	ReencodeErr error
	CopySkipped bool
}

func (e *MergeError) Error() string {
	copyPart := "skipped (segment signatures differ)"
	if !e.CopySkipped && e.CopyErr != nil {
		copyPart = e.CopyErr.Error()
	}
	return fmt.Sprintf("merge failed: stream copy: %s; re-encode: %v", copyPart, e.ReencodeErr)
}

// Concatenator handles merging encoded segments into a final output file
type Concatenator struct {
	runner ffmpeg.Runner
	opts   Options
	logger zerolog.Logger
}

// NewConcatenator creates a new concatenator
func NewConcatenator(runner ffmpeg.Runner, opts Options, logger zerolog.Logger) *Concatenator {
	if runner == nil {
		runner = ffmpeg.ExecRunner{}
	}
	if opts.Bin == "" {
		opts.Bin = "ffmpeg"
	}
	return &Concatenator{
		runner: runner,
		opts:   opts,
		logger: logger.With().Str("component", "reassembler").Logger(),
	}
}

// Concatenate merges paths, in order, into dest.
//
// The merge is written to a staging file inside workDir and moved to dest
// only after it succeeds, so dest is never left partially written.
func (c *Concatenator) Concatenate(ctx context.Context, paths []string, dest, workDir string) (Strategy, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("no segments to concatenate")
	}
	if dest == "" {
		return "", fmt.Errorf("destination path cannot be empty")
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return "", fmt.Errorf("segment missing: %w", err)
		}
		if info.Size() == 0 {
			return "", fmt.Errorf("segment is empty: %s", p)
		}
	}

	listPath, err := c.createConcatFile(paths, workDir)
	if err != nil {
		return "", fmt.Errorf("failed to create concat file: %w", err)
	}
	defer os.Remove(listPath)

	ext := filepath.Ext(dest)
	if ext == "" {
		ext = ".mp4"
	}
	staging := filepath.Join(workDir, "merge_staging"+ext)
	defer os.Remove(staging)

	mergeErr := &MergeError{}
	if c.signaturesDiverge(ctx, paths) {
		mergeErr.CopySkipped = true
		c.logger.Warn().Int("segments", len(paths)).Msg("segment signatures differ, skipping stream copy")
	} else {
		err := c.run(ctx, c.copyArgs(listPath, staging), staging)
		if err == nil {
			return StrategyCopy, c.publish(staging, dest, StrategyCopy)
		}
		mergeErr.CopyErr = err
		c.logger.Warn().Err(err).Msg("stream copy merge failed, falling back to re-encode")
		os.Remove(staging)
	}

	if err := c.run(ctx, c.reencodeArgs(listPath, staging), staging); err != nil {
		mergeErr.ReencodeErr = err
		return "", mergeErr
	}
	return StrategyReencode, c.publish(staging, dest, StrategyReencode)
}

func (c *Concatenator) publish(staging, dest string, strategy Strategy) error {
	if err := fsutil.MoveFile(staging, dest); err != nil {
		return fmt.Errorf("failed to move merged output to %s: %w", dest, err)
	}
	c.logger.Info().Str("strategy", string(strategy)).Str("output", dest).Msg("segments merged")
	return nil
}

// signaturesDiverge reports whether any segment's stream signature differs
// from the first. Probe failures are treated as "unknown" and leave the
// stream-copy path enabled.
func (c *Concatenator) signaturesDiverge(ctx context.Context, paths []string) bool {
	if c.opts.Signature == nil || len(paths) < 2 {
		return false
	}
	first, err := c.opts.Signature(ctx, paths[0])
	if err != nil {
		return false
	}
	for _, p := range paths[1:] {
		sig, err := c.opts.Signature(ctx, p)
		if err != nil {
			return false
		}
		if sig != first {
			return true
		}
	}
	return false
}

// createConcatFile writes the concat demuxer manifest.
// Format: file '/path/to/segment_000.mp4'
//
//	file '/path/to/segment_001.mp4'
func (c *Concatenator) createConcatFile(paths []string, workDir string) (string, error) {
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, p := range paths {
		absPath, err := filepath.Abs(p)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path for %s: %w", p, err)
		}
		// Escape single quotes the way the concat demuxer expects: ' -> '\''
		escapedPath := strings.ReplaceAll(absPath, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escapedPath)
	}

	listPath := filepath.Join(workDir, ConcatListName)
	if err := os.WriteFile(listPath, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write concat file: %w", err)
	}
	return listPath, nil
}

func (c *Concatenator) copyArgs(listPath, output string) []string {
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		output,
	}
}

func (c *Concatenator) reencodeArgs(listPath, output string) []string {
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c:v", c.opts.Codec,
	}
	if c.opts.Preset != "" {
		args = append(args, "-preset", c.opts.Preset)
	}
	if c.opts.CRF >= 0 {
		args = append(args, "-crf", strconv.Itoa(c.opts.CRF))
	}
	if c.opts.AudioCodec != "" {
		args = append(args, "-c:a", c.opts.AudioCodec)
	}
	return append(args, output)
}

// run executes one merge attempt and verifies the output exists
func (c *Concatenator) run(ctx context.Context, args []string, output string) error {
	c.logger.Debug().Str("cmd", ffmpeg.CommandLine(c.opts.Bin, args)).Msg("running merge")
	if _, err := c.runner.Run(ctx, c.opts.Bin, args...); err != nil {
		return err
	}
	info, err := os.Stat(output)
	if err != nil {
		return fmt.Errorf("output file not created: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("output file is empty")
	}
	return nil
}
