package ffmpeg

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func TestExecRunner_Success(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	res, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo out; echo err 1>&2")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "out" {
		t.Errorf("Expected stdout 'out', got %q", res.Stdout)
	}
	if strings.TrimSpace(res.Stderr) != "err" {
		t.Errorf("Expected stderr 'err', got %q", res.Stderr)
	}
	if res.ExitCode != 0 {
		t.Errorf("Expected exit code 0, got %d", res.ExitCode)
	}
}

func TestExecRunner_Failure(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	res, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo broken pipe 1>&2; exit 3")
	if err == nil {
		t.Fatal("Expected error for non-zero exit")
	}
	if res.ExitCode != 3 {
		t.Errorf("Expected exit code 3, got %d", res.ExitCode)
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("Expected *CommandError, got %T", err)
	}
	if cmdErr.ExitCode != 3 {
		t.Errorf("Expected CommandError exit 3, got %d", cmdErr.ExitCode)
	}
	if !strings.Contains(err.Error(), "broken pipe") {
		t.Errorf("Expected stderr in error message, got '%s'", err.Error())
	}
}

func TestExecRunner_MissingBinary(t *testing.T) {
	res, err := ExecRunner{}.Run(context.Background(), "definitely-not-a-real-binary-xyz")
	if err == nil {
		t.Fatal("Expected error for missing binary")
	}
	if res.ExitCode != -1 {
		t.Errorf("Expected exit code -1, got %d", res.ExitCode)
	}
}

func TestTail(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		n        int
		expected string
	}{
		{"empty", "", 3, ""},
		{"fewer lines than limit", "a\nb", 3, "a | b"},
		{"trims to last lines", "a\nb\nc\nd", 2, "c | d"},
		{"skips blank lines", "a\n\n  \nb\n", 5, "a | b"},
		{"carriage returns", "frame=1\rframe=2\rError opening", 2, "frame=2 | Error opening"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Tail(tt.input, tt.n); got != tt.expected {
				t.Errorf("Tail() = %q; want %q", got, tt.expected)
			}
		})
	}
}

func TestCommandLine(t *testing.T) {
	got := CommandLine("ffmpeg", []string{"-y", "-i", "in.mp4", "out.mp4"})
	if got != "ffmpeg -y -i in.mp4 out.mp4" {
		t.Errorf("Unexpected command line: %s", got)
	}
}
