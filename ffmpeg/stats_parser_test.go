package ffmpeg

import (
	"math"
	"testing"
)

func TestNewStatsParser(t *testing.T) {
	parser := NewStatsParser()

	if parser == nil {
		t.Fatal("NewStatsParser returned nil")
	}
	if parser.psnrRegex == nil {
		t.Error("psnrRegex not initialized")
	}
	if parser.ssimRegex == nil {
		t.Error("ssimRegex not initialized")
	}
	if parser.ydifRegex == nil {
		t.Error("ydifRegex not initialized")
	}
}

func TestStatsParser_ParsePSNR(t *testing.T) {
	parser := NewStatsParser()

	tests := []struct {
		name   string
		output string
		want   float64
		found  bool
	}{
		{
			name:   "psnr summary line",
			output: "[Parsed_psnr_0 @ 0x55] PSNR y:40.12 u:45.20 v:45.90 average:41.33 min:38.20 max:48.10",
			want:   41.33,
			found:  true,
		},
		{
			name:   "identical inputs",
			output: "[Parsed_psnr_0 @ 0x55] PSNR y:inf u:inf v:inf average:inf min:inf max:inf",
			want:   100,
			found:  true,
		},
		{
			name:   "no psnr output",
			output: "frame=  100 fps=50 q=-0.0 size=N/A time=00:00:04.00",
			found:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parser.ParsePSNR(tt.output)
			if ok != tt.found {
				t.Fatalf("Expected found=%v, got %v", tt.found, ok)
			}
			if ok && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Expected %.2f, got %.2f", tt.want, got)
			}
		})
	}
}

func TestStatsParser_ParseSSIM(t *testing.T) {
	parser := NewStatsParser()

	output := "[Parsed_ssim_0 @ 0x1] SSIM Y:0.990 (20.0) U:0.993 (21.5) V:0.994 (22.1) All:0.9912 (20.5)"
	got, ok := parser.ParseSSIM(output)
	if !ok {
		t.Fatal("Expected SSIM to be found")
	}
	if got != 0.9912 {
		t.Errorf("Expected 0.9912, got %v", got)
	}

	if _, ok := parser.ParseSSIM("nothing here"); ok {
		t.Error("Expected no SSIM in unrelated output")
	}
}

func TestStatsParser_MeanYDIF(t *testing.T) {
	parser := NewStatsParser()

	output := `frame:0    pts:0       pts_time:0
lavfi.signalstats.YDIF=0.000000
frame:1    pts:512     pts_time:0.04
lavfi.signalstats.YDIF=4.000000
frame:2    pts:1024    pts_time:0.08
lavfi.signalstats.YDIF=8.000000
`
	mean, count := parser.MeanYDIF(output)
	if count != 3 {
		t.Fatalf("Expected 3 samples, got %d", count)
	}
	if mean != 4 {
		t.Errorf("Expected mean 4, got %v", mean)
	}

	if _, count := parser.MeanYDIF(""); count != 0 {
		t.Errorf("Expected 0 samples for empty output, got %d", count)
	}
}

func TestStatsParser_LastTime(t *testing.T) {
	parser := NewStatsParser()

	output := "frame=   10 time=00:00:01.00 speed=1x\rframe=   50 time=00:01:02.50 speed=1x"
	if got := parser.LastTime(output); got != 62.5 {
		t.Errorf("Expected 62.5, got %v", got)
	}
	if got := parser.LastTime(""); got != 0 {
		t.Errorf("Expected 0 for empty output, got %v", got)
	}
}

func TestTimeToSeconds(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"00:00:00.00", 0},
		{"00:00:01.50", 1.5},
		{"01:01:01.00", 3661},
		{"invalid", 0},
		{"aa:bb:cc", 0},
	}

	for _, tt := range tests {
		if got := timeToSeconds(tt.input); got != tt.expected {
			t.Errorf("timeToSeconds(%q) = %v; want %v", tt.input, got, tt.expected)
		}
	}
}
