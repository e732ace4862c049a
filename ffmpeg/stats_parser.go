package ffmpeg

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

// StatsParser extracts quality and content statistics from ffmpeg stderr.
//
// It understands the summary lines printed by the psnr and ssim filters and
// the per-frame lavfi.signalstats.YDIF values printed by metadata=print.
type StatsParser struct {
	psnrRegex *regexp.Regexp
	ssimRegex *regexp.Regexp
	ydifRegex *regexp.Regexp
	timeRegex *regexp.Regexp
}

// NewStatsParser creates a new parser for ffmpeg filter statistics
func NewStatsParser() *StatsParser {
	return &StatsParser{
		// "PSNR y:40.1 u:45.2 v:45.9 average:41.33 min:38.2 max:inf"
		psnrRegex: regexp.MustCompile(`average:([0-9.]+|inf)`),
		// "SSIM Y:0.99 (20.1) U:0.99 V:0.99 All:0.991 (20.5)"
		ssimRegex: regexp.MustCompile(`All:([0-9.]+)`),
		ydifRegex: regexp.MustCompile(`lavfi\.signalstats\.YDIF=([0-9.]+)`),
		timeRegex: regexp.MustCompile(`time=\s*([0-9:.]+)`),
	}
}

// ParsePSNR returns the average PSNR reported in output.
// A lossless comparison reports "inf", which is surfaced as a large finite value.
func (sp *StatsParser) ParsePSNR(output string) (float64, bool) {
	matches := sp.psnrRegex.FindAllStringSubmatch(output, -1)
	if len(matches) == 0 {
		return 0, false
	}
	raw := matches[len(matches)-1][1]
	if raw == "inf" {
		return 100, true
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// ParseSSIM returns the combined SSIM reported in output.
func (sp *StatsParser) ParseSSIM(output string) (float64, bool) {
	matches := sp.ssimRegex.FindAllStringSubmatch(output, -1)
	if len(matches) == 0 {
		return 0, false
	}
	value, err := strconv.ParseFloat(matches[len(matches)-1][1], 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// MeanYDIF averages every YDIF sample in output. The second return value
// is the number of samples seen.
func (sp *StatsParser) MeanYDIF(output string) (float64, int) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	sum := 0.0
	count := 0
	for scanner.Scan() {
		matches := sp.ydifRegex.FindStringSubmatch(scanner.Text())
		if len(matches) < 2 {
			continue
		}
		if v, err := strconv.ParseFloat(matches[1], 64); err == nil {
			sum += v
			count++
		}
	}
	if count == 0 {
		return 0, 0
	}
	return sum / float64(count), count
}

// LastTime returns the final "time=" position in seconds from a stats line.
func (sp *StatsParser) LastTime(output string) float64 {
	matches := sp.timeRegex.FindAllStringSubmatch(output, -1)
	if len(matches) == 0 {
		return 0
	}
	return timeToSeconds(matches[len(matches)-1][1])
}

// timeToSeconds converts ffmpeg time format (HH:MM:SS.MS) to seconds
func timeToSeconds(timeStr string) float64 {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 3 {
		return 0
	}

	hours, err1 := strconv.ParseFloat(parts[0], 64)
	minutes, err2 := strconv.ParseFloat(parts[1], 64)
	seconds, err3 := strconv.ParseFloat(parts[2], 64)

	if err1 != nil || err2 != nil || err3 != nil {
		return 0
	}

	return hours*3600 + minutes*60 + seconds
}
