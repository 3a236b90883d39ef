package captions

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Format names a recognized caption syntax.
type Format string

const (
	FormatWebVTT  Format = "webvtt"
	FormatSubRip  Format = "subrip"
	FormatUnknown Format = "unknown"
)

// Info summarizes caption text.
type Info struct {
	Format Format
	Cues   int
	// LastCueEnd is the end time of the latest cue in seconds.
	LastCueEnd float64
}

// Decode converts raw caption bytes to UTF-8 text. A UTF-8 or UTF-16 byte
// order mark selects the encoding and is stripped; without one the data is
// read as UTF-8 with invalid sequences replaced.
func Decode(data []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", fmt.Errorf("decode captions: %w", err)
	}
	return normalizeNewlines(string(out)), nil
}

func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// Detect reports the caption syntax of text.
func Detect(text string) Format {
	trimmed := strings.TrimLeft(text, "\ufeff \t\n")
	if strings.HasPrefix(trimmed, "WEBVTT") {
		return FormatWebVTT
	}
	lines := strings.SplitN(trimmed, "\n", 3)
	if len(lines) >= 2 {
		if _, err := strconv.Atoi(strings.TrimSpace(lines[0])); err == nil && strings.Contains(lines[1], "-->") {
			return FormatSubRip
		}
	}
	return FormatUnknown
}

// Inspect detects the format of text and counts its cues.
func Inspect(text string) Info {
	info := Info{Format: Detect(text)}
	for _, line := range strings.Split(normalizeNewlines(text), "\n") {
		if !strings.Contains(line, "-->") {
			continue
		}
		parts := strings.Split(line, "-->")
		if len(parts) != 2 {
			continue
		}
		info.Cues++
		endFields := strings.Fields(parts[1])
		if len(endFields) == 0 {
			continue
		}
		if seconds, err := parseTimestamp(endFields[0]); err == nil && seconds > info.LastCueEnd {
			info.LastCueEnd = seconds
		}
	}
	return info
}

// ToWebVTT returns text as WebVTT for a browser track. WebVTT input is
// returned unchanged. Anything else gets a WEBVTT header and its cue timing
// lines rewritten from SubRip's comma to WebVTT's dot millisecond separator.
func ToWebVTT(text string) string {
	if Detect(text) == FormatWebVTT {
		return text
	}
	lines := strings.Split(normalizeNewlines(strings.TrimLeft(text, "\ufeff")), "\n")
	for i, line := range lines {
		if strings.Contains(line, "-->") {
			lines[i] = strings.ReplaceAll(line, ",", ".")
		}
	}
	return "WEBVTT\n\n" + strings.Join(lines, "\n")
}

// parseTimestamp accepts SubRip (hh:mm:ss,mmm) and WebVTT (hh:mm:ss.mmm or
// mm:ss.mmm) timestamps.
func parseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	clock := strings.Split(timeParts[0], ":")
	if len(clock) == 2 {
		clock = append([]string{"0"}, clock...)
	}
	if len(clock) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(clock[0])
	minutes, errM := strconv.Atoi(clock[1])
	seconds, errS := strconv.Atoi(clock[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

// String renders a short description such as "WebVTT, 12 cues".
func (i Info) String() string {
	name := "Unknown format"
	switch i.Format {
	case FormatWebVTT:
		name = "WebVTT"
	case FormatSubRip:
		name = "SubRip"
	}
	noun := "cues"
	if i.Cues == 1 {
		noun = "cue"
	}
	return fmt.Sprintf("%s, %d %s", name, i.Cues, noun)
}
