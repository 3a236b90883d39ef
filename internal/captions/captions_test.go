package captions

import (
	"testing"
)

const sampleVTT = "WEBVTT\n\n00:00.000 --> 00:02.500 align:start\nHello\n\n00:00:03.000 --> 00:00:05.250\nWorld\n"

const sampleSRT = "1\n00:00:01,000 --> 00:00:02,000\nHello\n\n2\n00:00:03,000 --> 00:01:04,500\nWorld\n"

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{name: "plain utf8", in: []byte("WEBVTT\n"), want: "WEBVTT\n"},
		{name: "utf8 bom", in: append([]byte{0xEF, 0xBB, 0xBF}, "WEBVTT\n"...), want: "WEBVTT\n"},
		{name: "utf16 le bom", in: []byte{0xFF, 0xFE, 'W', 0, 'E', 0, 'B', 0, '\n', 0}, want: "WEB\n"},
		{name: "utf16 be bom", in: []byte{0xFE, 0xFF, 0, 'O', 0, 'K'}, want: "OK"},
		{name: "crlf", in: []byte("WEBVTT\r\n\r\nx\r\n"), want: "WEBVTT\n\nx\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.in)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Decode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{in: sampleVTT, want: FormatWebVTT},
		{in: "\n\nWEBVTT - with header\n", want: FormatWebVTT},
		{in: sampleSRT, want: FormatSubRip},
		{in: "just some words", want: FormatUnknown},
		{in: "", want: FormatUnknown},
	}
	for _, tt := range tests {
		if got := Detect(tt.in); got != tt.want {
			t.Errorf("Detect(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInspect(t *testing.T) {
	info := Inspect(sampleVTT)
	if info.Format != FormatWebVTT || info.Cues != 2 {
		t.Fatalf("unexpected vtt info %#v", info)
	}
	if info.LastCueEnd != 5.25 {
		t.Fatalf("expected last cue end 5.25, got %v", info.LastCueEnd)
	}
	if info.String() != "WebVTT, 2 cues" {
		t.Fatalf("unexpected summary %q", info.String())
	}

	info = Inspect(sampleSRT)
	if info.Format != FormatSubRip || info.Cues != 2 || info.LastCueEnd != 64.5 {
		t.Fatalf("unexpected srt info %#v", info)
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "12", "aa:bb:cc,ddd", "1:2:3:4,000"} {
		if _, err := parseTimestamp(in); err == nil {
			t.Errorf("parseTimestamp(%q) expected error", in)
		}
	}
}

func TestToWebVTT(t *testing.T) {
	got := ToWebVTT(sampleSRT)
	want := "WEBVTT\n\n1\n00:00:01.000 --> 00:00:02.000\nHello\n\n2\n00:00:03.000 --> 00:01:04.500\nWorld\n"
	if got != want {
		t.Fatalf("ToWebVTT(srt) = %q, want %q", got, want)
	}
	if info := Inspect(got); info.Format != FormatWebVTT || info.Cues != 2 {
		t.Fatalf("converted track inspected as %+v", info)
	}

	vtt := "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nHi, there\n"
	if ToWebVTT(vtt) != vtt {
		t.Fatal("WebVTT input must be returned unchanged")
	}
	if got := ToWebVTT("1\r\n00:00:01,000 --> 00:00:02,000\r\nA, B\r\n"); got != "WEBVTT\n\n1\n00:00:01.000 --> 00:00:02.000\nA, B\n" {
		t.Fatalf("cue text commas must survive, got %q", got)
	}
}
