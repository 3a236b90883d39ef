package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// SampleVTT is a two-cue WebVTT document.
const SampleVTT = "WEBVTT\n\n00:00.000 --> 00:02.000\nHello\n\n00:02.500 --> 00:04.000\nWorld\n"

// FakeMP4 returns size bytes that start with an MP4 ftyp box, enough for
// content sniffing to treat them as video. A size below the header length
// returns just the header.
func FakeMP4(size int) []byte {
	header := []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom")
	if size < len(header) {
		size = len(header)
	}
	data := make([]byte, size)
	copy(data, header)
	for i := len(header); i < size; i++ {
		data[i] = 0x42
	}
	return data
}

// WriteScript writes an executable /bin/sh stub into dir and returns its path.
func WriteScript(t testing.TB, dir, name, body string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
