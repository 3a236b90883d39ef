package preflight

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"captionmux/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace(context.Background(), "space", dir, 1); !result.Passed {
		t.Fatalf("expected pass for one byte, got: %s", result.Detail)
	}
	if result := CheckFreeSpace(context.Background(), "space", dir, math.MaxUint64); result.Passed {
		t.Fatal("expected failure for impossible requirement")
	}
}

func TestRunAll(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkspaceDir = filepath.Join(base, "ws")
	cfg.Paths.OutputDir = filepath.Join(base, "missing")
	if err := os.MkdirAll(cfg.Paths.WorkspaceDir, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg.Limits.MaxVideoMiB = 1

	results := RunAll(context.Background(), &cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[0].Passed {
		t.Fatalf("workspace check failed: %s", results[0].Detail)
	}
	if results[2].Passed {
		t.Fatal("expected missing output directory to fail")
	}
	if !Failed(results) {
		t.Fatal("expected Failed to report the missing directory")
	}
}

func TestFormatBytes(t *testing.T) {
	cases := map[uint64]string{
		512:              "512 B",
		2048:             "2.0 KiB",
		50 * 1024 * 1024: "50.0 MiB",
	}
	for in, want := range cases {
		if got := formatBytes(in); got != want {
			t.Fatalf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
