package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ResolveFFmpeg reports the ffmpeg binary the local engine will execute.
//
// An ffmpeg binary sitting next to the captionmux executable wins, which lets
// a bundled build ship its own engine. Otherwise the configured name or path
// is resolved through PATH.
func ResolveFFmpeg(configured string) Status {
	self, err := os.Executable()
	if err != nil {
		self = ""
	}
	return resolveFFmpeg(self, configured)
}

func resolveFFmpeg(selfPath, configured string) Status {
	result := Status{
		Name:        "FFmpeg",
		Description: "Local engine for subtitle conversion and remux",
	}

	if candidate, ok := sidecarCandidate(selfPath); ok {
		if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
			result.Command = candidate
			result.Available = true
			return result
		}
	}

	name := strings.TrimSpace(configured)
	if name == "" {
		name = "ffmpeg"
	}
	if resolved, err := exec.LookPath(name); err == nil {
		result.Command = resolved
		result.Available = true
		return result
	}

	result.Command = name
	result.Detail = fmt.Sprintf("binary %q not found", name)
	return result
}

func sidecarCandidate(selfPath string) (string, bool) {
	if strings.TrimSpace(selfPath) == "" {
		return "", false
	}
	name := "ffmpeg"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(filepath.Dir(selfPath), name), true
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
