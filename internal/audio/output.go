package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// FallbackRecording is used when the chosen output path cannot be created.
	FallbackRecording = "rec.wav"
	timestampLayout   = "20060102-150405"
)

// TimestampedPath builds dir/speech-YYYYMMDD-HHMMSS.wav.
func TimestampedPath(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("speech-%s.wav", now.Format(timestampLayout)))
}

// PrepareOutputPath checks that path can be created for writing. When it
// cannot (empty, missing directory, no permission) the fallback is returned.
func PrepareOutputPath(path, fallback string) string {
	if path == "" {
		return fallback
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, filePermissions)
	if err != nil {
		return fallback
	}

	closeErr := file.Close()
	if closeErr != nil {
		return fallback
	}

	return path
}
