package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-desk/internal/core"
	goaudio "github.com/go-audio/audio"
)

const (
	filePermissions = 0o600
	dirPermissions  = 0o750
)

// ErrSpeakerUnavailable indicates the binary was built without speaker support
// or no output device could be opened.
var ErrSpeakerUnavailable = errors.New("speaker output unavailable")

// Player plays decoded PCM on an output device until done or ctx is canceled.
type Player interface {
	Play(ctx context.Context, pcm *goaudio.IntBuffer) error
}

// Sink implements core.AudioSink.
type Sink struct {
	player Player
	log    *logger.Logger
}

// NewSink creates a sink. player may be nil, in which case speaker targets fail
// with ErrSpeakerUnavailable.
func NewSink(player Player, log *logger.Logger) *Sink {
	return &Sink{player: player, log: log}
}

// Deliver validates the WAV payload, then writes it to the target file or
// plays it on the speaker.
func (s *Sink) Deliver(ctx context.Context, target core.OutputTarget, wavData []byte) error {
	info, err := Inspect(wavData)
	if err != nil {
		return err
	}

	s.log.Info("Delivering %s of audio (%d Hz, %d ch, %d bit) to %s",
		info.Duration, info.SampleRate, info.Channels, info.BitDepth, target)

	if target.IsFile() {
		return writeFile(target.FilePath, wavData)
	}

	if s.player == nil {
		return ErrSpeakerUnavailable
	}

	pcm, err := DecodePCM(wavData)
	if err != nil {
		return err
	}

	playErr := s.player.Play(ctx, pcm)
	if playErr != nil {
		return fmt.Errorf("playback failed: %w", playErr)
	}

	return nil
}

func writeFile(path string, data []byte) error {
	dirErr := os.MkdirAll(filepath.Dir(path), dirPermissions)
	if dirErr != nil {
		return fmt.Errorf("failed to create output directory: %w", dirErr)
	}

	writeErr := os.WriteFile(path, data, filePermissions)
	if writeErr != nil {
		return fmt.Errorf("failed to write audio file: %w", writeErr)
	}

	return nil
}
