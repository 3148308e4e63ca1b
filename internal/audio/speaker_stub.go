//go:build !portaudio

package audio

import (
	"context"

	goaudio "github.com/go-audio/audio"
)

// Speaker is unavailable in builds without the portaudio tag.
type Speaker struct{}

// NewSpeaker reports ErrSpeakerUnavailable; build with -tags portaudio for playback.
func NewSpeaker() (*Speaker, error) {
	return nil, ErrSpeakerUnavailable
}

// Close does nothing.
func (s *Speaker) Close() error {
	return nil
}

// Play always fails.
func (s *Speaker) Play(_ context.Context, _ *goaudio.IntBuffer) error {
	return ErrSpeakerUnavailable
}
