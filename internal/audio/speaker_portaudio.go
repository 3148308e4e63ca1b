//go:build portaudio

package audio

import (
	"context"
	"fmt"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 960

// Speaker plays PCM on the default output device through PortAudio.
type Speaker struct{}

// NewSpeaker initializes PortAudio. Close must be called when done.
func NewSpeaker() (*Speaker, error) {
	err := portaudio.Initialize()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to initialize PortAudio: %w", ErrSpeakerUnavailable, err)
	}

	return &Speaker{}, nil
}

// Close terminates PortAudio.
func (s *Speaker) Close() error {
	err := portaudio.Terminate()
	if err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}

	return nil
}

// Play writes pcm to a default output stream, aborting when ctx is canceled.
func (s *Speaker) Play(ctx context.Context, pcm *goaudio.IntBuffer) error {
	channels := pcm.Format.NumChannels
	out := make([]int16, framesPerBuffer*channels)

	stream, err := portaudio.OpenDefaultStream(0, channels, float64(pcm.Format.SampleRate), framesPerBuffer, out)
	if err != nil {
		return fmt.Errorf("%w: failed to open output stream: %w", ErrSpeakerUnavailable, err)
	}
	defer stream.Close()

	err = stream.Start()
	if err != nil {
		return fmt.Errorf("failed to start output stream: %w", err)
	}

	shift := pcm.SourceBitDepth - 16

	for offset := 0; offset < len(pcm.Data); offset += len(out) {
		if ctx.Err() != nil {
			_ = stream.Abort()

			return ctx.Err()
		}

		for i := range out {
			out[i] = 0

			if offset+i < len(pcm.Data) {
				out[i] = toInt16(pcm.Data[offset+i], shift)
			}
		}

		err = stream.Write()
		if err != nil {
			return fmt.Errorf("failed to write output stream: %w", err)
		}
	}

	err = stream.Stop()
	if err != nil {
		return fmt.Errorf("failed to stop output stream: %w", err)
	}

	return nil
}

func toInt16(sample, shift int) int16 {
	switch {
	case shift > 0:
		sample >>= shift
	case shift < 0:
		sample = (sample - 128) << -shift
	}

	return int16(max(math.MinInt16, min(math.MaxInt16, sample)))
}
