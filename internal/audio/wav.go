// Package audio inspects synthesized WAV data and delivers it to a file or
// the default output device.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrInvalidWAV indicates the provider returned data that is not a PCM WAV file.
var ErrInvalidWAV = errors.New("invalid WAV data")

// Info describes a WAV payload.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

// Inspect reads the WAV header and computes the playback duration.
func Inspect(data []byte) (Info, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return Info{}, ErrInvalidWAV
	}

	duration, err := decoder.Duration()
	if err != nil {
		return Info{}, fmt.Errorf("%w: %w", ErrInvalidWAV, err)
	}

	return Info{
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
		BitDepth:   int(decoder.BitDepth),
		Duration:   duration,
	}, nil
}

// DecodePCM decodes the full sample buffer.
func DecodePCM(data []byte) (*goaudio.IntBuffer, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, ErrInvalidWAV
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWAV, err)
	}

	return buf, nil
}
