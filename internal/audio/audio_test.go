package audio_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-desk/internal/audio"
	"github.com/book-expert/speech-desk/internal/core"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSampleRate = 16000
	testBitDepth   = 16
)

// makeWAV encodes a mono 16-bit WAV of the given number of samples.
func makeWAV(t *testing.T, samples int) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tone.wav")

	file, err := os.Create(path)
	require.NoError(t, err)

	encoder := wav.NewEncoder(file, testSampleRate, testBitDepth, 1, 1)

	data := make([]int, samples)
	for i := range data {
		data[i] = (i % 100) * 100
	}

	require.NoError(t, encoder.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: testSampleRate},
		Data:           data,
		SourceBitDepth: testBitDepth,
	}))
	require.NoError(t, encoder.Close())
	require.NoError(t, file.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	return content
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "audio-test.log")
	require.NoError(t, err)

	t.Cleanup(func() { _ = log.Close() })

	return log
}

type capturePlayer struct {
	played *goaudio.IntBuffer
}

func (p *capturePlayer) Play(_ context.Context, pcm *goaudio.IntBuffer) error {
	p.played = pcm

	return nil
}

func TestInspect(t *testing.T) {
	t.Parallel()

	info, err := audio.Inspect(makeWAV(t, testSampleRate/2))
	require.NoError(t, err)

	assert.Equal(t, testSampleRate, info.SampleRate)
	assert.Equal(t, 1, info.Channels)
	assert.Equal(t, testBitDepth, info.BitDepth)
	assert.InDelta(t, float64(500*time.Millisecond), float64(info.Duration), float64(10*time.Millisecond))
}

func TestInspect_RejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := audio.Inspect([]byte("definitely not a riff file"))
	require.ErrorIs(t, err, audio.ErrInvalidWAV)
}

func TestSink_WritesFile(t *testing.T) {
	t.Parallel()

	data := makeWAV(t, 1600)
	target := filepath.Join(t.TempDir(), "nested", "out.wav")

	sink := audio.NewSink(nil, newTestLogger(t))
	require.NoError(t, sink.Deliver(context.Background(), core.File(target), data))

	written, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, data, written)
}

func TestSink_PlaysOnSpeaker(t *testing.T) {
	t.Parallel()

	player := &capturePlayer{}
	sink := audio.NewSink(player, newTestLogger(t))

	require.NoError(t, sink.Deliver(context.Background(), core.Speaker(), makeWAV(t, 1600)))
	require.NotNil(t, player.played)
	assert.Len(t, player.played.Data, 1600)
}

func TestSink_SpeakerWithoutPlayer(t *testing.T) {
	t.Parallel()

	sink := audio.NewSink(nil, newTestLogger(t))

	err := sink.Deliver(context.Background(), core.Speaker(), makeWAV(t, 10))
	require.ErrorIs(t, err, audio.ErrSpeakerUnavailable)
}

func TestTimestampedPath(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	assert.Equal(t, filepath.Join("rec", "speech-20240309-140507.wav"), audio.TimestampedPath("rec", now))
}

func TestPrepareOutputPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "ok.wav")

	assert.Equal(t, good, audio.PrepareOutputPath(good, audio.FallbackRecording))
	assert.FileExists(t, good)

	missingDir := filepath.Join(dir, "missing", "out.wav")
	assert.Equal(t, audio.FallbackRecording, audio.PrepareOutputPath(missingDir, audio.FallbackRecording))
	assert.Equal(t, audio.FallbackRecording, audio.PrepareOutputPath("", audio.FallbackRecording))
}
