package natsbus_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-desk/internal/audio"
	"github.com/book-expert/speech-desk/internal/core"
	"github.com/book-expert/speech-desk/internal/objectstore"
	"github.com/book-expert/speech-desk/internal/provider/natsbus"
	"github.com/book-expert/speech-desk/internal/relay"
	"github.com/book-expert/speech-desk/internal/worker"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSubject = "speech.synthesize"

type synthesizerFunc func(ctx context.Context, req core.SpeechRequest) ([]byte, error)

func (f synthesizerFunc) GenerateSpeech(ctx context.Context, req core.SpeechRequest) ([]byte, error) {
	return f(ctx, req)
}

type harness struct {
	provider *natsbus.Provider
	texts    *objectstore.Bucket
	audio    *objectstore.Bucket
}

func makeWAV(t *testing.T) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tone.wav")

	file, err := os.Create(path)
	require.NoError(t, err)

	encoder := wav.NewEncoder(file, 16000, 16, 1, 1)
	require.NoError(t, encoder.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 16000},
		Data:           make([]int, 1600),
		SourceBitDepth: 16,
	}))
	require.NoError(t, encoder.Close())
	require.NoError(t, file.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	return content
}

// newHarness starts an embedded JetStream server and, when speech is not
// nil, a relay worker serving it.
func newHarness(t *testing.T, speech core.Synthesizer) *harness {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	server := test.RunServer(&opts)

	natsConnection, err := nats.Connect(server.ClientURL())
	if err != nil {
		server.Shutdown()
		t.Fatalf("Failed to connect to test NATS server: %v", err)
	}

	t.Cleanup(func() {
		natsConnection.Close()
		server.Shutdown()
	})

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	texts, err := objectstore.Open(jetstreamContext, "speech-text", time.Hour)
	require.NoError(t, err)

	audioBucket, err := objectstore.Open(jetstreamContext, "speech-audio", time.Hour)
	require.NoError(t, err)

	log, err := logger.New(t.TempDir(), "natsbus-test.log")
	require.NoError(t, err)

	t.Cleanup(func() { _ = log.Close() })

	if speech != nil {
		relayWorker, workerErr := worker.NewNatsWorker(natsConnection, worker.Options{
			Subject:       testSubject,
			Texts:         texts,
			Audio:         audioBucket,
			Speech:        speech,
			Log:           log,
			Fallback:      relay.Credentials{},
			HandleTimeout: 5 * time.Second,
		})
		require.NoError(t, workerErr)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})

		go func() {
			defer close(done)

			_ = relayWorker.Run(ctx)
		}()

		t.Cleanup(func() {
			cancel()
			<-done
		})

		require.Eventually(t, func() bool {
			return natsConnection.NumSubscriptions() > 0
		}, 5*time.Second, 10*time.Millisecond)
		require.NoError(t, natsConnection.Flush())
	}

	provider := natsbus.New(natsConnection, natsbus.Options{
		Subject: testSubject,
		Texts:   texts,
		Audio:   audioBucket,
		Sink:    audio.NewSink(nil, log),
		Log:     log,
	})

	return &harness{provider: provider, texts: texts, audio: audioBucket}
}

func fileRequest(path string) core.SynthesisRequest {
	return core.SynthesisRequest{
		Credential: "abc123",
		Region:     "eastus",
		Voice:      "en-US-JennyNeural",
		Text:       "Hello from the relay",
		Output:     core.File(path),
	}
}

func TestSynthesize_WritesRecording(t *testing.T) {
	t.Parallel()

	wavData := makeWAV(t)
	received := make(chan core.SpeechRequest, 1)

	h := newHarness(t, synthesizerFunc(func(_ context.Context, req core.SpeechRequest) ([]byte, error) {
		received <- req

		return wavData, nil
	}))

	outPath := filepath.Join(t.TempDir(), "out.wav")

	result, err := h.provider.Synthesize(context.Background(), fileRequest(outPath))
	require.NoError(t, err)
	assert.Equal(t, core.CompletedResult(len(wavData)), result)

	got := <-received
	assert.Equal(t, "abc123", got.Credential)
	assert.Equal(t, "eastus", got.Region)
	assert.Equal(t, "Hello from the relay", got.Text)

	written, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, wavData, written)
}

func TestSynthesize_RelayErrorIsCanceledWithDetail(t *testing.T) {
	t.Parallel()

	h := newHarness(t, synthesizerFunc(func(context.Context, core.SpeechRequest) ([]byte, error) {
		return nil, errors.New("401 Unauthorized")
	}))

	result, err := h.provider.Synthesize(context.Background(), fileRequest(filepath.Join(t.TempDir(), "out.wav")))
	require.NoError(t, err)
	assert.Equal(t, core.CanceledResult(core.CancelError, "401 Unauthorized"), result)
}

func TestSynthesize_CancelIsReportedAsUserCancel(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	h := newHarness(t, synthesizerFunc(func(context.Context, core.SpeechRequest) ([]byte, error) {
		close(started)
		<-release

		return nil, errors.New("released")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan core.Result, 1)
	req := fileRequest(filepath.Join(t.TempDir(), "out.wav"))

	go func() {
		result, _ := h.provider.Synthesize(ctx, req)
		results <- result
	}()

	<-started
	cancel()

	select {
	case result := <-results:
		assert.Equal(t, core.CanceledResult(core.CancelCancelledByUser, ""), result)
	case <-time.After(5 * time.Second):
		t.Fatal("Synthesize did not return after cancel")
	}
}

func TestSynthesize_NoRelay(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)

	result, err := h.provider.Synthesize(context.Background(), fileRequest(filepath.Join(t.TempDir(), "out.wav")))
	require.NoError(t, err)
	assert.Equal(t, core.ReasonCanceled, result.Reason)
	assert.Equal(t, core.CancelError, result.Cancellation)
	assert.Contains(t, result.ErrorDetails, "no responders")
}
