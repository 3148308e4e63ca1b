// Package worker provides the NATS worker behind the speech-relay service.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/speech-desk/internal/core"
	"github.com/book-expert/speech-desk/internal/relay"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const defaultHandleTimeout = 60 * time.Second

var (
	// ErrTextKeyEmpty indicates the request names no text object.
	ErrTextKeyEmpty = errors.New("text key cannot be empty")
	// ErrVoiceEmpty indicates that the voice is empty.
	ErrVoiceEmpty = errors.New("voice cannot be empty")
	// ErrRegionEmpty indicates that no region was sent or configured.
	ErrRegionEmpty = errors.New("region cannot be empty")
	// ErrCredentialEmpty indicates that no key was sent or configured.
	ErrCredentialEmpty = errors.New("subscription key cannot be empty")
	// ErrTextEmpty indicates the stored text is blank.
	ErrTextEmpty = errors.New("text cannot be empty")
)

// Options configures a NatsWorker.
type Options struct {
	Subject string
	Texts   core.ObjectStore
	Audio   core.ObjectStore
	Speech  core.Synthesizer
	Log     *logger.Logger

	// Fallback is used for requests that arrive without credentials.
	Fallback relay.Credentials

	// HandleTimeout bounds one request. Defaults to 60s.
	HandleTimeout time.Duration
}

// NatsWorker answers synthesis requests on a NATS subject.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	texts          core.ObjectStore
	audio          core.ObjectStore
	speech         core.Synthesizer
	fallback       relay.Credentials
	handleTimeout  time.Duration
	log            *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker.
func NewNatsWorker(natsConnection *nats.Conn, opts Options) (*NatsWorker, error) {
	if natsConnection == nil || opts.Texts == nil || opts.Audio == nil || opts.Speech == nil || opts.Log == nil {
		return nil, errors.New("worker requires a connection, both stores, a synthesizer and a logger")
	}

	if opts.Subject == "" {
		return nil, errors.New("worker subject cannot be empty")
	}

	timeout := opts.HandleTimeout
	if timeout <= 0 {
		timeout = defaultHandleTimeout
	}

	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        opts.Subject,
		texts:          opts.Texts,
		audio:          opts.Audio,
		speech:         opts.Speech,
		fallback:       opts.Fallback,
		handleTimeout:  timeout,
		log:            opts.Log,
	}, nil
}

// Run subscribes and serves requests until ctx is canceled, then drains.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.QueueSubscribe(w.subject, relay.QueueGroup, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	w.log.Info("Relay listening on %s", w.subject)

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), w.handleTimeout)
	defer cancel()

	event, creds, err := relay.DecodeRequest(msg)
	if err != nil {
		w.log.Error("Failed to decode request: %v", err)
		w.respondError(msg, err)

		return
	}

	audioKey, err := w.processRequest(ctx, event, creds)
	if err != nil {
		w.log.Error("Failed to synthesize workflow %s: %v", event.Header.WorkflowID, err)
		w.respondError(msg, err)

		return
	}

	reply, err := relay.NewReply(events.AudioChunkCreatedEvent{
		Header:     event.Header,
		AudioKey:   audioKey,
		PageNumber: event.PageNumber,
		TotalPages: event.TotalPages,
	})
	if err != nil {
		w.log.Error("Failed to encode reply for workflow %s: %v", event.Header.WorkflowID, err)
		w.respondError(msg, err)

		return
	}

	err = msg.RespondMsg(reply)
	if err != nil {
		w.log.Error("Failed to publish reply for workflow %s: %v", event.Header.WorkflowID, err)
	}
}

// processRequest downloads the text, synthesizes it and uploads the audio.
func (w *NatsWorker) processRequest(
	ctx context.Context,
	event events.TextProcessedEvent,
	creds relay.Credentials,
) (string, error) {
	req, err := w.buildRequest(event, creds)
	if err != nil {
		return "", err
	}

	textData, err := w.texts.Download(ctx, event.TextKey)
	if err != nil {
		return "", fmt.Errorf("failed to download text for key '%s': %w", event.TextKey, err)
	}

	deleteErr := w.texts.Delete(ctx, event.TextKey)
	if deleteErr != nil {
		w.log.Warn("Failed to delete text '%s': %v", event.TextKey, deleteErr)
	}

	req.Text = strings.TrimSpace(string(textData))
	if req.Text == "" {
		return "", ErrTextEmpty
	}

	audioData, err := w.speech.GenerateSpeech(ctx, req)
	if err != nil {
		return "", err
	}

	audioKey := uuid.NewString() + ".wav"

	err = w.audio.Upload(ctx, audioKey, audioData)
	if err != nil {
		return "", fmt.Errorf("failed to upload audio for key '%s': %w", audioKey, err)
	}

	w.log.Info("Workflow %s: %d bytes of audio stored as %s", event.Header.WorkflowID, len(audioData), audioKey)

	return audioKey, nil
}

// buildRequest validates the request, applying the configured fallback
// credentials where the client sent none.
func (w *NatsWorker) buildRequest(event events.TextProcessedEvent, creds relay.Credentials) (core.SpeechRequest, error) {
	if event.TextKey == "" {
		return core.SpeechRequest{}, ErrTextKeyEmpty
	}

	if event.Voice == "" {
		return core.SpeechRequest{}, ErrVoiceEmpty
	}

	if creds.Key == "" {
		creds.Key = w.fallback.Key
	}

	if creds.Region == "" {
		creds.Region = w.fallback.Region
	}

	if creds.Key == "" {
		return core.SpeechRequest{}, ErrCredentialEmpty
	}

	if creds.Region == "" {
		return core.SpeechRequest{}, ErrRegionEmpty
	}

	return core.SpeechRequest{
		Credential: creds.Key,
		Region:     creds.Region,
		Voice:      event.Voice,
		Text:       "",
	}, nil
}

func (w *NatsWorker) respondError(msg *nats.Msg, cause error) {
	err := msg.RespondMsg(relay.NewErrorReply(cause.Error()))
	if err != nil {
		w.log.Error("Failed to publish error reply: %v", err)
	}
}
