// Package natsbus synthesizes speech through a speech-relay service over NATS.
package natsbus

import (
	"context"
	"errors"
	"fmt"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-desk/internal/core"
	"github.com/book-expert/speech-desk/internal/relay"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Options configures a Provider.
type Options struct {
	Subject string
	Texts   core.ObjectStore
	Audio   core.ObjectStore
	Sink    core.AudioSink
	Log     *logger.Logger
}

// Provider implements core.Provider by uploading the text, asking the relay
// to synthesize it and downloading the resulting audio.
type Provider struct {
	natsConnection *nats.Conn
	subject        string
	texts          core.ObjectStore
	audio          core.ObjectStore
	sink           core.AudioSink
	log            *logger.Logger
}

// New creates a provider on an established connection.
func New(natsConnection *nats.Conn, opts Options) *Provider {
	return &Provider{
		natsConnection: natsConnection,
		subject:        opts.Subject,
		texts:          opts.Texts,
		audio:          opts.Audio,
		sink:           opts.Sink,
		log:            opts.Log,
	}
}

// Synthesize runs one request through the relay. Relay-side failures come
// back as canceled results with CancelError and the relay's detail.
func (p *Provider) Synthesize(ctx context.Context, req core.SynthesisRequest) (core.Result, error) {
	textKey := uuid.NewString() + ".txt"

	err := p.texts.Upload(ctx, textKey, []byte(req.Text))
	if err != nil {
		return core.ErrorResult(ctx, fmt.Errorf("failed to upload text: %w", err)), nil
	}

	event := relay.NewRequestEvent(textKey, req.Voice)

	msg, err := relay.NewRequest(p.subject, event, relay.Credentials{Key: req.Credential, Region: req.Region})
	if err != nil {
		return core.Result{}, err
	}

	p.log.Info("Workflow %s: requesting synthesis on %s", event.Header.WorkflowID, p.subject)

	replyMsg, err := p.natsConnection.RequestMsgWithContext(ctx, msg)
	if err != nil {
		p.cleanup(textKey)

		return core.ErrorResult(ctx, fmt.Errorf("relay request failed: %w", err)), nil
	}

	reply, err := relay.DecodeReply(replyMsg)
	if err != nil {
		var remote *relay.RemoteError
		if errors.As(err, &remote) {
			return core.CanceledResult(core.CancelError, remote.Detail), nil
		}

		return core.ErrorResult(ctx, err), nil
	}

	audioData, err := p.audio.Download(ctx, reply.AudioKey)
	if err != nil {
		return core.ErrorResult(ctx, err), nil
	}

	deleteErr := p.audio.Delete(ctx, reply.AudioKey)
	if deleteErr != nil {
		p.log.Warn("Failed to delete relay audio %s: %v", reply.AudioKey, deleteErr)
	}

	deliverErr := p.sink.Deliver(ctx, req.Output, audioData)
	if deliverErr != nil {
		return core.ErrorResult(ctx, deliverErr), nil
	}

	return core.CompletedResult(len(audioData)), nil
}

// cleanup removes text the relay never picked up.
func (p *Provider) cleanup(textKey string) {
	err := p.texts.Delete(context.Background(), textKey)
	if err != nil {
		p.log.Warn("Failed to delete unclaimed text %s: %v", textKey, err)
	}
}
