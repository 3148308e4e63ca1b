package azure

import (
	"context"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-desk/internal/core"
)

// Provider implements core.Provider on top of a Synthesizer and an AudioSink.
type Provider struct {
	client core.Synthesizer
	sink   core.AudioSink
	log    *logger.Logger
}

// NewProvider creates a provider.
func NewProvider(client core.Synthesizer, sink core.AudioSink, log *logger.Logger) *Provider {
	return &Provider{client: client, sink: sink, log: log}
}

// Synthesize fetches the audio and delivers it. Service and delivery errors
// are reported as canceled results with CancelError and the error text.
func (p *Provider) Synthesize(ctx context.Context, req core.SynthesisRequest) (core.Result, error) {
	audioData, err := p.client.GenerateSpeech(ctx, req.Speech())
	if err != nil {
		p.log.Warn("Speech service request failed: %v", err)

		return core.ErrorResult(ctx, err), nil
	}

	deliverErr := p.sink.Deliver(ctx, req.Output, audioData)
	if deliverErr != nil {
		p.log.Warn("Audio delivery to %s failed: %v", req.Output, deliverErr)

		return core.ErrorResult(ctx, deliverErr), nil
	}

	return core.CompletedResult(len(audioData)), nil
}
