package main

import (
	"context"
	"errors"

	"github.com/book-expert/speech-desk/internal/core"
)

var errNoProvider = errors.New("no speech provider configured")

// inlineDispatcher runs functions immediately. Only valid when no session
// is ever started.
type inlineDispatcher struct{}

func (inlineDispatcher) Dispatch(fn func()) { fn() }

// noProvider backs controllers that only edit settings.
type noProvider struct{}

func (noProvider) Synthesize(context.Context, core.SynthesisRequest) (core.Result, error) {
	return core.Result{}, errNoProvider
}
