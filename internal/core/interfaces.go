// Package core defines the shared types and collaborator interfaces for speech-desk.
package core

import "context"

// View is the presentation surface the controller drives. Implementations
// are only ever called from the foreground thread.
type View interface {
	ShowStatus(text string)
	SetInputEnabled(enabled bool)
	SetFieldHighlight(field Field, invalid bool)
	SetSaveEnabled(enabled bool)
	SetReadEnabled(enabled bool)
	SetDirty(dirty bool)
}

// Dispatcher runs a function on the foreground thread.
type Dispatcher interface {
	Dispatch(fn func())
}

// Notifier performs platform side effects: an audible failure cue and
// opening a finished recording.
type Notifier interface {
	Alert()
	Open(path string) error
}

// Provider synthesizes speech for a request. Cancellation is requested by
// canceling ctx; the provider may still report completion.
type Provider interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (Result, error)
}

// Synthesizer turns text into WAV bytes without delivering them anywhere.
type Synthesizer interface {
	GenerateSpeech(ctx context.Context, req SpeechRequest) ([]byte, error)
}

// AudioSink delivers synthesized WAV audio to an output target.
type AudioSink interface {
	Deliver(ctx context.Context, target OutputTarget, wavData []byte) error
}

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}
