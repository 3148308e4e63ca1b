package core

import (
	"context"
	"errors"
	"strings"
)

// Field identifies one of the user-editable inputs.
type Field int

const (
	FieldKey Field = iota
	FieldRegion
	FieldVoice
	FieldText
)

// SettingsFields are the fields that are persisted and tracked for dirtiness.
var SettingsFields = []Field{FieldKey, FieldRegion, FieldVoice}

func (f Field) String() string {
	switch f {
	case FieldKey:
		return "key"
	case FieldRegion:
		return "region"
	case FieldVoice:
		return "voice"
	case FieldText:
		return "text"
	default:
		return "unknown"
	}
}

// IsSetting reports whether the field is part of the persisted settings.
func (f Field) IsSetting() bool {
	return f == FieldKey || f == FieldRegion || f == FieldVoice
}

// FieldState holds the current input values.
type FieldState struct {
	Key    string
	Region string
	Voice  string
	Text   string
}

// With returns a copy of the state with one field replaced.
func (s FieldState) With(field Field, value string) FieldState {
	switch field {
	case FieldKey:
		s.Key = value
	case FieldRegion:
		s.Region = value
	case FieldVoice:
		s.Voice = value
	case FieldText:
		s.Text = value
	}

	return s
}

// Settings returns the state with the text body cleared.
func (s FieldState) Settings() FieldState {
	return FieldState{Key: strings.TrimSpace(s.Key), Region: s.Region, Voice: s.Voice, Text: ""}
}

// Status is the lifecycle state of a synthesis session.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusCancelRequested
	StatusCompleted
	StatusCanceled
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusCancelRequested:
		return "cancel-requested"
	case StatusCompleted:
		return "completed"
	case StatusCanceled:
		return "canceled"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCanceled || s == StatusFailed
}

// Outcome is the terminal result of a session.
type Outcome struct {
	Status  Status
	Message string
	// Detail carries the provider's error text and is only set on StatusFailed.
	Detail string
}

// OutputTarget selects where audio goes. An empty FilePath means the
// default speaker.
type OutputTarget struct {
	FilePath string
}

// Speaker targets the default output device.
func Speaker() OutputTarget {
	return OutputTarget{FilePath: ""}
}

// File targets a WAV file.
func File(path string) OutputTarget {
	return OutputTarget{FilePath: path}
}

// IsFile reports whether audio is written to a file.
func (t OutputTarget) IsFile() bool {
	return t.FilePath != ""
}

func (t OutputTarget) String() string {
	if t.IsFile() {
		return t.FilePath
	}

	return "speaker"
}

// SpeechRequest is the provider-facing part of a synthesis request.
type SpeechRequest struct {
	Credential string
	Region     string
	Voice      string
	Text       string
}

// SynthesisRequest is a speech request plus its output target.
type SynthesisRequest struct {
	Credential string
	Region     string
	Voice      string
	Text       string
	Output     OutputTarget
}

// Speech drops the output target.
func (r SynthesisRequest) Speech() SpeechRequest {
	return SpeechRequest{
		Credential: r.Credential,
		Region:     r.Region,
		Voice:      r.Voice,
		Text:       r.Text,
	}
}

// ResultReason is the provider's top-level result classification.
type ResultReason int

const (
	ReasonCompleted ResultReason = iota + 1
	ReasonCanceled
)

// CancellationReason explains a ReasonCanceled result.
type CancellationReason int

const (
	CancelNone CancellationReason = iota
	CancelError
	CancelEndOfStream
	CancelCancelledByUser
)

func (r CancellationReason) String() string {
	switch r {
	case CancelNone:
		return "None"
	case CancelError:
		return "Error"
	case CancelEndOfStream:
		return "EndOfStream"
	case CancelCancelledByUser:
		return "CancelledByUser"
	default:
		return "Unknown"
	}
}

// Result is what a provider reports for one request.
type Result struct {
	Reason       ResultReason
	Cancellation CancellationReason
	ErrorDetails string
	AudioBytes   int
}

// CompletedResult reports a finished synthesis of n audio bytes.
func CompletedResult(n int) Result {
	return Result{Reason: ReasonCompleted, Cancellation: CancelNone, ErrorDetails: "", AudioBytes: n}
}

// CanceledResult reports a canceled synthesis.
func CanceledResult(reason CancellationReason, details string) Result {
	return Result{Reason: ReasonCanceled, Cancellation: reason, ErrorDetails: details, AudioBytes: 0}
}

// ErrorResult converts a provider-side error into a canceled result. An
// error caused by canceling ctx is reported as CancelCancelledByUser.
func ErrorResult(ctx context.Context, err error) Result {
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return CanceledResult(CancelCancelledByUser, "")
	}

	return CanceledResult(CancelError, err.Error())
}
