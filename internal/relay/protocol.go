// Package relay defines the NATS request/reply protocol between speech-desk
// clients and the speech-relay service.
//
// A request carries an events.TextProcessedEvent whose TextKey names the
// text in the text bucket; the credential and region travel as headers.
// A successful reply is an events.AudioChunkCreatedEvent whose AudioKey
// names the WAV in the audio bucket. A failed reply has no body and a
// Speech-Error header.
package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/book-expert/events"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Message headers.
const (
	HeaderKey    = "Speech-Key"
	HeaderRegion = "Speech-Region"
	HeaderError  = "Speech-Error"
)

// QueueGroup load-balances requests across relay instances.
const QueueGroup = "speech-relay"

var (
	// ErrRemote indicates the relay answered with an error.
	ErrRemote = errors.New("relay error")
	// ErrMalformed indicates a message could not be decoded.
	ErrMalformed = errors.New("malformed relay message")
)

// Credentials are the per-request account settings sent as headers.
type Credentials struct {
	Key    string
	Region string
}

// NewRequestEvent builds the event announcing text stored under textKey.
func NewRequestEvent(textKey, voice string) events.TextProcessedEvent {
	return events.TextProcessedEvent{
		Header: events.EventHeader{
			Timestamp:  time.Now(),
			WorkflowID: uuid.NewString(),
			EventID:    uuid.NewString(),
			UserID:     "",
			TenantID:   "",
		},
		TextKey:           textKey,
		PNGKey:            "",
		PageNumber:        0,
		TotalPages:        0,
		Voice:             voice,
		Seed:              0,
		NGL:               0,
		TopP:              0,
		RepetitionPenalty: 0,
		Temperature:       0,
	}
}

// NewRequest encodes a request message for subject.
func NewRequest(subject string, event events.TextProcessedEvent, creds Credentials) (*nats.Msg, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request event: %w", err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set(HeaderKey, creds.Key)
	msg.Header.Set(HeaderRegion, creds.Region)

	return msg, nil
}

// DecodeRequest reads the event and credentials from a request message.
func DecodeRequest(msg *nats.Msg) (events.TextProcessedEvent, Credentials, error) {
	var event events.TextProcessedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		return event, Credentials{}, fmt.Errorf("%w: failed to unmarshal request: %w", ErrMalformed, err)
	}

	creds := Credentials{Key: "", Region: ""}
	if msg.Header != nil {
		creds.Key = msg.Header.Get(HeaderKey)
		creds.Region = msg.Header.Get(HeaderRegion)
	}

	return event, creds, nil
}

// NewReply encodes a successful reply.
func NewReply(event events.AudioChunkCreatedEvent) (*nats.Msg, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reply event: %w", err)
	}

	msg := nats.NewMsg("")
	msg.Data = data

	return msg, nil
}

// NewErrorReply encodes a failed reply carrying detail. Line breaks are
// folded since the detail travels in a header.
func NewErrorReply(detail string) *nats.Msg {
	msg := nats.NewMsg("")
	msg.Header.Set(HeaderError, strings.Join(strings.Fields(detail), " "))

	return msg
}

// DecodeReply returns the reply event, or an error wrapping ErrRemote whose
// text ends with the relay's detail.
func DecodeReply(msg *nats.Msg) (events.AudioChunkCreatedEvent, error) {
	var event events.AudioChunkCreatedEvent

	if msg.Header != nil {
		detail := msg.Header.Get(HeaderError)
		if detail != "" {
			return event, &RemoteError{Detail: detail}
		}
	}

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		return event, fmt.Errorf("%w: failed to unmarshal reply: %w", ErrMalformed, err)
	}

	if event.AudioKey == "" {
		return event, fmt.Errorf("%w: reply has no audio key", ErrMalformed)
	}

	return event, nil
}

// RemoteError is the relay's reported failure.
type RemoteError struct {
	Detail string
}

func (e *RemoteError) Error() string {
	return e.Detail
}

// Unwrap lets errors.Is match ErrRemote.
func (e *RemoteError) Unwrap() error {
	return ErrRemote
}
