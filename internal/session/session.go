// Package session runs a single speech synthesis request and reports its
// terminal outcome exactly once.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-desk/internal/core"
	"github.com/google/uuid"
)

// Status messages shown to the user.
const (
	MsgCompleted   = "Speech synthesis completed."
	MsgStopped     = "Speech stopped!"
	msgFmtCanceled = "Speech synthesis canceled: %s"
	msgFmtError    = "Error: %s"
)

var (
	// ErrMissingCredential indicates the request has no subscription key.
	ErrMissingCredential = errors.New("subscription key is required")
	// ErrMissingRegion indicates the request has no region.
	ErrMissingRegion = errors.New("region is required")
	// ErrMissingVoice indicates the request has no voice.
	ErrMissingVoice = errors.New("voice is required")
	// ErrProviderPanic indicates the provider panicked during synthesis.
	ErrProviderPanic = errors.New("provider panicked")
	// ErrNoResult indicates the provider returned neither a result nor an error.
	ErrNoResult = errors.New("provider returned no result")
)

// Observer receives session notifications. OnStatusChanged is called for
// non-terminal transitions; OnTerminal is called exactly once per session.
// Calls may come from any goroutine.
type Observer interface {
	OnStatusChanged(s *Session, status core.Status)
	OnTerminal(s *Session, outcome core.Outcome)
}

// Session is one synthesis request's lifecycle.
type Session struct {
	id       string
	request  core.SynthesisRequest
	provider core.Provider
	observer Observer
	log      *logger.Logger

	mu              sync.Mutex
	status          core.Status
	cancelRequested bool
	outcome         core.Outcome
	cancel          context.CancelFunc

	once sync.Once
	done chan struct{}
}

// Start creates a session and, if the request carries a credential, region
// and voice, runs the provider on a new goroutine. A request missing any of
// them never reaches StatusRunning and resolves as StatusFailed.
func Start(
	ctx context.Context,
	provider core.Provider,
	req core.SynthesisRequest,
	observer Observer,
	log *logger.Logger,
) *Session {
	s := &Session{
		id:              uuid.NewString(),
		request:         req,
		provider:        provider,
		observer:        observer,
		log:             log,
		status:          core.StatusIdle,
		cancelRequested: false,
		outcome:         core.Outcome{Status: core.StatusIdle, Message: "", Detail: ""},
		cancel:          func() {},
		done:            make(chan struct{}),
	}

	preconditionErr := checkRequest(req)
	if preconditionErr != nil {
		s.log.Error("Session %s rejected: %v", s.id, preconditionErr)

		go s.resolve(func(bool) core.Outcome {
			return failedOutcome(preconditionErr.Error())
		})

		return s
	}

	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	s.status = core.StatusRunning
	s.mu.Unlock()

	s.log.Info("Session %s started: voice=%s region=%s output=%s",
		s.id, req.Voice, req.Region, req.Output)
	s.notifyStatus(core.StatusRunning)

	go s.run(runCtx)

	return s
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// Request returns the request the session was started with.
func (s *Session) Request() core.SynthesisRequest {
	return s.request
}

// Status returns the current lifecycle state.
func (s *Session) Status() core.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status
}

// Done is closed once the terminal outcome is known.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Outcome returns the terminal outcome, if the session has one.
func (s *Session) Outcome() (core.Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.outcome, s.status.IsTerminal()
}

// RequestCancel asks the provider to stop. It only acts while the session
// is running; later calls, or calls on a finished session, do nothing.
func (s *Session) RequestCancel() {
	s.mu.Lock()

	if s.status != core.StatusRunning {
		s.mu.Unlock()

		return
	}

	s.status = core.StatusCancelRequested
	s.cancelRequested = true
	cancel := s.cancel
	s.mu.Unlock()

	s.log.Info("Session %s: stop requested", s.id)
	cancel()
	s.notifyStatus(core.StatusCancelRequested)
}

func (s *Session) run(ctx context.Context) {
	result, err := s.invoke(ctx)

	s.resolve(func(cancelRequested bool) core.Outcome {
		return interpret(result, err, cancelRequested)
	})
}

func (s *Session) invoke(ctx context.Context) (result core.Result, err error) {
	defer func() {
		recovered := recover()
		if recovered != nil {
			err = fmt.Errorf("%w: %v", ErrProviderPanic, recovered)
		}
	}()

	return s.provider.Synthesize(ctx, s.request)
}

// resolve computes the outcome under the lock, so a concurrent
// RequestCancel either lands before it or is ignored, then delivers it once.
func (s *Session) resolve(decide func(cancelRequested bool) core.Outcome) {
	s.once.Do(func() {
		s.mu.Lock()
		outcome := decide(s.cancelRequested)
		s.status = outcome.Status
		s.outcome = outcome
		cancel := s.cancel
		s.mu.Unlock()

		cancel()
		close(s.done)

		if outcome.Status == core.StatusFailed {
			s.log.Error("Session %s failed: %s", s.id, outcome.Detail)
		} else {
			s.log.Info("Session %s %s: %s", s.id, outcome.Status, outcome.Message)
		}

		if s.observer != nil {
			s.observer.OnTerminal(s, outcome)
		}
	})
}

func (s *Session) notifyStatus(status core.Status) {
	if s.observer != nil {
		s.observer.OnStatusChanged(s, status)
	}
}

func checkRequest(req core.SynthesisRequest) error {
	if strings.TrimSpace(req.Credential) == "" {
		return ErrMissingCredential
	}

	if req.Region == "" {
		return ErrMissingRegion
	}

	if req.Voice == "" {
		return ErrMissingVoice
	}

	return nil
}

func interpret(result core.Result, err error, cancelRequested bool) core.Outcome {
	if err != nil {
		if cancelRequested && errors.Is(err, context.Canceled) {
			return canceledOutcome(core.CancelCancelledByUser)
		}

		return failedOutcome(err.Error())
	}

	switch result.Reason {
	case core.ReasonCompleted:
		message := MsgCompleted
		if cancelRequested {
			message = MsgStopped
		}

		return core.Outcome{Status: core.StatusCompleted, Message: message, Detail: ""}
	case core.ReasonCanceled:
		if result.Cancellation == core.CancelError && result.ErrorDetails != "" {
			return failedOutcome(result.ErrorDetails)
		}

		return canceledOutcome(result.Cancellation)
	default:
		return failedOutcome(ErrNoResult.Error())
	}
}

func canceledOutcome(reason core.CancellationReason) core.Outcome {
	return core.Outcome{
		Status:  core.StatusCanceled,
		Message: fmt.Sprintf(msgFmtCanceled, reason),
		Detail:  "",
	}
}

func failedOutcome(detail string) core.Outcome {
	return core.Outcome{
		Status:  core.StatusFailed,
		Message: fmt.Sprintf(msgFmtError, detail),
		Detail:  detail,
	}
}
