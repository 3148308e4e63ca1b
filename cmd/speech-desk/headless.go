package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/book-expert/speech-desk/internal/controller"
	"github.com/book-expert/speech-desk/internal/core"
)

// errSynthesisFailed is returned when a session ends in the failed state.
var errSynthesisFailed = errors.New("speech synthesis failed")

// fieldFlags are the per-invocation overrides of the saved settings.
type fieldFlags struct {
	key    string
	region string
	voice  string
	save   bool
}

// headlessRun drives one controller session on a private foreground loop.
type headlessRun struct {
	rt        *deskRuntime
	out       io.Writer
	notifier  core.Notifier
	overrides fieldFlags
	text      string
	start     func(ctrl *controller.Controller) error
}

// run starts the session and blocks until it reaches a terminal state. An
// interrupt requests a stop instead of killing the process.
func (h headlessRun) run(ctx context.Context) (core.Outcome, error) {
	loop := controller.NewLoop()
	view := newConsoleView(h.out)

	var (
		ctrl     *controller.Controller
		outcome  core.Outcome
		finished bool
		runErr   error
		err      error
	)

	ctrl, err = controller.New(controller.Options{
		View:       view,
		Store:      h.rt.store,
		Provider:   h.rt.provider,
		Dispatcher: loop,
		Log:        h.rt.log,
		Notifier:   h.notifier,
		Context:    ctx,
		AfterTerminal: func(o core.Outcome) {
			outcome = o
			finished = true

			if h.overrides.save && o.Status == core.StatusCompleted && ctrl.Dirty() {
				runErr = ctrl.SaveSettings()
			}

			loop.Stop()
		},
	})
	if err != nil {
		return outcome, fmt.Errorf("failed to create controller: %w", err)
	}

	loop.Dispatch(func() {
		h.apply(ctrl)

		startErr := h.start(ctrl)
		if startErr != nil {
			runErr = startErr

			loop.Stop()
		}
	})

	sigCtx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-sigCtx.Done():
			h.rt.log.Info("Interrupt received, stopping speech")
			loop.Dispatch(ctrl.Stop)
		case <-done:
		}
	}()

	loopErr := loop.Run(context.Background())
	if loopErr != nil {
		return outcome, loopErr
	}

	if runErr != nil {
		return outcome, runErr
	}

	if !finished {
		return outcome, errors.New("speech session did not finish")
	}

	if outcome.Status == core.StatusFailed {
		return outcome, fmt.Errorf("%w: %s", errSynthesisFailed, outcome.Detail)
	}

	return outcome, nil
}

// apply pushes flag overrides and the text into the controller.
func (h headlessRun) apply(ctrl *controller.Controller) {
	if h.overrides.key != "" {
		ctrl.OnFieldChanged(core.FieldKey, h.overrides.key)
	}

	if h.overrides.region != "" {
		ctrl.OnFieldChanged(core.FieldRegion, h.overrides.region)
	}

	if h.overrides.voice != "" {
		ctrl.OnFieldChanged(core.FieldVoice, h.overrides.voice)
	}

	ctrl.OnFieldChanged(core.FieldText, h.text)
}

// readText joins args, or reads stdin when there are none or the only
// argument is "-".
func readText(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read text from stdin: %w", err)
	}

	return string(data), nil
}
