package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-desk/internal/catalog"
	"github.com/book-expert/speech-desk/internal/controller"
	"github.com/book-expert/speech-desk/internal/core"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// ErrMissingCatalog indicates Run was called without a catalog.
var ErrMissingCatalog = errors.New("tui requires a catalog")

// Options wires the interactive window.
type Options struct {
	Catalog       *catalog.Catalog
	Store         controller.SettingsStore
	Provider      core.Provider
	Notifier      core.Notifier
	Log           *logger.Logger
	RecordingsDir string
}

// Dispatcher runs functions on the tview event goroutine.
type Dispatcher struct {
	app *tview.Application
}

// Dispatch queues fn and redraws once it has run.
func (d Dispatcher) Dispatch(fn func()) {
	d.app.QueueUpdateDraw(fn)
}

// Run shows the window until the user presses Ctrl-Q or ctx is canceled.
// Canceling also stops any session still in flight.
func Run(ctx context.Context, opts Options) error {
	if opts.Catalog == nil {
		return ErrMissingCatalog
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app := tview.NewApplication()
	window := NewWindow(opts.Catalog, opts.RecordingsDir)

	ctrl, err := controller.New(controller.Options{
		View:          window,
		Store:         opts.Store,
		Provider:      opts.Provider,
		Dispatcher:    Dispatcher{app: app},
		Log:           opts.Log,
		Notifier:      opts.Notifier,
		Context:       ctx,
		AfterTerminal: nil,
	})
	if err != nil {
		return fmt.Errorf("failed to create controller: %w", err)
	}

	window.Bind(ctrl)

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlQ {
			app.Stop()

			return nil
		}

		return event
	})

	go func() {
		<-ctx.Done()
		app.Stop()
	}()

	opts.Log.Info("Interactive window started")

	runErr := app.SetRoot(window.Root(), true).EnableMouse(true).Run()
	if runErr != nil {
		return fmt.Errorf("interactive window failed: %w", runErr)
	}

	return nil
}
