package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/book-expert/speech-desk/internal/cliptext"
	"github.com/book-expert/speech-desk/internal/controller"
	"github.com/book-expert/speech-desk/internal/core"
	"github.com/book-expert/speech-desk/internal/notify"
	"github.com/spf13/cobra"
)

var errClipboardEmpty = errors.New("clipboard is empty")

// clipboardReader is swapped in tests.
var clipboardReader = clipboard.ReadAll

func newClipCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clip",
		Short: "Speak or record the clipboard with the saved settings",
		Long: "Speak the clipboard text with the saved settings. When OUT_FILE is a path the audio is " +
			"recorded there; when it is true a timestamped file is created in the recordings directory. " +
			"READ_FILE opens the recording afterwards.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			notifier := notify.NewTerminal(cmd.ErrOrStderr())

			err := runClip(cmd, flags, notifier)
			if err != nil && !errors.Is(err, errSynthesisFailed) {
				// Failed sessions already rang through the controller.
				notifier.Alert()
			}

			return err
		},
	}
}

func runClip(cmd *cobra.Command, flags *rootFlags, notifier core.Notifier) error {
	raw, err := clipboardReader()
	if err != nil {
		return fmt.Errorf("failed to read clipboard: %w", err)
	}

	text := cliptext.NewCleaner().Clean(raw)
	if text == "" {
		return errClipboardEmpty
	}

	rt, err := newRuntime(flags, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	doc, loadErr := rt.store.Load()
	if loadErr != nil {
		rt.log.Warn("Settings not loaded: %v", loadErr)
	}

	start := (*controller.Controller).StartReading

	path, auto := doc.OutputFile()
	if path != "" || auto {
		target := rt.recordingPath(path, time.Now())
		start = func(ctrl *controller.Controller) error {
			return ctrl.StartRecording(target)
		}
	}

	_, err = headlessRun{
		rt:        rt,
		out:       cmd.OutOrStdout(),
		notifier:  notifier,
		overrides: fieldFlags{key: "", region: "", voice: "", save: false},
		text:      text,
		start:     start,
	}.run(cmd.Context())

	return err
}
