package main

import (
	"time"

	"github.com/book-expert/speech-desk/internal/controller"
	"github.com/book-expert/speech-desk/internal/notify"
	"github.com/spf13/cobra"
)

func newRecordCmd(flags *rootFlags) *cobra.Command {
	fields := &fieldFlags{key: "", region: "", voice: "", save: false}

	var output string

	cmd := &cobra.Command{
		Use:   "record [text...]",
		Short: "Record text to a WAV file",
		Long: "Record text to a WAV file. Without --output the file is named after the current time " +
			"and placed in the recordings directory. Without arguments the text is read from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			rt, err := newRuntime(flags, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			path := rt.recordingPath(output, time.Now())

			_, err = headlessRun{
				rt:        rt,
				out:       cmd.OutOrStdout(),
				notifier:  notify.NewTerminal(cmd.ErrOrStderr()),
				overrides: *fields,
				text:      text,
				start: func(ctrl *controller.Controller) error {
					return ctrl.StartRecording(path)
				},
			}.run(cmd.Context())

			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output WAV file")
	addFieldFlags(cmd, fields)

	return cmd
}
