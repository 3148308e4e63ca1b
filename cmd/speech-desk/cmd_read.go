package main

import (
	"github.com/book-expert/speech-desk/internal/controller"
	"github.com/book-expert/speech-desk/internal/notify"
	"github.com/spf13/cobra"
)

func addFieldFlags(cmd *cobra.Command, fields *fieldFlags) {
	cmd.Flags().StringVar(&fields.key, "key", "", "Subscription key (overrides the saved key)")
	cmd.Flags().StringVarP(&fields.region, "region", "r", "", "Region code (overrides the saved region)")
	cmd.Flags().StringVarP(&fields.voice, "voice", "v", "", "Voice code (overrides the saved voice)")
	cmd.Flags().BoolVar(&fields.save, "save", false, "Save the overrides once synthesis succeeds")
}

func newReadCmd(flags *rootFlags) *cobra.Command {
	fields := &fieldFlags{key: "", region: "", voice: "", save: false}

	cmd := &cobra.Command{
		Use:   "read [text...]",
		Short: "Read text aloud on the default speaker",
		Long:  "Read text aloud on the default speaker. Without arguments, or with \"-\", the text is read from stdin.",
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

			_, err = headlessRun{
				rt:        rt,
				out:       cmd.OutOrStdout(),
				notifier:  notify.NewTerminal(cmd.ErrOrStderr()),
				overrides: *fields,
				text:      text,
				start:     (*controller.Controller).StartReading,
			}.run(cmd.Context())

			return err
		},
	}
	addFieldFlags(cmd, fields)

	return cmd
}
