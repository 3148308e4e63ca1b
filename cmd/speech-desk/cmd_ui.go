package main

import (
	"os"

	"github.com/book-expert/speech-desk/internal/notify"
	"github.com/book-expert/speech-desk/internal/tui"
	"github.com/spf13/cobra"
)

func newUICmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(flags, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			return tui.Run(cmd.Context(), tui.Options{
				Catalog:       rt.catalog,
				Store:         rt.store,
				Provider:      rt.provider,
				Notifier:      notify.NewTerminal(os.Stderr),
				Log:           rt.log,
				RecordingsDir: rt.cfg.Paths.RecordingsDir,
			})
		},
	}
}
