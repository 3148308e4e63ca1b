// main package for speech-desk
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	settingsFile string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{settingsFile: ""}

	cmd := &cobra.Command{
		Use:           "speech-desk",
		Short:         "Read text aloud or record it with a cloud speech service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.settingsFile, "settings", "", "Settings file (overrides paths.settings_file)")

	cmd.AddCommand(
		newUICmd(flags),
		newReadCmd(flags),
		newRecordCmd(flags),
		newClipCmd(flags),
		newSettingsCmd(flags),
	)

	return cmd
}

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "speech-desk: %v\n", err)
		os.Exit(1)
	}
}
