package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/book-expert/speech-desk/internal/catalog"
	"github.com/book-expert/speech-desk/internal/controller"
	"github.com/book-expert/speech-desk/internal/core"
	"github.com/book-expert/speech-desk/internal/settings"
	"github.com/spf13/cobra"
)

var (
	errUnknownRegion = errors.New("unknown region")
	errUnknownVoice  = errors.New("unknown voice")
	errNothingToSet  = errors.New("nothing to set, pass --key, --region or --voice")
)

func newSettingsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the saved settings",
	}
	cmd.AddCommand(
		newSettingsShowCmd(flags),
		newSettingsSetCmd(flags),
		newSettingsRegionsCmd(flags),
		newSettingsVoicesCmd(flags),
	)

	return cmd
}

func newSettingsShowCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the saved settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(flags, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			doc, loadErr := rt.store.Load()
			if loadErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", loadErr)
			}

			return printSettings(cmd.OutOrStdout(), rt.store.Path(), doc, rt.catalog)
		},
	}
}

func newSettingsSetCmd(flags *rootFlags) *cobra.Command {
	fields := &fieldFlags{key: "", region: "", voice: "", save: true}

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change and save key, region or voice",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if fields.key == "" && fields.region == "" && fields.voice == "" {
				return errNothingToSet
			}

			rt, err := newRuntime(flags, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			err = checkCatalog(rt.catalog, *fields)
			if err != nil {
				return err
			}

			return saveSettings(rt, newConsoleView(cmd.OutOrStdout()), *fields)
		},
	}
	cmd.Flags().StringVar(&fields.key, "key", "", "Subscription key")
	cmd.Flags().StringVarP(&fields.region, "region", "r", "", "Region code")
	cmd.Flags().StringVarP(&fields.voice, "voice", "v", "", "Voice code")

	return cmd
}

func newSettingsRegionsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List the selectable regions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(flags, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			for _, region := range rt.catalog.Regions() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", region.Code, region.Name)
			}

			return nil
		},
	}
}

func newSettingsVoicesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "voices",
		Short: "List the selectable voices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(flags, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			for _, voice := range rt.catalog.Voices() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-28s %s\n", voice.Code, voice.DisplayName())
			}

			return nil
		},
	}
}

func checkCatalog(cat *catalog.Catalog, fields fieldFlags) error {
	if fields.region != "" {
		_, ok := cat.Region(fields.region)
		if !ok {
			return fmt.Errorf("%w: %s", errUnknownRegion, fields.region)
		}
	}

	if fields.voice != "" {
		_, ok := cat.Voice(fields.voice)
		if !ok {
			return fmt.Errorf("%w: %s", errUnknownVoice, fields.voice)
		}
	}

	return nil
}

// saveSettings applies the changes through a controller so the same
// validation and persistence path as the interactive window is used. It
// runs on the calling goroutine, which acts as the foreground thread.
func saveSettings(rt *deskRuntime, view core.View, fields fieldFlags) error {
	ctrl, err := controller.New(controller.Options{
		View:          view,
		Store:         rt.store,
		Provider:      noProvider{},
		Dispatcher:    inlineDispatcher{},
		Log:           rt.log,
		Notifier:      nil,
		Context:       nil,
		AfterTerminal: nil,
	})
	if err != nil {
		return err
	}

	headlessRun{overrides: fields}.apply(ctrl)

	return ctrl.SaveSettings()
}

func printSettings(out io.Writer, path string, doc settings.Document, cat *catalog.Catalog) error {
	fmt.Fprintf(out, "Settings file: %s\n", path)
	fmt.Fprintf(out, "Key:    %s\n", maskKey(doc.String(settings.KeySpeechKey, "")))

	regionCode := doc.String(settings.KeySpeechRegion, "")
	region, _ := cat.Region(regionCode)
	fmt.Fprintf(out, "Region: %s %s\n", regionCode, region.Name)

	voiceCode := doc.String(settings.KeySpeechVoice, "")
	voice, _ := cat.Voice(voiceCode)
	fmt.Fprintf(out, "Voice:  %s %s\n", voiceCode, voice.DisplayName())

	outFile, auto := doc.OutputFile()

	switch {
	case outFile != "":
		fmt.Fprintf(out, "Clip output: %s\n", outFile)
	case auto:
		fmt.Fprintln(out, "Clip output: timestamped file")
	default:
		fmt.Fprintln(out, "Clip output: speaker")
	}

	fmt.Fprintf(out, "Open recordings: %t\n", doc.ReadFileAfter())

	return nil
}

func maskKey(key string) string {
	const visible = 4

	if len(key) <= visible {
		return strings.Repeat("*", len(key))
	}

	return strings.Repeat("*", len(key)-visible) + key[len(key)-visible:]
}
