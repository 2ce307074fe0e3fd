package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSettingsCmd(o *options) *cobra.Command {
	var (
		highlighting bool
		definitions  bool
		notes        bool
		color        string
	)
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show the settings, or change them with flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := o.client()
			settings, err := client.Settings(cmd.Context())
			if err != nil {
				return fmt.Errorf("get settings: %w", err)
			}

			flags := cmd.Flags()
			changed := false
			if flags.Changed("highlighting") {
				settings.HighlightingEnabled, changed = highlighting, true
			}
			if flags.Changed("definitions") {
				settings.DefinitionsEnabled, changed = definitions, true
			}
			if flags.Changed("notes") {
				settings.NotesEnabled, changed = notes, true
			}
			if flags.Changed("color") {
				settings.HighlightColor, changed = color, true
			}

			if changed {
				if err := client.SaveSettings(cmd.Context(), settings); err != nil {
					return fmt.Errorf("save settings: %w", err)
				}
			}
			return printYAML(cmd.OutOrStdout(), newSettingsView(settings))
		},
	}
	cmd.Flags().BoolVar(&highlighting, "highlighting", true, "enable selection highlighting")
	cmd.Flags().BoolVar(&definitions, "definitions", true, "enable definition lookups")
	cmd.Flags().BoolVar(&notes, "notes", true, "enable the notes panel")
	cmd.Flags().StringVar(&color, "color", "", "highlight color, #rrggbb")
	return cmd
}
