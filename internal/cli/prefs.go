package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/patternmark/pkg/session"
	"github.com/matzehuels/patternmark/pkg/store"
)

// prefsCommand creates the preferences command group.
func (c *CLI) prefsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change display preferences",
	}

	cmd.AddCommand(c.prefsShowCommand())
	cmd.AddCommand(c.prefsSetCommand())

	return cmd
}

func (c *CLI) prefsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the document preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), false, func(sess *session.Session) error {
				printPreferences(sess.Store.Preferences())
				return nil
			})
		},
	}
}

func (c *CLI) prefsSetCommand() *cobra.Command {
	var showLabels, animation bool

	cmd := &cobra.Command{
		Use:     "set",
		Short:   "Change display preferences",
		Example: "  patternmark prefs set --show-labels=false",
		RunE: func(cmd *cobra.Command, args []string) error {
			var u store.PreferencesUpdate
			if cmd.Flags().Changed("show-labels") {
				u.ShowLabels = &showLabels
			}
			if cmd.Flags().Changed("animation") {
				u.AnimationEnabled = &animation
			}
			if u.ShowLabels == nil && u.AnimationEnabled == nil {
				printInfo("Nothing to change; pass --show-labels or --animation")
				return nil
			}
			return c.withSession(cmd.Context(), true, func(sess *session.Session) error {
				sess.Store.UpdatePreferences(u)
				printSuccess("Updated preferences of %s", sess.Name())
				printPreferences(sess.Store.Preferences())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showLabels, "show-labels", true, "show annotation labels")
	cmd.Flags().BoolVar(&animation, "animation", true, "enable highlight animation")

	return cmd
}

func printPreferences(p store.Preferences) {
	printKeyValue("Labels", strconv.FormatBool(p.ShowLabels))
	printKeyValue("Animation", strconv.FormatBool(p.AnimationEnabled))
	printKeyValue("Colors", strconv.Itoa(countColors(p))+" subtypes")
}

func countColors(p store.Preferences) int {
	n := 0
	for _, subtypes := range p.ColorScheme {
		n += len(subtypes)
	}
	return n
}
