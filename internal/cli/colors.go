package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/patternmark/pkg/annotation"
	"github.com/matzehuels/patternmark/pkg/errors"
	"github.com/matzehuels/patternmark/pkg/session"
	"github.com/matzehuels/patternmark/pkg/store"
)

// colorsCommand prints the effective color scheme and manages overrides.
func (c *CLI) colorsCommand() *cobra.Command {
	var pattern string

	cmd := &cobra.Command{
		Use:   "colors",
		Short: "Show the pattern color scheme",
		RunE: func(cmd *cobra.Command, args []string) error {
			types := annotation.PatternTypes()
			if pattern != "" {
				t, err := annotation.ParsePatternType(pattern)
				if err != nil {
					return err
				}
				types = []annotation.PatternType{t}
			}
			return c.withSession(cmd.Context(), false, func(sess *session.Session) error {
				printRaw(colorTable(sess.Store, types))
				printDetail("unknown subtypes use %s", annotation.FallbackColor)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&pattern, "type", "t", "", "only this pattern type")
	_ = cmd.RegisterFlagCompletionFunc("type", completePatternTypes)
	cmd.AddCommand(c.colorsSetCommand())

	return cmd
}

func colorTable(st *store.Store, types []annotation.PatternType) string {
	scheme := st.Preferences().ColorScheme
	var rows [][]string
	for _, t := range types {
		for _, subtype := range scheme.Subtypes(t) {
			rows = append(rows, []string{t.String(), subtype, swatch(st.GetColorForPattern(t, subtype))})
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers("Type", "Subtype", "Color").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Render()
}

func (c *CLI) colorsSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "set <type> <subtype> <color>",
		Short:             "Override a color in the document's scheme",
		Example:           "  patternmark colors set CICD testing '#0ea5e9'",
		Args:              cobra.ExactArgs(3),
		ValidArgsFunction: completeTypeSubtype,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := annotation.ParsePatternType(args[0])
			if err != nil {
				return err
			}
			subtype, color := args[1], args[2]
			if err := errors.ValidateColor(color); err != nil {
				return err
			}
			return c.withSession(cmd.Context(), true, func(sess *session.Session) error {
				scheme := sess.Store.Preferences().ColorScheme.Merge(annotation.ColorScheme{
					t: {subtype: color},
				})
				sess.Store.UpdatePreferences(store.PreferencesUpdate{ColorScheme: scheme})
				printSuccess("%s/%s is now %s", t, subtype, swatch(sess.Store.GetColorForPattern(t, subtype)))
				printDetail("existing annotations keep their color; use annotate update --color to change them")
				return nil
			})
		},
	}
}
