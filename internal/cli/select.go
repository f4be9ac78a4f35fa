package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/patternmark/pkg/annotation"
	"github.com/matzehuels/patternmark/pkg/errors"
	"github.com/matzehuels/patternmark/pkg/session"
)

// selectCommand runs the interactive node picker.
func (c *CLI) selectCommand() *cobra.Command {
	var pattern, subtype, label string

	cmd := &cobra.Command{
		Use:     "select",
		Short:   "Pick nodes interactively and create an annotation",
		Example: "  patternmark select --diagram flow.json --type rpa --subtype trigger",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := annotation.ParsePatternType(pattern)
			if err != nil {
				return err
			}
			d, err := c.requireDiagram()
			if err != nil {
				return err
			}
			if len(d.Nodes) == 0 {
				return errors.New(errors.ErrCodeInvalidDiagram, "diagram has no nodes")
			}

			return c.withSession(cmd.Context(), true, func(sess *session.Session) error {
				model := NewNodePickerModel(*d, sess.Store, t, subtype, label)
				final, err := tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
				if err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "node picker")
				}
				m := final.(NodePickerModel)
				if m.Created == "" {
					printInfo("No annotation created")
					return nil
				}
				a, _ := sess.Store.GetAnnotation(m.Created)
				printSuccess("Created %s", StyleHighlight.Render(m.Created))
				printDetail("%s · %d nodes · %s", a.DisplayLabel(), len(a.NodeIDs), a.Color)
				printNextStep("Review with", "patternmark annotate show "+m.Created)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&pattern, "type", "t", "", "pattern type: "+patternTypeList())
	_ = cmd.RegisterFlagCompletionFunc("type", completePatternTypes)
	cmd.Flags().StringVarP(&subtype, "subtype", "s", "", "pattern subtype")
	cmd.Flags().StringVarP(&label, "label", "l", "", "display label")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("subtype")

	return cmd
}
