package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/patternmark/pkg/errors"
)

// connectedCommand lists nodes adjacent to a selection, the candidates for
// extending an annotation.
func (c *CLI) connectedCommand() *cobra.Command {
	var (
		nodes  []string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:     "connected",
		Short:   "List diagram nodes adjacent to the given nodes",
		Example: "  patternmark connected --diagram flow.json --nodes build,test",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.requireDiagram()
			if err != nil {
				return err
			}
			if len(nodes) == 0 {
				return errors.New(errors.ErrCodeEmptySelection, "no nodes given")
			}
			if err := checkNodes(d, nodes); err != nil {
				return err
			}

			connected := d.Connected(nodes)
			if asJSON {
				return writeJSON(connected)
			}
			if len(connected) == 0 {
				printInfo("No connected nodes")
				return nil
			}
			printInfo("%d connected nodes", len(connected))
			for _, id := range connected {
				n, _ := d.Node(id)
				if label := n.DisplayLabel(); label != id {
					printDetail("%s  %s", id, label)
				} else {
					printDetail("%s", id)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&nodes, "nodes", nil, "selected node ids (comma-separated)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}
