package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/patternmark/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// Global flags:
//   - --config: config file (default $PATTERNMARK_CONFIG or the XDG path)
//   - --doc: document name (default: base name of --diagram, or "default")
//   - --diagram: node-link JSON diagram used to validate and suggest nodes
//
// The CLI logger is attached to the command context before any command
// runs and can be retrieved with loggerFromContext.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Patternmark labels groups of diagram nodes with automation patterns",
		Long:         `Patternmark records annotations that group diagram nodes under a pattern type (CI/CD, data processing, AI agent, RPA) and keeps them in a versioned JSON document.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file path")
	flags.StringVar(&c.docName, "doc", "", "document name")
	flags.StringVar(&c.diagramPath, "diagram", "", "diagram file (node-link JSON)")

	root.AddCommand(c.annotateCommand())
	root.AddCommand(c.prefsCommand())
	root.AddCommand(c.colorsCommand())
	root.AddCommand(c.connectedCommand())
	root.AddCommand(c.selectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.docsCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}
