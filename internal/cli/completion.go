package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/patternmark/pkg/annotation"
	"github.com/matzehuels/patternmark/pkg/docstore"
	"github.com/matzehuels/patternmark/pkg/session"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for patternmark.

To load completions:

Bash:
  $ source <(patternmark completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ patternmark completion bash > /etc/bash_completion.d/patternmark
  # macOS:
  $ patternmark completion bash > $(brew --prefix)/etc/bash_completion.d/patternmark

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ patternmark completion zsh > "${fpath[1]}/_patternmark"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ patternmark completion fish | source

  # To load completions for each session, execute once:
  $ patternmark completion fish > ~/.config/fish/completions/patternmark.fish

PowerShell:
  PS> patternmark completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> patternmark completion powershell > patternmark.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}

	return cmd
}

// =============================================================================
// Dynamic Completions
// =============================================================================

// Completion runs before any output is expected, so these helpers open
// storage directly and never print.

// completeAnnotationIDs completes the first argument with the annotation ids
// of the target document, described by their display label.
func (c *CLI) completeAnnotationIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	err := c.quietDocs(completionContext(cmd), func(ctx context.Context, docs docstore.Store) error {
		name, err := c.documentName()
		if err != nil {
			return err
		}
		sess, err := session.Open(ctx, docs, name)
		if err != nil {
			return err
		}
		defer sess.Close()
		for _, a := range sess.Store.GetAllAnnotations() {
			if strings.HasPrefix(a.ID, toComplete) {
				out = append(out, a.ID+"\t"+a.DisplayLabel())
			}
		}
		return nil
	})
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeDocNames completes the first argument with stored document names.
func (c *CLI) completeDocNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	err := c.quietDocs(completionContext(cmd), func(ctx context.Context, docs docstore.Store) error {
		names, err := docs.List(ctx)
		if err != nil {
			return err
		}
		for _, n := range names {
			if strings.HasPrefix(n, toComplete) {
				out = append(out, n)
			}
		}
		return nil
	})
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completePatternTypes completes canonical pattern type names.
func completePatternTypes(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, t := range annotation.PatternTypes() {
		if strings.HasPrefix(strings.ToUpper(string(t)), strings.ToUpper(toComplete)) {
			out = append(out, string(t))
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeTypeSubtype completes <type> <subtype> from the default color
// scheme.
func completeTypeSubtype(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return completePatternTypes(cmd, args, toComplete)
	case 1:
		t, err := annotation.ParsePatternType(args[0])
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		var out []string
		for _, sub := range annotation.DefaultColorScheme().Subtypes(t) {
			if strings.HasPrefix(sub, toComplete) {
				out = append(out, sub)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func (c *CLI) quietDocs(ctx context.Context, fn func(context.Context, docstore.Store) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	docs, err := docstore.Open(ctx, cfg.DocStore())
	if err != nil {
		return err
	}
	defer docs.Close()
	return fn(ctx, docs)
}

func completionContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
