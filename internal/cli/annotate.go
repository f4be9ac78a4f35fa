package cli

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/patternmark/pkg/annotation"
	"github.com/matzehuels/patternmark/pkg/errors"
	"github.com/matzehuels/patternmark/pkg/session"
	"github.com/matzehuels/patternmark/pkg/store"
)

// annotateCommand creates the annotate command group.
func (c *CLI) annotateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "annotate",
		Aliases: []string{"ann"},
		Short:   "Create and manage annotations",
	}

	cmd.AddCommand(c.annotateCreateCommand())
	cmd.AddCommand(c.annotateListCommand())
	cmd.AddCommand(c.annotateShowCommand())
	cmd.AddCommand(c.annotateUpdateCommand())
	cmd.AddCommand(c.annotateDeleteCommand())
	cmd.AddCommand(c.annotateNodesCommand("add-nodes", "Add nodes to an annotation", true))
	cmd.AddCommand(c.annotateNodesCommand("remove-nodes", "Remove nodes from an annotation", false))
	cmd.AddCommand(c.annotateClearCommand())
	cmd.AddCommand(c.annotateExportCommand())
	cmd.AddCommand(c.annotateImportCommand())

	return cmd
}

// =============================================================================
// create
// =============================================================================

type createOptions struct {
	nodes   []string
	pattern string
	subtype string
	label   string
}

func (c *CLI) annotateCreateCommand() *cobra.Command {
	var opts createOptions

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Group nodes under a pattern type",
		Example: `  patternmark annotate create --nodes build,test --type CICD --subtype testing
  patternmark annotate create --diagram flow.json --nodes fetch,parse --type data-processing --label "Ingest"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := annotation.ParsePatternType(opts.pattern)
			if err != nil {
				return err
			}
			d, err := c.loadDiagram()
			if err != nil {
				return err
			}
			if err := checkNodes(d, opts.nodes); err != nil {
				return err
			}
			return c.withSession(cmd.Context(), true, func(sess *session.Session) error {
				id, err := createFromSelection(sess.Store, opts.nodes, t, opts.subtype, opts.label)
				if err != nil {
					return err
				}
				a, _ := sess.Store.GetAnnotation(id)
				loggerFromContext(cmd.Context()).Debug("created annotation", annotationFields(a)...)
				printSuccess("Created %s", StyleHighlight.Render(id))
				printDetail("%s · %d nodes · %s", a.DisplayLabel(), len(a.NodeIDs), a.Color)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&opts.nodes, "nodes", nil, "node ids to group (comma-separated)")
	cmd.Flags().StringVarP(&opts.pattern, "type", "t", "", "pattern type: "+patternTypeList())
	_ = cmd.RegisterFlagCompletionFunc("type", completePatternTypes)
	cmd.Flags().StringVarP(&opts.subtype, "subtype", "s", "", "pattern subtype (e.g. testing)")
	cmd.Flags().StringVarP(&opts.label, "label", "l", "", "display label")
	_ = cmd.MarkFlagRequired("nodes")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("subtype")

	return cmd
}

// createFromSelection drives the selection state machine: enter selection
// mode, select the nodes, check the creation gate, then commit.
func createFromSelection(st *store.Store, nodes []string, t annotation.PatternType, subtype, label string) (string, error) {
	if st.AreNodesAnnotated(nodes) {
		printWarning("Some nodes already belong to another annotation")
	}
	st.SetSelectionMode(true)
	st.SelectNodes(nodes)
	st.SetPendingAnnotation(&store.PendingAnnotation{
		NodeIDs:        nodes,
		PatternType:    t,
		PatternSubtype: subtype,
		Label:          label,
	})
	if !st.CanCreateAnnotation() {
		st.SetSelectionMode(false)
		return "", errors.New(errors.ErrCodeEmptySelection, "no nodes selected")
	}
	return st.CreateAnnotation(st.Selection().SelectedNodeIDs, t, subtype, label)
}

func patternTypeList() string {
	names := make([]string, 0, len(annotation.PatternTypes()))
	for _, t := range annotation.PatternTypes() {
		names = append(names, t.String())
	}
	return strings.Join(names, ", ")
}

// =============================================================================
// list / show
// =============================================================================

func (c *CLI) annotateListCommand() *cobra.Command {
	var (
		node   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List annotations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), false, func(sess *session.Session) error {
				list := sess.Store.GetAllAnnotations()
				if node != "" {
					list = sess.Store.GetAnnotationsForNode(node)
				}
				if asJSON {
					return writeJSON(list)
				}
				if len(list) == 0 {
					printInfo("No annotations in %s", sess.Name())
					return nil
				}
				printRaw(annotationTable(list))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&node, "node", "", "only annotations containing this node")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

func annotationTable(list []annotation.Annotation) string {
	rows := make([][]string, 0, len(list))
	for _, a := range list {
		rows = append(rows, []string{
			a.ID,
			a.PatternType.String(),
			a.PatternSubtype,
			strings.Join(a.NodeIDs, ", "),
			a.Label,
			swatch(a.Color),
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers("ID", "Type", "Subtype", "Nodes", "Label", "Color").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if col == 0 {
				return StyleHighlight
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

func (c *CLI) annotateShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:               "show <id>",
		Short:             "Show one annotation",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeAnnotationIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), false, func(sess *session.Session) error {
				a, ok := sess.Store.GetAnnotation(args[0])
				if !ok {
					return unknownAnnotation(args[0])
				}
				if asJSON {
					return writeJSON(a)
				}
				printAnnotation(a)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

// =============================================================================
// update / delete / nodes
// =============================================================================

func (c *CLI) annotateUpdateCommand() *cobra.Command {
	var (
		nodes   []string
		pattern string
		subtype string
		color   string
		label   string
	)

	cmd := &cobra.Command{
		Use:               "update <id>",
		Short:             "Change fields of an annotation",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeAnnotationIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var u annotation.Update
			flags := cmd.Flags()
			if flags.Changed("nodes") {
				d, err := c.loadDiagram()
				if err != nil {
					return err
				}
				if err := checkNodes(d, nodes); err != nil {
					return err
				}
				u.NodeIDs = &nodes
			}
			if flags.Changed("type") {
				t, err := annotation.ParsePatternType(pattern)
				if err != nil {
					return err
				}
				u.PatternType = &t
			}
			if flags.Changed("subtype") {
				u.PatternSubtype = &subtype
			}
			if flags.Changed("color") {
				if err := errors.ValidateColor(color); err != nil {
					return err
				}
				u.Color = &color
			}
			if flags.Changed("label") {
				u.Label = &label
			}
			if u.IsEmpty() {
				return errors.New(errors.ErrCodeInvalidInput, "nothing to update; pass at least one of --nodes, --type, --subtype, --color, --label")
			}
			if err := u.Validate(); err != nil {
				return err
			}

			return c.withSession(cmd.Context(), true, func(sess *session.Session) error {
				if !sess.Store.UpdateAnnotation(args[0], u) {
					return unknownAnnotation(args[0])
				}
				if _, ok := sess.Store.GetAnnotation(args[0]); !ok {
					printSuccess("Deleted %s (no nodes left)", args[0])
					return nil
				}
				printSuccess("Updated %s", StyleHighlight.Render(args[0]))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&nodes, "nodes", nil, "replace node ids")
	cmd.Flags().StringVarP(&pattern, "type", "t", "", "pattern type")
	_ = cmd.RegisterFlagCompletionFunc("type", completePatternTypes)
	cmd.Flags().StringVarP(&subtype, "subtype", "s", "", "pattern subtype")
	cmd.Flags().StringVar(&color, "color", "", "hex color override")
	cmd.Flags().StringVarP(&label, "label", "l", "", "display label")

	return cmd
}

func (c *CLI) annotateDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "delete <id>",
		Aliases:           []string{"rm"},
		Short:             "Delete an annotation",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeAnnotationIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), true, func(sess *session.Session) error {
				a, ok := sess.Store.GetAnnotation(args[0])
				if !ok || !sess.Store.DeleteAnnotation(args[0]) {
					return unknownAnnotation(args[0])
				}
				loggerFromContext(cmd.Context()).Debug("deleted annotation", annotationFields(a)...)
				printSuccess("Deleted %s", args[0])
				return nil
			})
		},
	}
}

func (c *CLI) annotateNodesCommand(use, short string, add bool) *cobra.Command {
	return &cobra.Command{
		Use:               use + " <id> <node,...>",
		Short:             short,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: c.completeAnnotationIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, nodes := args[0], parseList(args[1])
			if len(nodes) == 0 {
				return errors.New(errors.ErrCodeEmptySelection, "no nodes given")
			}
			if add {
				d, err := c.loadDiagram()
				if err != nil {
					return err
				}
				if err := checkNodes(d, nodes); err != nil {
					return err
				}
			}
			return c.withSession(cmd.Context(), true, func(sess *session.Session) error {
				var ok bool
				if add {
					ok = sess.Store.AddNodesToAnnotation(id, nodes)
				} else {
					ok = sess.Store.RemoveNodesFromAnnotation(id, nodes)
				}
				if !ok {
					return unknownAnnotation(id)
				}
				a, exists := sess.Store.GetAnnotation(id)
				if !exists {
					printSuccess("Deleted %s (no nodes left)", id)
					return nil
				}
				printSuccess("%s now groups %d nodes", StyleHighlight.Render(id), len(a.NodeIDs))
				printDetail("%s", strings.Join(a.NodeIDs, ", "))
				return nil
			})
		},
	}
}

func (c *CLI) annotateClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every annotation in the document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), true, func(sess *session.Session) error {
				n := len(sess.Store.GetAllAnnotations())
				sess.Store.ClearAllAnnotations()
				printSuccess("Cleared %d annotations from %s", n, sess.Name())
				return nil
			})
		},
	}
}

// =============================================================================
// export / import
// =============================================================================

func (c *CLI) annotateExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the document as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), false, func(sess *session.Session) error {
				data, err := sess.Store.ExportAnnotations()
				if err != nil {
					return err
				}
				if output == "" {
					printRaw(string(data))
					return nil
				}
				if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
					return errors.Wrap(errors.ErrCodeStorage, err, "write %s", output)
				}
				printSuccess("Exported %d annotations", len(sess.Store.GetAllAnnotations()))
				printFile(output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return cmd
}

func (c *CLI) annotateImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the document with an exported JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(errors.ErrCodeNotFound, err, "read %s", args[0])
			}
			return c.withSession(cmd.Context(), true, func(sess *session.Session) error {
				report, err := sess.Store.LoadAnnotations(data)
				if err != nil {
					return err
				}
				printSuccess("Imported %d annotations into %s", report.Loaded, sess.Name())
				if report.Discarded > 0 {
					printWarning("Discarded %d invalid records", report.Discarded)
				}
				if report.Version != "" && report.Version != store.FormatVersion {
					printDetail("document version %s (current %s)", report.Version, store.FormatVersion)
				}
				return nil
			})
		},
	}
}

// =============================================================================
// Helpers
// =============================================================================

func unknownAnnotation(id string) error {
	return errors.New(errors.ErrCodeUnknownAnnotation, "annotation %s not found", id)
}

func writeJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode output")
	}
	return nil
}
