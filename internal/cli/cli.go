// Package cli implements the patternmark command-line interface.
package cli

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/patternmark/internal/config"
	"github.com/matzehuels/patternmark/pkg/docstore"
	"github.com/matzehuels/patternmark/pkg/errors"
	"github.com/matzehuels/patternmark/pkg/graph"
	"github.com/matzehuels/patternmark/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "patternmark"

	// defaultDocName is used when neither --doc nor --diagram is given.
	defaultDocName = "default"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath  string
	docName     string
	diagramPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Configuration & Storage
// =============================================================================

func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(c.configPath)
}

// documentName resolves the target document: --doc, then the base name of
// --diagram, then "default".
func (c *CLI) documentName() (string, error) {
	name := c.docName
	if name == "" && c.diagramPath != "" {
		name = docNameFromPath(c.diagramPath)
	}
	if name == "" {
		name = defaultDocName
	}
	if err := docstore.ValidateKey(name); err != nil {
		return "", err
	}
	return name, nil
}

func docNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// remoteBackend reports whether opening the backend involves the network.
func remoteBackend(name string) bool {
	switch name {
	case docstore.BackendPostgres, docstore.BackendRedis, docstore.BackendMongo, docstore.BackendS3:
		return true
	}
	return false
}

func (c *CLI) openDocs(ctx context.Context, cfg config.Config) (docstore.Store, error) {
	if !remoteBackend(cfg.Storage.Backend) {
		return docstore.Open(ctx, cfg.DocStore())
	}
	var docs docstore.Store
	err := withSpinner(ctx, "Connecting to "+cfg.Storage.Backend, func() error {
		var err error
		docs, err = docstore.Open(ctx, cfg.DocStore())
		return err
	})
	return docs, err
}

// workspace is an open session together with the docstore backing it.
type workspace struct {
	cfg  config.Config
	docs docstore.Store
	sess *session.Session
}

func (w *workspace) close() {
	w.sess.Close()
	w.docs.Close()
}

// openWorkspace loads config, opens the backend and the target document.
func (c *CLI) openWorkspace(ctx context.Context) (*workspace, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	name, err := c.documentName()
	if err != nil {
		return nil, err
	}
	docs, err := c.openDocs(ctx, cfg)
	if err != nil {
		return nil, err
	}
	sess, err := session.Open(ctx, docs, name,
		session.WithPreferences(cfg.StorePreferences()),
		session.WithLogger(c.Logger))
	if err != nil {
		docs.Close()
		return nil, err
	}
	if r := sess.Report(); r.Discarded > 0 {
		printWarning("Discarded %d invalid records from %s", r.Discarded, name)
	}
	return &workspace{cfg: cfg, docs: docs, sess: sess}, nil
}

// withSession runs fn against the target document. When save is set the
// document is written back afterwards if fn changed it.
func (c *CLI) withSession(ctx context.Context, save bool, fn func(*session.Session) error) error {
	ws, err := c.openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.close()

	if err := fn(ws.sess); err != nil {
		return err
	}
	if !save {
		return nil
	}
	prog := newProgress(c.Logger)
	var saved bool
	write := func() error {
		var err error
		saved, err = ws.sess.Save(ctx)
		return err
	}
	if remoteBackend(ws.cfg.Storage.Backend) {
		err = withSpinner(ctx, "Saving "+ws.sess.Name(), write)
	} else {
		err = write()
	}
	if err != nil {
		return err
	}
	if saved {
		prog.done("Saved " + ws.sess.Name())
	}
	return nil
}

// =============================================================================
// Diagram
// =============================================================================

// loadDiagram reads --diagram. It returns nil when the flag is unset.
func (c *CLI) loadDiagram() (*graph.Diagram, error) {
	if c.diagramPath == "" {
		return nil, nil
	}
	d, err := graph.ReadDiagramFile(c.diagramPath)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded diagram", "path", c.diagramPath, "nodes", len(d.Nodes), "edges", len(d.Edges))
	return &d, nil
}

func (c *CLI) requireDiagram() (*graph.Diagram, error) {
	d, err := c.loadDiagram()
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "this command needs --diagram")
	}
	return d, nil
}

// checkNodes rejects node ids that are not part of d. A nil d accepts all.
func checkNodes(d *graph.Diagram, ids []string) error {
	if d == nil {
		return nil
	}
	if unknown := d.Unknown(ids); len(unknown) > 0 {
		return errors.New(errors.ErrCodeInvalidSelection, "unknown nodes: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// =============================================================================
// Argument Helpers
// =============================================================================

// parseList splits a comma-separated argument, dropping empty items.
func parseList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
