package cli

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/patternmark/internal/server"
	"github.com/matzehuels/patternmark/pkg/observability"
	"github.com/matzehuels/patternmark/pkg/observability/prom"
)

// serveCommand starts the HTTP surface for the target document.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		noSaveExit bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the document over HTTP",
		Long: `Serve the target document over a JSON HTTP API.

State changes are streamed on /api/events as server-sent events and
Prometheus metrics are exposed on /metrics. The document is saved on
POST /api/save and, unless --no-save is given, on shutdown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			hooks := prom.New()
			if err := hooks.Register(reg); err != nil {
				return err
			}
			observability.SetStoreHooks(hooks)
			observability.SetDocumentHooks(hooks)
			defer observability.Reset()

			ws, err := c.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.close()

			if addr == "" {
				addr = ws.cfg.Server.Addr
			}
			opts := []server.Option{server.WithLogger(logger), server.WithGatherer(reg)}
			d, err := c.loadDiagram()
			if err != nil {
				return err
			}
			if d != nil {
				opts = append(opts, server.WithDiagram(*d))
			}

			printInfo("Serving %s on %s", StyleHighlight.Render(ws.sess.Name()), StyleValue.Render("http://"+addr))
			runErr := server.New(ws.sess, opts...).Run(ctx, addr)

			if !noSaveExit {
				saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				saved, err := ws.sess.Save(saveCtx)
				if err != nil {
					logger.Error("save on shutdown failed", "err", err)
					if runErr == nil {
						runErr = err
					}
				} else if saved {
					printSuccess("Saved %s", ws.sess.Name())
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr from config)")
	cmd.Flags().BoolVar(&noSaveExit, "no-save", false, "do not save the document on shutdown")

	return cmd
}
