package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/patternmark/pkg/docstore"
	"github.com/matzehuels/patternmark/pkg/errors"
)

// docsCommand creates the document storage command.
func (c *CLI) docsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Manage stored annotation documents",
	}

	cmd.AddCommand(c.docsListCommand())
	cmd.AddCommand(c.docsPathCommand())
	cmd.AddCommand(c.docsDeleteCommand())

	return cmd
}

// docsListCommand creates the "docs list" subcommand.
func (c *CLI) docsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			docs, err := c.openDocs(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer docs.Close()

			names, err := docs.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				printInfo("No documents in %s storage", cfg.Storage.Backend)
				return nil
			}
			stamps, _ := docs.(docstore.Timestamped)
			for _, name := range names {
				printRaw(docLine(cmd.Context(), stamps, name))
			}
			return nil
		},
	}
}

// docLine renders one "docs list" row: the name, followed by the last write
// time when the backend records one.
func docLine(ctx context.Context, stamps docstore.Timestamped, name string) string {
	if stamps == nil {
		return name
	}
	ts, ok, err := stamps.UpdatedAt(ctx, name)
	if err != nil || !ok {
		return name
	}
	return name + "  " + StyleDim.Render(ts.Local().Format("2006-01-02 15:04:05"))
}

// docsPathCommand creates the "docs path" subcommand.
func (c *CLI) docsPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the target document is stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			name, err := c.documentName()
			if err != nil {
				return err
			}
			printRaw(documentLocation(cfg.DocStore(), name))
			return nil
		},
	}
}

// documentLocation describes where name lives on the configured backend.
func documentLocation(cfg docstore.Config, name string) string {
	switch cfg.Backend {
	case "", docstore.BackendFile:
		dir := cfg.Dir
		if dir == "" {
			var err error
			if dir, err = docstore.DefaultDir(); err != nil {
				return name
			}
		}
		return filepath.Join(dir, name+".json")
	case docstore.BackendMemory:
		return "memory:" + name
	case docstore.BackendSQLite:
		return fmt.Sprintf("sqlite:%s#%s", cfg.DSN, name)
	case docstore.BackendPostgres:
		return "postgres:documents/" + name
	case docstore.BackendRedis:
		return fmt.Sprintf("redis://%s/%d/%s%s", cfg.RedisAddr, cfg.RedisDB, cfg.Prefix, name)
	case docstore.BackendMongo:
		return fmt.Sprintf("mongo:%s.%s/%s", cfg.MongoDatabase, mongoCollection(cfg), name)
	case docstore.BackendS3:
		return fmt.Sprintf("s3://%s/%s%s.json", cfg.S3.Bucket, cfg.Prefix, name)
	}
	return name
}

func mongoCollection(cfg docstore.Config) string {
	if cfg.MongoCollection != "" {
		return cfg.MongoCollection
	}
	return "documents"
}

// docsDeleteCommand creates the "docs delete" subcommand.
func (c *CLI) docsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "delete <name>",
		Aliases:           []string{"rm"},
		Short:             "Delete a stored document",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeDocNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := docstore.ValidateKey(name); err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			docs, err := c.openDocs(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer docs.Close()

			_, ok, err := docs.Get(cmd.Context(), name)
			if err != nil {
				return err
			}
			if !ok {
				return errors.New(errors.ErrCodeNotFound, "document %s not found", name)
			}
			if err := docs.Delete(cmd.Context(), name); err != nil {
				return err
			}
			printSuccess("Deleted document %s", name)
			return nil
		},
	}
}
