// Package cli implements the composer command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/diagram-to-compose/composer/internal/catalog"
	"github.com/diagram-to-compose/composer/internal/compiler"
	"github.com/diagram-to-compose/composer/internal/config"
	"github.com/diagram-to-compose/composer/internal/logger"
	"github.com/diagram-to-compose/composer/internal/store"
	"github.com/diagram-to-compose/composer/internal/topology"
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands. Config and logger are resolved
// once per invocation before any subcommand runs.
type CLI struct {
	out    io.Writer
	errOut io.Writer

	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
	log *slog.Logger
}

// New returns a CLI writing results to out and logs to errOut.
func New(out, errOut io.Writer) *CLI {
	return &CLI{out: out, errOut: errOut, log: logger.Default}
}

// Execute runs the composer CLI.
func Execute(ctx context.Context) error {
	return New(os.Stdout, os.Stderr).RootCommand().ExecuteContext(ctx)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "composer",
		Short: "Design container topologies and compile them to docker-compose",
		Long: `composer edits a topology of servers, workstations, networks and disks
and compiles it into a docker-compose manifest plus one Dockerfile per
application service.

Quick start:
  composer edit                     # interactive canvas
  composer compile -o out           # write the stored topology's artifacts
  composer compile diagram.json     # compile a saved snapshot
  composer import diagram.json      # replace the stored topology`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (YAML)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&c.logFormat, "log-format", "", "log format: json, text, pretty")

	root.AddCommand(c.compileCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.lintCommand())
	root.AddCommand(c.resetCommand())
	root.AddCommand(c.catalogCommand())
	root.AddCommand(c.editCommand())

	return root
}

func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if c.logFormat != "" {
		cfg.Log.Format = c.logFormat
	}
	log, err := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: c.errOut})
	if err != nil {
		return err
	}
	c.cfg, c.log = cfg, log
	return nil
}

// =============================================================================
// Shared helpers
// =============================================================================

func (c *CLI) catalog() (*catalog.Catalog, error) {
	if c.cfg.Compose.CatalogFile == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.LoadFile(c.cfg.Compose.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	c.log.Debug("loaded catalog", "file", c.cfg.Compose.CatalogFile, "services", len(cat.Keys()))
	return cat, nil
}

func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	s, err := store.Open(ctx, store.Options{
		Backend:   c.cfg.Store.Backend,
		Key:       c.cfg.Store.Key,
		Path:      c.cfg.Store.Path,
		RedisAddr: c.cfg.Store.RedisAddr,
		RedisDB:   c.cfg.Store.RedisDB,
		Logger:    c.log,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}

func (c *CLI) compilerOptions(terraform bool) compiler.Options {
	opts := compiler.DefaultOptions()
	opts.ComposeVersion = c.cfg.Compose.Version
	opts.Terraform = terraform || c.cfg.Compose.Terraform
	return opts
}

// loadTopology reads a snapshot from path, stdin for "-", or the store when
// path is empty.
func (c *CLI) loadTopology(cmd *cobra.Command, path string) (topology.Topology, error) {
	switch path {
	case "":
		s, err := c.openStore(cmd.Context())
		if err != nil {
			return topology.Topology{}, err
		}
		defer s.Close()
		return store.LoadOrEmpty(cmd.Context(), s, c.log), nil
	case "-":
		return topology.Read(cmd.InOrStdin())
	}
	f, err := os.Open(path)
	if err != nil {
		return topology.Topology{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return topology.Read(f)
}
