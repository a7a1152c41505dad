package cli

import (
	"github.com/spf13/cobra"

	"github.com/diagram-to-compose/composer/internal/compiler"
	"github.com/diagram-to-compose/composer/internal/editor"
	"github.com/diagram-to-compose/composer/internal/store"
	"github.com/diagram-to-compose/composer/internal/topology"
	"github.com/diagram-to-compose/composer/internal/tui"
)

func (c *CLI) editCommand() *cobra.Command {
	var exportDir string
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit the stored topology on an interactive canvas",
		Long: `Open the terminal canvas. Click empty space to add a node, press l to
switch to link mode, drag nodes to move them and right-click for edit and
delete actions. Every change is saved to the configured store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cat, err := c.catalog()
			if err != nil {
				return err
			}
			s, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			initial := store.LoadOrEmpty(ctx, s, c.log)
			c.log.Debug("opened document", "key", c.storeKey(), "nodes", len(initial.Nodes))

			ctrl := editor.New(topology.NewModel(cat), initial,
				editor.WithPersister(s),
				editor.WithLogger(c.log),
				editor.WithHitRadii(c.cfg.Canvas.NodeRadius, c.cfg.Canvas.LinkTolerance),
			)
			return tui.Run(ctx, tui.Options{
				Controller: ctrl,
				Compiler:   compiler.New(cat, c.compilerOptions(false), c.log),
				Catalog:    cat,
				ExportDir:  exportDir,
				Logger:     c.log,
			})
		},
	}
	cmd.Flags().StringVarP(&exportDir, "output", "o", "out", "directory written by the export key")
	return cmd
}
