package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diagram-to-compose/composer/internal/bundle"
	"github.com/diagram-to-compose/composer/internal/store"
)

func (c *CLI) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <snapshot.json|->",
		Short: "Replace the stored topology with a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.loadTopology(cmd, args[0])
			if err != nil {
				c.log.Warn("import failed", "error", err)
				return err
			}
			s, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.Save(cmd.Context(), t); err != nil {
				return fmt.Errorf("save topology: %w", err)
			}
			fmt.Fprintf(c.out, "imported %d nodes and %d links\n", len(t.Nodes), len(t.Links))
			return nil
		},
	}
}

func (c *CLI) exportCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored topology as " + bundle.SnapshotName,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := c.loadTopology(cmd, "")
			if err != nil {
				return err
			}
			e, err := bundle.Snapshot(t)
			if err != nil {
				return err
			}
			p, err := bundle.WriteExport(output, e)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, p)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", ".", "output directory")
	return cmd
}

func (c *CLI) resetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the stored topology",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("reset store: %w", err)
			}
			c.log.Info("stored topology cleared", "backend", c.cfg.Store.Backend)
			return nil
		},
	}
}

// storeKey is shown by catalog/edit status lines.
func (c *CLI) storeKey() string {
	if c.cfg.Store.Key == "" {
		return store.DefaultKey
	}
	return c.cfg.Store.Key
}
