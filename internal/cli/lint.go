package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/diagram-to-compose/composer/internal/compose"
)

func (c *CLI) lintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <docker-compose.yml>",
		Short: "Check that a manifest loads as a compose project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read manifest: %w", err)
			}
			project, err := compose.Lint(cmd.Context(), data)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(project.Services))
			for name := range project.Services {
				names = append(names, name)
			}
			slices.Sort(names)
			fmt.Fprintf(c.out, "ok: %d services, %d networks, %d volumes\n",
				len(project.Services), len(project.Networks), len(project.Volumes))
			for _, n := range names {
				fmt.Fprintf(c.out, "  %s\n", n)
			}
			return nil
		},
	}
}
