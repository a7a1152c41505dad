package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var (
	colorGray = lipgloss.Color("245")
	colorDim  = lipgloss.Color("240")
)

func (c *CLI) catalogCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the services a server node can run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := c.catalog()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(cat.Keys()))
			for _, s := range cat.Services() {
				image := s.Image
				if s.IsApplication() {
					image = "build: " + cat.BuildFor(s.Key, "").BaseImage
				}
				companion := "-"
				if s.Companion != nil {
					companion = s.Companion.Name
				}
				rows = append(rows, []string{s.Key, string(s.Kind), image, strings.Join(s.Ports, ", "), companion})
			}

			headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
				Headers("Service", "Kind", "Image", "Ports", "Companion").
				Rows(rows...).
				StyleFunc(func(row, _ int) lipgloss.Style {
					if row == -1 {
						return headerStyle
					}
					return lipgloss.NewStyle().Padding(0, 1)
				})
			fmt.Fprintln(c.out, t.Render())
			return nil
		},
	}
}
