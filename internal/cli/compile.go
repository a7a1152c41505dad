package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diagram-to-compose/composer/internal/bundle"
	"github.com/diagram-to-compose/composer/internal/compiler"
	"github.com/diagram-to-compose/composer/internal/compose"
	"github.com/diagram-to-compose/composer/internal/result"
)

type compileFlags struct {
	output    string
	zip       bool
	terraform bool
	noLint    bool
	json      bool
}

func (c *CLI) compileCommand() *cobra.Command {
	var f compileFlags
	cmd := &cobra.Command{
		Use:   "compile [snapshot.json|-]",
		Short: "Compile a topology into a compose manifest and Dockerfiles",
		Long: `Compile the stored topology, or the given snapshot, into docker-compose.yml
plus one <node>-<service>/Dockerfile per application service.

With --zip the output directory receives ecosystem.zip (everything) and
dockerfiles.zip (build files only) instead of a file tree.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return c.runCompile(cmd, path, f)
		},
	}
	cmd.Flags().StringVarP(&f.output, "output", "o", "out", "output directory")
	cmd.Flags().BoolVar(&f.zip, "zip", false, "write zip archives instead of a file tree")
	cmd.Flags().BoolVar(&f.terraform, "terraform", false, "also render the Terraform configuration")
	cmd.Flags().BoolVar(&f.noLint, "no-lint", false, "skip loading the manifest with the compose loader")
	cmd.Flags().BoolVar(&f.json, "json", false, "print diagnostics as JSON")
	return cmd
}

func (c *CLI) runCompile(cmd *cobra.Command, path string, f compileFlags) error {
	ctx := cmd.Context()
	t, err := c.loadTopology(cmd, path)
	if err != nil {
		return err
	}
	cat, err := c.catalog()
	if err != nil {
		return err
	}
	comp := compiler.New(cat, c.compilerOptions(f.terraform), c.log)

	a, err := comp.Compile(t)
	if err != nil {
		return err
	}
	report := &result.Report{Success: true, Warnings: a.Warnings}
	if !f.noLint {
		if _, err := compose.Lint(ctx, a.Manifest); err != nil {
			var le *compose.LintError
			if !errors.As(err, &le) {
				return err
			}
			report.Fail(result.Error{Type: result.TypeLint, Message: le.Message})
		}
	}

	if f.json {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		c.printDiagnostics(report)
	}
	if !report.Success {
		return errors.New("compile failed")
	}

	var written []string
	if f.zip {
		eco, err := bundle.Ecosystem(a)
		if err != nil {
			return err
		}
		builds, err := bundle.BuildFiles(a)
		if err != nil {
			return err
		}
		for _, e := range []bundle.Export{eco, builds} {
			p, err := bundle.WriteExport(f.output, e)
			if err != nil {
				return err
			}
			written = append(written, p)
		}
	} else {
		written, err = bundle.WriteTree(ctx, f.output, a.Files())
		if err != nil {
			return err
		}
	}

	c.log.Info("compiled topology",
		"nodes", len(t.Nodes), "links", len(t.Links),
		"files", len(written), "output", f.output)
	if !f.json {
		for _, p := range written {
			fmt.Fprintln(c.out, p)
		}
	}
	return nil
}

func (c *CLI) printDiagnostics(r *result.Report) {
	for _, e := range r.Errors {
		fmt.Fprintf(c.errOut, "ERROR [%s] %s\n", e.Type, e.Message)
		if e.Suggestion != "" {
			fmt.Fprintf(c.errOut, "  suggestion: %s\n", e.Suggestion)
		}
	}
	for _, w := range r.Warnings {
		if w.NodeID != 0 {
			fmt.Fprintf(c.errOut, "WARN [node %d] %s\n", w.NodeID, w.Message)
		} else {
			fmt.Fprintf(c.errOut, "WARN %s\n", w.Message)
		}
	}
}
