// Package compiler maps a topology snapshot to deployable artifacts: the
// compose manifest, one build file per application service and, optionally,
// a Terraform configuration. Compile never mutates its input.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/diagram-to-compose/composer/internal/catalog"
	"github.com/diagram-to-compose/composer/internal/compose"
	"github.com/diagram-to-compose/composer/internal/dockerfile"
	"github.com/diagram-to-compose/composer/internal/logger"
	"github.com/diagram-to-compose/composer/internal/plan"
	"github.com/diagram-to-compose/composer/internal/result"
	"github.com/diagram-to-compose/composer/internal/terraform"
	"github.com/diagram-to-compose/composer/internal/topology"
)

// Artifacts is everything generated for one topology.
type Artifacts struct {
	Manifest   []byte
	BuildFiles []dockerfile.File
	Terraform  map[string][]byte
	Warnings   []result.Warning
}

// Files returns every artifact keyed by its export path: the manifest at
// the root, build files under their service folders, Terraform under terraform/.
func (a *Artifacts) Files() map[string][]byte {
	out := make(map[string][]byte, 1+len(a.BuildFiles)+len(a.Terraform))
	out[compose.FileName] = a.Manifest
	for _, f := range a.BuildFiles {
		out[f.Path] = f.Content
	}
	for name, content := range a.Terraform {
		out[path.Join(terraform.Dir, name)] = content
	}
	return out
}

// Compiler compiles topologies against an injected catalog.
type Compiler struct {
	opts    Options
	catalog *catalog.Catalog
	log     *slog.Logger
}

// New returns a compiler. A nil logger uses logger.Default.
func New(cat *catalog.Catalog, opts Options, log *slog.Logger) *Compiler {
	if opts.ComposeVersion == "" {
		opts.ComposeVersion = compose.DefaultVersion
	}
	if log == nil {
		log = logger.Default
	}
	return &Compiler{opts: opts, catalog: cat, log: log}
}

// Compile resolves t and renders all artifacts. Identical topologies,
// including node order, produce byte-identical artifacts.
func (c *Compiler) Compile(t topology.Topology) (*Artifacts, error) {
	p := plan.Resolve(c.catalog, t.Clone())

	manifest, err := compose.Render(p, compose.Options{Version: c.opts.ComposeVersion})
	if err != nil {
		return nil, fmt.Errorf("render manifest: %w", err)
	}
	a := &Artifacts{
		Manifest:   manifest,
		BuildFiles: dockerfile.Files(p),
		Warnings:   p.Warnings,
	}
	if c.opts.Terraform {
		files, warns := terraform.Render(p, terraform.Options{EmitTfvars: c.opts.EmitTfvars, DockerHost: c.opts.DockerHost})
		a.Terraform = files
		a.Warnings = append(a.Warnings, warns...)
	}
	c.log.Debug("compiled topology",
		"services", len(p.Services), "networks", len(p.Networks),
		"volumes", len(p.Volumes), "build_files", len(a.BuildFiles))
	return a, nil
}

// Report compiles t and, when enabled, lints the manifest. Lint failures are
// reported as errors in the report rather than returned.
func (c *Compiler) Report(ctx context.Context, t topology.Topology) (*result.Report, error) {
	out := &result.Report{Success: true}

	a, err := c.Compile(t)
	if err != nil {
		return nil, err
	}
	out.Warnings = a.Warnings

	if c.opts.Lint {
		if _, err := compose.Lint(ctx, a.Manifest); err != nil {
			var le *compose.LintError
			if !errors.As(err, &le) {
				return nil, err
			}
			out.Fail(result.Error{
				Type: result.TypeLint, Message: le.Message,
				Suggestion: "Check node names and port mappings",
			})
			return out, nil
		}
	}
	out.Files = a.Files()
	return out, nil
}
