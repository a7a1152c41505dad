package compose

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyManifest   = errors.New("manifest is empty")
	ErrInvalidYAML     = errors.New("invalid YAML syntax")
	ErrInvalidManifest = errors.New("not a valid compose project")
)

// LintError reports a manifest the compose loader rejects.
type LintError struct {
	Message string
	Err     error
}

func (e *LintError) Error() string {
	return "lint: " + e.Message
}

func (e *LintError) Unwrap() error {
	return e.Err
}

// Lint loads manifest with the compose-spec loader, proving it is a valid
// compose project. It performs no I/O; build contexts are not resolved.
func Lint(ctx context.Context, manifest []byte) (*types.Project, error) {
	if strings.TrimSpace(string(manifest)) == "" {
		return nil, &LintError{Message: "manifest is empty", Err: ErrEmptyManifest}
	}

	var dict map[string]any
	if err := yaml.Unmarshal(manifest, &dict); err != nil || dict == nil {
		return nil, &LintError{Message: "invalid YAML syntax", Err: ErrInvalidYAML}
	}

	project, err := loader.LoadWithContext(ctx, types.ConfigDetails{
		ConfigFiles: []types.ConfigFile{
			{
				Filename: FileName,
				Content:  manifest,
				Config:   dict,
			},
		},
	}, func(opts *loader.Options) {
		opts.SetProjectName("composer-lint", false)
		opts.SkipNormalization = true
		opts.ResolvePaths = false
		opts.SkipExtends = true
	})
	if err != nil {
		return nil, &LintError{Message: err.Error(), Err: fmt.Errorf("%w: %w", ErrInvalidManifest, err)}
	}
	return project, nil
}
