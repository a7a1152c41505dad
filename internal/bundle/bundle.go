// Package bundle packages compiled artifacts and document snapshots for
// export: single files, zip archives, and directory trees.
package bundle

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/diagram-to-compose/composer/internal/compiler"
	"github.com/diagram-to-compose/composer/internal/compose"
	"github.com/diagram-to-compose/composer/internal/topology"
)

// Export file names.
const (
	SnapshotName  = "diagram.json"
	BuildZipName  = "dockerfiles.zip"
	EcosystemName = "ecosystem.zip"
)

const (
	zipMediaType  = "application/zip"
	jsonMediaType = "application/json"
)

// ErrOutsideDir is returned for a file path that would land outside the
// output directory.
var ErrOutsideDir = errors.New("path escapes output directory")

// zipEpoch pins entry timestamps so identical input gives identical archives.
var zipEpoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Export is a named blob ready to hand to a file-export mechanism.
type Export struct {
	Name      string
	MediaType string
	Content   []byte
}

// Manifest exports the compose manifest on its own.
func Manifest(a *compiler.Artifacts) Export {
	return Export{Name: compose.FileName, MediaType: compose.MediaType, Content: a.Manifest}
}

// BuildFiles exports a zip holding one <node>-<service>/Dockerfile per
// application service.
func BuildFiles(a *compiler.Artifacts) (Export, error) {
	files := make(map[string][]byte, len(a.BuildFiles))
	for _, f := range a.BuildFiles {
		files[f.Path] = f.Content
	}
	data, err := Zip(files)
	if err != nil {
		return Export{}, err
	}
	return Export{Name: BuildZipName, MediaType: zipMediaType, Content: data}, nil
}

// Ecosystem exports a zip with the manifest at its root plus every build
// file and, when rendered, the Terraform folder.
func Ecosystem(a *compiler.Artifacts) (Export, error) {
	data, err := Zip(a.Files())
	if err != nil {
		return Export{}, err
	}
	return Export{Name: EcosystemName, MediaType: zipMediaType, Content: data}, nil
}

// Snapshot exports the document as pretty-printed JSON.
func Snapshot(t topology.Topology) (Export, error) {
	data, err := topology.Marshal(t)
	if err != nil {
		return Export{}, fmt.Errorf("encode snapshot: %w", err)
	}
	return Export{Name: SnapshotName, MediaType: jsonMediaType, Content: data}, nil
}

// Zip archives files in path order.
func Zip(files map[string][]byte) ([]byte, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: zipEpoch})
		if err != nil {
			return nil, fmt.Errorf("zip %s: %w", name, err)
		}
		if _, err := w.Write(files[name]); err != nil {
			return nil, fmt.Errorf("zip %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

// within joins name onto dir and rejects results that leave dir.
func within(dir, name string) (string, error) {
	target := filepath.Join(dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideDir, name)
	}
	return target, nil
}

// WriteTree writes files under dir, creating folders as needed. Every path
// is checked before anything is written. Files are written concurrently; the
// first failure cancels the rest.
func WriteTree(ctx context.Context, dir string, files map[string][]byte) ([]string, error) {
	targets := make(map[string]string, len(files))
	written := make([]string, 0, len(files))
	for name := range files {
		target, err := within(dir, name)
		if err != nil {
			return nil, err
		}
		targets[name] = target
		written = append(written, target)
	}
	slices.Sort(written)

	g, gctx := errgroup.WithContext(ctx)
	for name, content := range files {
		target := targets[name]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("mkdir %s: %w", filepath.Dir(target), err)
			}
			if err := os.WriteFile(target, content, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", target, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return written, nil
}

// WriteExport writes e into dir under its own name.
func WriteExport(dir string, e Export) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	target := filepath.Join(dir, e.Name)
	if err := os.WriteFile(target, e.Content, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	return target, nil
}
