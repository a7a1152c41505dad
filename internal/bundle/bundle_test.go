package bundle

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagram-to-compose/composer/internal/catalog"
	"github.com/diagram-to-compose/composer/internal/compiler"
	"github.com/diagram-to-compose/composer/internal/topology"
)

func artifacts(t *testing.T) *compiler.Artifacts {
	t.Helper()
	topo := topology.Topology{Nodes: []topology.Node{
		{ID: 1, Type: topology.TypeServer, Name: "web", OS: catalog.OSLinux, Service: "vuejs",
			ServiceConfig: &topology.ServiceConfig{Env: map[string]string{}, Ports: []string{"5173:5173"}}},
		{ID: 2, Type: topology.TypeServer, Name: "api", OS: catalog.OSLinux, Service: "springboot",
			ServiceConfig: &topology.ServiceConfig{Env: map[string]string{}, Ports: []string{"8080:8080"}}},
	}}
	a, err := compiler.New(catalog.Default(), compiler.DefaultOptions(), nil).Compile(topo)
	require.NoError(t, err)
	return a
}

func unzip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		out[f.Name] = string(b)
	}
	return out
}

func TestManifest(t *testing.T) {
	e := Manifest(artifacts(t))
	assert.Equal(t, "docker-compose.yml", e.Name)
	assert.Equal(t, "text/yaml;charset=utf-8", e.MediaType)
	assert.Contains(t, string(e.Content), "web-vuejs:")
}

func TestBuildFiles(t *testing.T) {
	e, err := BuildFiles(artifacts(t))
	require.NoError(t, err)

	files := unzip(t, e.Content)
	assert.Len(t, files, 2)
	assert.Contains(t, files["web-vuejs/Dockerfile"], "FROM node:20")
	assert.Contains(t, files["api-springboot/Dockerfile"], "FROM openjdk:17")
}

func TestEcosystem(t *testing.T) {
	a := artifacts(t)
	e, err := Ecosystem(a)
	require.NoError(t, err)

	files := unzip(t, e.Content)
	assert.Equal(t, string(a.Manifest), files["docker-compose.yml"])
	assert.Contains(t, files, "web-vuejs/Dockerfile")
	assert.Contains(t, files, "api-springboot/Dockerfile")
}

func TestZip_IsReproducible(t *testing.T) {
	files := map[string][]byte{"b/x": []byte("1"), "a/y": []byte("2"), "c": []byte("3")}
	first, err := Zip(files)
	require.NoError(t, err)
	second, err := Zip(files)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSnapshot(t *testing.T) {
	e, err := Snapshot(topology.Empty())
	require.NoError(t, err)
	assert.Equal(t, "diagram.json", e.Name)
	assert.JSONEq(t, `{"nodes":[],"links":[]}`, string(e.Content))
}

func TestWriteTree(t *testing.T) {
	dir := t.TempDir()
	written, err := WriteTree(context.Background(), dir, artifacts(t).Files())
	require.NoError(t, err)
	assert.Len(t, written, 3)

	data, err := os.ReadFile(filepath.Join(dir, "web-vuejs", "Dockerfile"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "EXPOSE 5173")
}

func TestWriteTree_RejectsPathsOutsideDir(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "a", "b", "out")

	tests := []struct {
		name string
		path string
	}{
		{"parent traversal", "../../evil-flask/Dockerfile"},
		{"single parent", "../Dockerfile"},
		{"dir itself", "."},
		{"nested traversal", "web/../../x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := map[string][]byte{"docker-compose.yml": []byte("services: {}\n"), tt.path: []byte("FROM x\n")}
			_, err := WriteTree(context.Background(), out, files)
			require.ErrorIs(t, err, ErrOutsideDir)

			_, statErr := os.Stat(filepath.Join(out, "docker-compose.yml"))
			assert.True(t, os.IsNotExist(statErr), "nothing is written when a path is rejected")
		})
	}
	_, err := os.Stat(filepath.Join(root, "a", "evil-flask"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteTree_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := WriteTree(ctx, t.TempDir(), map[string][]byte{"a": nil})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteExport(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteExport(dir, Export{Name: "x.json", Content: []byte("{}")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "x.json"), path)
}
