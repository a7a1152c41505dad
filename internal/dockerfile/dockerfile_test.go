package dockerfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagram-to-compose/composer/internal/catalog"
	"github.com/diagram-to-compose/composer/internal/plan"
	"github.com/diagram-to-compose/composer/internal/topology"
)

func TestRender_Fallbacks(t *testing.T) {
	cat := catalog.Default()
	assert.Equal(t, "FROM ubuntu:latest\nCMD [\"/bin/bash\"]\n",
		string(Render(cat.FallbackBuild(catalog.OSLinux))))
	assert.Equal(t, "FROM mcr.microsoft.com/windows/servercore:ltsc2019\nCMD [\"powershell.exe\"]\n",
		string(Render(cat.FallbackBuild(catalog.OSWindows))))
}

func TestRender_FullTemplate(t *testing.T) {
	out := Render(catalog.BuildTemplate{
		BaseImage:  "node:20",
		WorkDir:    "/app",
		Steps:      []catalog.BuildStep{{Op: "copy", Args: ". ."}, {Op: "RUN", Args: "npm ci"}},
		Expose:     3000,
		Entrypoint: []string{"docker-entrypoint.sh"},
		Cmd:        []string{"npm", "start"},
	})
	assert.Equal(t, `FROM node:20
WORKDIR /app
COPY . .
RUN npm ci
EXPOSE 3000
ENTRYPOINT ["docker-entrypoint.sh"]
CMD ["npm","start"]
`, string(out))
}

func TestRender_EveryApplicationHasATemplate(t *testing.T) {
	cat := catalog.Default()
	for _, svc := range cat.Services() {
		if !svc.IsApplication() {
			continue
		}
		out := string(Render(cat.BuildFor(svc.Key, catalog.OSLinux)))
		assert.Contains(t, out, "FROM ", svc.Key)
		assert.NotContains(t, out, "ubuntu:latest", svc.Key)
	}
}

func TestFiles_OnlyApplicationNodes(t *testing.T) {
	topo := topology.Topology{Nodes: []topology.Node{
		{ID: 1, Type: topology.TypeServer, Name: "web", OS: catalog.OSLinux, Service: "reactjs",
			ServiceConfig: &topology.ServiceConfig{Env: map[string]string{}, Ports: []string{"3000:3000"}}},
		{ID: 2, Type: topology.TypeServer, Name: "db", OS: catalog.OSLinux, Service: "postgresql",
			ServiceConfig: &topology.ServiceConfig{Env: map[string]string{}, Ports: []string{"5432:5432"}}},
		{ID: 3, Type: topology.TypeWorkstation, Name: "pc", OS: catalog.OSLinux},
	}}
	files := Files(plan.Resolve(catalog.Default(), topo))

	require.Len(t, files, 1)
	assert.Equal(t, "web-reactjs/Dockerfile", files[0].Path)
	assert.Contains(t, string(files[0].Content), "FROM node:20\n")
	assert.Contains(t, string(files[0].Content), "EXPOSE 3000\n")
}
