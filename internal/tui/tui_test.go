package tui

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagram-to-compose/composer/internal/catalog"
	"github.com/diagram-to-compose/composer/internal/compiler"
	"github.com/diagram-to-compose/composer/internal/editor"
	"github.com/diagram-to-compose/composer/internal/geometry"
	"github.com/diagram-to-compose/composer/internal/store"
	"github.com/diagram-to-compose/composer/internal/topology"
)

// =============================================================================
// Fixtures
// =============================================================================

func newTestModel(t *testing.T, initial topology.Topology) *model {
	t.Helper()
	cat := catalog.Default()
	ctrl := editor.New(topology.NewModel(cat), initial, editor.WithPersister(store.NewMemory()))
	m := newModel(context.Background(), Options{
		Controller: ctrl,
		Compiler:   compiler.New(cat, compiler.DefaultOptions(), nil),
		Catalog:    cat,
		ExportDir:  t.TempDir(),
	})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func press(m *model, x, y int, b tea.MouseButton) {
	m.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: b})
}

func release(m *model, x, y int) {
	m.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonNone})
}

func click(m *model, x, y int) {
	press(m, x, y, tea.MouseButtonLeft)
	release(m, x, y)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// addNode opens the create dialog at screen cell (x, y) and submits values.
func addNode(t *testing.T, m *model, x, y int, v nodeValues) {
	t.Helper()
	click(m, x, y)
	require.NotNil(t, m.form, "create form should open")
	*m.nodeVals = v
	m.completeForm()
}

// =============================================================================
// Form values
// =============================================================================

func TestParseEnv(t *testing.T) {
	got := parseEnv("A=1\n B = two \nnovalue\n=x\nC=a=b, D=4")
	assert.Equal(t, map[string]string{"A": "1", "B": "two", "C": "a=b", "D": "4"}, got)
	assert.Empty(t, parseEnv(""))
}

func TestParsePorts(t *testing.T) {
	assert.Equal(t, []string{"80:80", "443:443"}, parsePorts(" 80:80, ,443:443 "))
	assert.Nil(t, parsePorts("  "))
}

func TestNodeValues_RoundTrip(t *testing.T) {
	spec := topology.NodeSpec{
		Type: topology.TypeServer, Name: "db1", OS: catalog.OSLinux, Service: "mysql",
		ServiceConfig: &topology.ServiceConfig{
			Env:   map[string]string{"MYSQL_DATABASE": "test", "MYSQL_ROOT_PASSWORD": "root"},
			Ports: []string{"3306:3306"},
		},
	}
	v := nodeValuesFrom(spec)
	assert.Equal(t, "MYSQL_DATABASE=test\nMYSQL_ROOT_PASSWORD=root", v.Env)
	assert.Equal(t, spec, v.spec())
}

func TestNodeValues_EmptyConfigKeepsDefaults(t *testing.T) {
	v := nodeValuesFrom(topology.NodeSpec{})
	assert.Equal(t, "server", v.Type)
	assert.Equal(t, catalog.OSLinux, v.OS)
	assert.Nil(t, v.spec().ServiceConfig)
}

// =============================================================================
// Canvas
// =============================================================================

func TestGrid_PointAndCell(t *testing.T) {
	g := grid{cols: 80, rows: 20, cellW: DefaultCellWidth, cellH: DefaultCellHeight}
	p := g.point(5, 3)
	assert.Equal(t, geometry.Point{X: 44, Y: 56}, p)
	col, row := g.cell(p)
	assert.Equal(t, 5, col)
	assert.Equal(t, 3, row)
}

func TestDrawTopology(t *testing.T) {
	doc := topology.Topology{
		Nodes: []topology.Node{
			{ID: 1, Type: topology.TypeServer, Name: "db1", Service: "mysql", X: 20, Y: 24},
			{ID: 2, Type: topology.TypeNetwork, Name: "net1", X: 300, Y: 24},
		},
		Links: []topology.Link{{From: 1, To: 2}, {From: 1, To: 99}},
	}
	g := grid{cols: 60, rows: 5, cellW: DefaultCellWidth, cellH: DefaultCellHeight}
	out := drawTopology(doc, g, highlight{})

	assert.Contains(t, out, "db1 (mysql)")
	assert.Contains(t, out, "net1")
	assert.Contains(t, out, "·")
	assert.Contains(t, out, "▣")
	assert.Contains(t, out, "◎")
}

// =============================================================================
// Model
// =============================================================================

func TestModel_ClickEmptyCanvasOpensCreateForm(t *testing.T) {
	m := newTestModel(t, topology.Empty())
	click(m, 10, 6)

	require.NotNil(t, m.ctrl.Dialog())
	assert.Equal(t, editor.DialogCreateNode, m.ctrl.Dialog().Kind)
	assert.NotNil(t, m.form)
	assert.NotNil(t, m.nodeVals)
}

func TestModel_ClickOutsideCanvasIgnored(t *testing.T) {
	m := newTestModel(t, topology.Empty())
	click(m, 10, 0)  // header
	click(m, 110, 6) // preview pane
	assert.Nil(t, m.ctrl.Dialog())
}

func TestModel_SubmitNodeUpdatesDocumentAndPreview(t *testing.T) {
	m := newTestModel(t, topology.Empty())
	addNode(t, m, 10, 6, nodeValues{Type: "server", Name: "db1", OS: "linux", Service: "mysql"})

	assert.Nil(t, m.form)
	doc := m.ctrl.Document()
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, "db1", doc.Nodes[0].Name)
	assert.Contains(t, m.preview, "db1-mysql")
	assert.False(t, m.statusIsError)
}

func TestModel_RejectedSubmitReopensForm(t *testing.T) {
	m := newTestModel(t, topology.Empty())
	addNode(t, m, 10, 6, nodeValues{Type: "network", Name: "net1"})
	addNode(t, m, 40, 12, nodeValues{Type: "disk", Name: "net1"})

	assert.Len(t, m.ctrl.Document().Nodes, 1)
	require.NotNil(t, m.ctrl.Dialog())
	assert.NotNil(t, m.form)
	assert.Error(t, m.submitErr)
	assert.Equal(t, "net1", m.nodeVals.Name)
	assert.True(t, m.statusIsError)
}

func TestModel_ContextMenuDelete(t *testing.T) {
	m := newTestModel(t, topology.Empty())
	addNode(t, m, 10, 6, nodeValues{Type: "network", Name: "net1"})

	press(m, 10, 6, tea.MouseButtonRight)
	require.NotNil(t, m.ctrl.Menu())
	assert.Contains(t, m.statusLine(), "net1")

	m.Update(runes("d"))
	assert.Nil(t, m.ctrl.Menu())
	assert.Empty(t, m.ctrl.Document().Nodes)
}

func TestModel_Keys(t *testing.T) {
	m := newTestModel(t, topology.Empty())
	addNode(t, m, 10, 6, nodeValues{Type: "network", Name: "net1"})

	m.Update(runes("l"))
	assert.Equal(t, editor.ModeLink, m.ctrl.Mode())

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlZ})
	assert.Empty(t, m.ctrl.Document().Nodes)
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Len(t, m.ctrl.Document().Nodes, 1)

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_EscClosesForm(t *testing.T) {
	m := newTestModel(t, topology.Empty())
	click(m, 10, 6)
	require.NotNil(t, m.form)

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.form)
	assert.Nil(t, m.ctrl.Dialog())
}

func TestModel_Export(t *testing.T) {
	m := newTestModel(t, topology.Empty())
	addNode(t, m, 10, 6, nodeValues{Type: "server", Name: "app1", OS: "linux", Service: "flask"})

	msg, ok := m.exportCmd()().(exportedMsg)
	require.True(t, ok)
	require.NoError(t, msg.err)

	for _, name := range []string{"docker-compose.yml", "diagram.json", filepath.Join("app1-flask", "Dockerfile")} {
		_, err := os.Stat(filepath.Join(m.exportDir, name))
		assert.NoError(t, err, name)
	}
}

func TestModel_View(t *testing.T) {
	m := newTestModel(t, topology.Empty())
	addNode(t, m, 10, 6, nodeValues{Type: "network", Name: "net1"})

	v := m.View()
	assert.Contains(t, v, "node mode")
	assert.Contains(t, v, "net1")
	assert.Contains(t, v, "networks:")
}
