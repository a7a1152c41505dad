package editor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagram-to-compose/composer/internal/catalog"
	"github.com/diagram-to-compose/composer/internal/geometry"
	"github.com/diagram-to-compose/composer/internal/topology"
)

// =============================================================================
// Helpers
// =============================================================================

type memPersister struct {
	saved  []topology.Topology
	resets int
	err    error
}

func (m *memPersister) Save(_ context.Context, t topology.Topology) error {
	m.saved = append(m.saved, t.Clone())
	return m.err
}

func (m *memPersister) Reset(context.Context) error {
	m.resets++
	return nil
}

func newController(t *testing.T, p *memPersister) *Controller {
	t.Helper()
	var tick int64
	model := topology.NewModel(catalog.Default(), topology.WithClock(func() time.Time {
		tick++
		return time.UnixMilli(1_000 + tick)
	}))
	opts := []Option{}
	if p != nil {
		opts = append(opts, WithPersister(p))
	}
	return New(model, topology.Empty(), opts...)
}

func pt(x, y float64) geometry.Point { return geometry.Point{X: x, Y: y} }

// createNode clicks empty canvas in node mode and submits the dialog.
func createNode(t *testing.T, c *Controller, at geometry.Point, spec topology.NodeSpec) topology.Node {
	t.Helper()
	c.SetMode(ModeNode)
	c.Click(at)
	require.NotNil(t, c.Dialog())
	require.Equal(t, DialogCreateNode, c.Dialog().Kind)
	require.NoError(t, c.SubmitNode(spec))
	doc := c.Document()
	return doc.Nodes[len(doc.Nodes)-1]
}

func disk(name string) topology.NodeSpec {
	return topology.NodeSpec{Type: topology.TypeDisk, Name: name}
}

// =============================================================================
// Node mode
// =============================================================================

func TestNodeMode_ClickEmptyOpensCreateDialog(t *testing.T) {
	c := newController(t, nil)
	c.Click(pt(100, 120))

	d := c.Dialog()
	require.NotNil(t, d)
	assert.Equal(t, DialogCreateNode, d.Kind)
	assert.Equal(t, pt(100, 120), d.At)
}

func TestNodeMode_ClickOnNodeIsIgnored(t *testing.T) {
	c := newController(t, nil)
	createNode(t, c, pt(100, 100), disk("d1"))

	c.Click(pt(105, 100))
	assert.Nil(t, c.Dialog())
}

func TestSubmitNode_ValidationKeepsDialogOpen(t *testing.T) {
	p := &memPersister{}
	c := newController(t, p)
	c.Click(pt(0, 0))

	err := c.SubmitNode(disk("Bad Name"))
	var ve *topology.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)

	require.NotNil(t, c.Dialog())
	assert.Equal(t, "Bad Name", c.Dialog().Spec.Name)
	assert.Empty(t, c.Document().Nodes)
	assert.Empty(t, p.saved)
	assert.False(t, c.CanUndo())
}

func TestSubmitNode_PersistsAndRecordsHistory(t *testing.T) {
	p := &memPersister{}
	c := newController(t, p)
	n := createNode(t, c, pt(10, 20), disk("d1"))

	assert.Equal(t, pt(10, 20), n.Position())
	assert.Nil(t, c.Dialog())
	require.Len(t, p.saved, 1)
	assert.Len(t, p.saved[0].Nodes, 1)
	assert.True(t, c.CanUndo())
}

// =============================================================================
// Link mode
// =============================================================================

func TestLinkMode_SelectThenConnect(t *testing.T) {
	c := newController(t, nil)
	a := createNode(t, c, pt(0, 0), disk("a"))
	b := createNode(t, c, pt(200, 0), disk("b"))

	c.SetMode(ModeLink)
	c.Click(pt(2, 2))
	sel, ok := c.Selected()
	require.True(t, ok)
	assert.Equal(t, a.ID, sel)

	c.Click(pt(198, 1))
	_, ok = c.Selected()
	assert.False(t, ok)
	assert.Equal(t, []topology.Link{{From: a.ID, To: b.ID}}, c.Document().Links)
}

func TestLinkMode_SameNodeAndEmptyCanvas(t *testing.T) {
	c := newController(t, nil)
	createNode(t, c, pt(0, 0), disk("a"))

	c.SetMode(ModeLink)
	c.Click(pt(0, 0))
	c.Click(pt(0, 0))
	_, ok := c.Selected()
	assert.True(t, ok, "second click on the same node keeps it selected")
	assert.Empty(t, c.Document().Links)

	c.Click(pt(500, 500))
	_, ok = c.Selected()
	assert.False(t, ok)
}

func TestLinkMode_DuplicateLinkIsNoop(t *testing.T) {
	p := &memPersister{}
	c := newController(t, p)
	createNode(t, c, pt(0, 0), disk("a"))
	createNode(t, c, pt(200, 0), disk("b"))
	c.SetMode(ModeLink)
	c.Click(pt(0, 0))
	c.Click(pt(200, 0))
	saves := len(p.saved)

	c.Click(pt(200, 0))
	c.Click(pt(0, 0))
	assert.Len(t, c.Document().Links, 1)
	assert.Len(t, p.saved, saves)
}

func TestSetMode_ClearsSelection(t *testing.T) {
	c := newController(t, nil)
	createNode(t, c, pt(0, 0), disk("a"))
	c.SetMode(ModeLink)
	c.Click(pt(0, 0))

	c.SetMode(ModeNode)
	_, ok := c.Selected()
	assert.False(t, ok)
}

// =============================================================================
// Drag
// =============================================================================

func TestDrag_KeepsOffsetAndSkipsHistory(t *testing.T) {
	p := &memPersister{}
	c := newController(t, p)
	n := createNode(t, c, pt(100, 100), disk("a"))
	saves := len(p.saved)

	c.PointerDown(pt(110, 95))
	id, ok := c.Dragging()
	require.True(t, ok)
	assert.Equal(t, n.ID, id)

	c.PointerMove(pt(150, 150))
	c.PointerMove(pt(210, 195))
	assert.Equal(t, pt(200, 200), c.Document().Nodes[0].Position())

	c.PointerUp(pt(210, 195))
	_, ok = c.Dragging()
	assert.False(t, ok)
	assert.Nil(t, c.Dialog(), "release after a drag is not a click")
	assert.Len(t, p.saved, saves+1, "saved once on release")

	c.Undo()
	assert.Empty(t, c.Document().Nodes, "drag did not add a history entry")
}

func TestDrag_WorksInLinkMode(t *testing.T) {
	c := newController(t, nil)
	createNode(t, c, pt(0, 0), disk("a"))
	c.SetMode(ModeLink)

	c.PointerDown(pt(0, 0))
	c.PointerMove(pt(40, 0))
	c.PointerUp(pt(40, 0))

	assert.Equal(t, pt(40, 0), c.Document().Nodes[0].Position())
	_, ok := c.Selected()
	assert.False(t, ok)
}

func TestPointerUp_WithoutMoveIsClick(t *testing.T) {
	c := newController(t, nil)
	c.PointerDown(pt(300, 300))
	c.PointerUp(pt(300, 300))
	require.NotNil(t, c.Dialog())
	assert.Equal(t, DialogCreateNode, c.Dialog().Kind)
}

func TestTouch_MirrorsMouseAndIgnoresMultiTouch(t *testing.T) {
	c := newController(t, nil)
	createNode(t, c, pt(50, 50), disk("a"))

	c.TouchStart([]geometry.Point{pt(50, 50), pt(90, 90)})
	_, ok := c.Dragging()
	assert.False(t, ok)

	c.TouchStart([]geometry.Point{pt(55, 50)})
	c.TouchMove([]geometry.Point{pt(65, 60)})
	c.TouchMove([]geometry.Point{pt(0, 0), pt(1, 1)})
	c.TouchEnd()

	assert.Equal(t, pt(60, 60), c.Document().Nodes[0].Position())
	_, ok = c.Dragging()
	assert.False(t, ok)
}

// =============================================================================
// Context menu
// =============================================================================

func TestContextMenu_DeleteNodePrunesLinks(t *testing.T) {
	c := newController(t, nil)
	a := createNode(t, c, pt(0, 0), disk("a"))
	createNode(t, c, pt(200, 0), disk("b"))
	c.SetMode(ModeLink)
	c.Click(pt(0, 0))
	c.Click(pt(200, 0))

	c.ContextMenu(pt(3, 3))
	m := c.Menu()
	require.NotNil(t, m)
	require.NotNil(t, m.Target.Node)
	assert.Equal(t, a.ID, m.Target.Node.ID)

	c.Choose(ActionDelete)
	doc := c.Document()
	assert.Nil(t, c.Menu())
	assert.Len(t, doc.Nodes, 1)
	assert.Empty(t, doc.Links)

	c.Undo()
	assert.Len(t, c.Document().Links, 1)
}

func TestContextMenu_LinkEditAndDelete(t *testing.T) {
	c := newController(t, nil)
	a := createNode(t, c, pt(0, 0), disk("a"))
	b := createNode(t, c, pt(200, 0), disk("b"))
	d := createNode(t, c, pt(100, 200), disk("c"))
	c.SetMode(ModeLink)
	c.Click(pt(0, 0))
	c.Click(pt(200, 0))

	c.ContextMenu(pt(100, 5))
	require.NotNil(t, c.Menu())
	require.NotNil(t, c.Menu().Target.Link)

	c.Choose(ActionEdit)
	require.NotNil(t, c.Dialog())
	assert.Equal(t, DialogEditLink, c.Dialog().Kind)
	assert.True(t, c.SubmitLink(a.ID, d.ID))
	assert.Equal(t, []topology.Link{{From: a.ID, To: d.ID}}, c.Document().Links)

	c.ContextMenu(pt(50, 100))
	require.NotNil(t, c.Menu())
	c.Choose(ActionEdit)
	assert.False(t, c.SubmitLink(b.ID, b.ID), "self link rejected")
	assert.Nil(t, c.Dialog())

	c.ContextMenu(pt(50, 100))
	c.Choose(ActionDelete)
	assert.Empty(t, c.Document().Links)
}

func TestContextMenu_EditNodePrefillsDialog(t *testing.T) {
	c := newController(t, nil)
	n := createNode(t, c, pt(0, 0), topology.NodeSpec{
		Type: topology.TypeServer, Name: "db1", OS: catalog.OSLinux, Service: "mysql",
	})

	c.ContextMenu(pt(0, 0))
	c.Choose(ActionEdit)
	d := c.Dialog()
	require.NotNil(t, d)
	assert.Equal(t, DialogEditNode, d.Kind)
	assert.Equal(t, n.ID, d.NodeID)
	assert.Equal(t, "mysql", d.Spec.Service)

	spec := d.Spec
	spec.Name = "db2"
	require.NoError(t, c.SubmitNode(spec))
	doc := c.Document()
	assert.Equal(t, "db2", doc.Nodes[0].Name)
	assert.Equal(t, n.ID, doc.Nodes[0].ID)
}

func TestContextMenu_EmptyCanvasCloses(t *testing.T) {
	c := newController(t, nil)
	createNode(t, c, pt(0, 0), disk("a"))
	c.ContextMenu(pt(0, 0))
	require.NotNil(t, c.Menu())

	c.ContextMenu(pt(400, 400))
	assert.Nil(t, c.Menu())
}

// =============================================================================
// History and keyboard
// =============================================================================

func TestUndoRedo_ThroughKeys(t *testing.T) {
	c := newController(t, nil)
	for _, name := range []string{"a", "b", "c"} {
		createNode(t, c, pt(float64(len(c.Document().Nodes))*100, 0), disk(name))
	}
	final := c.Document()

	for range 3 {
		assert.True(t, c.HandleKey(Keystroke("ctrl+z")))
	}
	assert.Empty(t, c.Document().Nodes)
	assert.False(t, c.Undo())

	for range 3 {
		assert.True(t, c.HandleKey(Keystroke("ctrl+y")))
	}
	if diff := cmp.Diff(final, c.Document()); diff != "" {
		t.Errorf("redo mismatch (-want +got):\n%s", diff)
	}
}

func TestUndo_ClosesDialogForRemovedNode(t *testing.T) {
	c := newController(t, nil)
	createNode(t, c, pt(0, 0), disk("a"))
	c.ContextMenu(pt(0, 0))
	c.Choose(ActionEdit)
	require.NotNil(t, c.Dialog())

	assert.True(t, c.HandleKey(Keystroke("ctrl+z")))
	assert.Empty(t, c.Document().Nodes)
	assert.Nil(t, c.Dialog())

	assert.True(t, c.HandleKey(Keystroke("ctrl+y")))
	assert.Len(t, c.Document().Nodes, 1)
}

func TestUndo_ClosesStaleLinkDialogAndMenu(t *testing.T) {
	c := newController(t, nil)
	a := createNode(t, c, pt(0, 0), disk("a"))
	b := createNode(t, c, pt(200, 0), disk("b"))
	c.SetMode(ModeLink)
	c.Click(a.Position())
	c.Click(b.Position())
	require.Len(t, c.Document().Links, 1)

	c.ContextMenu(pt(100, 0))
	c.Choose(ActionEdit)
	require.NotNil(t, c.Dialog())
	require.True(t, c.Undo())
	assert.Nil(t, c.Dialog())

	require.True(t, c.Redo())
	c.ContextMenu(pt(100, 0))
	require.NotNil(t, c.Menu())
	require.True(t, c.Undo())
	assert.Nil(t, c.Menu())
}

func TestUndo_KeepsCreateDialogOpen(t *testing.T) {
	c := newController(t, nil)
	createNode(t, c, pt(0, 0), disk("a"))
	c.Click(pt(300, 300))
	require.NotNil(t, c.Dialog())

	require.True(t, c.Undo())
	require.NotNil(t, c.Dialog())
	assert.Equal(t, DialogCreateNode, c.Dialog().Kind)
	require.NoError(t, c.SubmitNode(disk("b")))
	assert.Equal(t, "b", c.Document().Nodes[0].Name)
}

func TestHandleKey_ModeKeysSuppressedInDialog(t *testing.T) {
	c := newController(t, nil)
	assert.True(t, c.HandleKey(Keystroke("l")))
	assert.Equal(t, ModeLink, c.Mode())

	c.SetMode(ModeNode)
	c.Click(pt(0, 0))
	assert.False(t, c.HandleKey(Keystroke("l")))
	assert.Equal(t, ModeNode, c.Mode())

	assert.True(t, c.HandleKey(Keystroke("esc")))
	assert.Nil(t, c.Dialog())
	assert.False(t, c.HandleKey(Keystroke("x")))
}

// =============================================================================
// Import / reset
// =============================================================================

func TestImport_ReplacesDocument(t *testing.T) {
	p := &memPersister{}
	c := newController(t, p)
	createNode(t, c, pt(0, 0), disk("old"))

	err := c.Import(context.Background(), strings.NewReader(
		`{"nodes":[{"id":5,"x":1,"y":2,"type":"network","name":"net1"}],"links":[]}`))
	require.NoError(t, err)

	doc := c.Document()
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, "net1", doc.Nodes[0].Name)
	assert.Equal(t, "net1", p.saved[len(p.saved)-1].Nodes[0].Name)

	c.Undo()
	assert.Equal(t, "old", c.Document().Nodes[0].Name)
}

func TestImport_MissingLinksLeavesDocument(t *testing.T) {
	p := &memPersister{}
	c := newController(t, p)
	createNode(t, c, pt(0, 0), disk("keep"))
	before := c.Document()
	saves := len(p.saved)

	err := c.Import(context.Background(), strings.NewReader(`{"nodes": []}`))
	var ie *topology.ImportError
	require.ErrorAs(t, err, &ie)
	assert.ErrorIs(t, err, topology.ErrMissingLinks)
	assert.Equal(t, before, c.Document())
	assert.Len(t, p.saved, saves)
}

func TestReset_ClearsEverything(t *testing.T) {
	p := &memPersister{}
	c := newController(t, p)
	createNode(t, c, pt(0, 0), disk("a"))
	c.SetMode(ModeLink)
	c.Click(pt(0, 0))

	require.NoError(t, c.Reset(context.Background()))
	assert.Empty(t, c.Document().Nodes)
	_, ok := c.Selected()
	assert.False(t, ok)
	assert.Equal(t, 1, p.resets)
}

func TestSaveFailure_DoesNotBlockEditing(t *testing.T) {
	p := &memPersister{err: errors.New("disk full")}
	c := newController(t, p)
	createNode(t, c, pt(0, 0), disk("a"))
	assert.Len(t, c.Document().Nodes, 1)
}
