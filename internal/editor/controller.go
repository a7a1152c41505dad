// Package editor turns pointer, touch and keyboard events into topology
// mutations. The Controller owns the current document and its history; a
// rendering surface only reads the state it exposes and forwards input.
package editor

import (
	"context"
	"io"
	"log/slog"

	"github.com/diagram-to-compose/composer/internal/geometry"
	"github.com/diagram-to-compose/composer/internal/history"
	"github.com/diagram-to-compose/composer/internal/logger"
	"github.com/diagram-to-compose/composer/internal/topology"
)

// Mode selects what a click on the canvas does.
type Mode int

const (
	// ModeNode opens the creation dialog on empty canvas.
	ModeNode Mode = iota
	// ModeLink connects two clicked nodes.
	ModeLink
)

func (m Mode) String() string {
	if m == ModeLink {
		return "link"
	}
	return "node"
}

// Persister stores the latest committed document.
type Persister interface {
	Save(ctx context.Context, t topology.Topology) error
	Reset(ctx context.Context) error
}

// Target identifies the element a context menu was opened on.
type Target struct {
	Node *topology.Node
	Link *topology.Link
}

// Menu is an open context menu.
type Menu struct {
	At     geometry.Point
	Target Target
}

// MenuAction is a context menu choice.
type MenuAction int

const (
	ActionEdit MenuAction = iota
	ActionDelete
)

// DialogKind distinguishes the three forms the controller can open.
type DialogKind int

const (
	DialogCreateNode DialogKind = iota
	DialogEditNode
	DialogEditLink
)

// Dialog is an open form. Spec pre-fills node forms; Link pre-fills the link form.
type Dialog struct {
	Kind   DialogKind
	At     geometry.Point
	NodeID int64
	Spec   topology.NodeSpec
	Link   topology.Link
}

type drag struct {
	id     int64
	offset geometry.Point
	moved  bool
}

// Controller is the interaction state machine. It is not safe for
// concurrent use; events are expected one at a time from a single loop.
type Controller struct {
	model   *topology.Model
	hist    *history.History
	doc     topology.Topology
	persist Persister
	keys    KeyMap
	log     *slog.Logger

	radius    float64
	tolerance float64

	mode    Mode
	pending *int64
	drag    *drag
	touch   geometry.Point
	menu    *Menu
	dialog  *Dialog
}

// Option configures a Controller.
type Option func(*Controller)

// WithPersister saves the document after every committed change.
func WithPersister(p Persister) Option {
	return func(c *Controller) { c.persist = p }
}

// WithLogger sets the logger; nil keeps the default.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithKeyMap replaces the default shortcuts.
func WithKeyMap(k KeyMap) Option {
	return func(c *Controller) { c.keys = k }
}

// WithHitRadii sets the node hit radius and link hit tolerance.
func WithHitRadii(radius, tolerance float64) Option {
	return func(c *Controller) {
		if radius > 0 {
			c.radius = radius
		}
		if tolerance > 0 {
			c.tolerance = tolerance
		}
	}
}

// New returns a controller editing initial, which also becomes the first
// history entry.
func New(model *topology.Model, initial topology.Topology, opts ...Option) *Controller {
	c := &Controller{
		model:     model,
		doc:       initial.Clone(),
		keys:      DefaultKeyMap(),
		log:       logger.Default,
		radius:    geometry.NodeRadius,
		tolerance: geometry.LinkTolerance,
	}
	for _, o := range opts {
		o(c)
	}
	c.hist = history.New(c.doc)
	return c
}

// Document returns a copy of the current topology.
func (c *Controller) Document() topology.Topology { return c.doc.Clone() }

func (c *Controller) Mode() Mode { return c.mode }

func (c *Controller) KeyMap() KeyMap { return c.keys }

func (c *Controller) Menu() *Menu { return c.menu }

func (c *Controller) Dialog() *Dialog { return c.dialog }

func (c *Controller) CanUndo() bool { return c.hist.CanUndo() }

func (c *Controller) CanRedo() bool { return c.hist.CanRedo() }

// Selected returns the pending link source in link mode.
func (c *Controller) Selected() (int64, bool) {
	if c.pending == nil {
		return 0, false
	}
	return *c.pending, true
}

// Dragging returns the id of the node being dragged.
func (c *Controller) Dragging() (int64, bool) {
	if c.drag == nil {
		return 0, false
	}
	return c.drag.id, true
}

// SetMode switches mode and drops any pending link source.
func (c *Controller) SetMode(m Mode) {
	c.mode = m
	c.pending = nil
}

// commit makes next the current document, records it and saves it.
func (c *Controller) commit(next topology.Topology, what string) {
	c.doc = next
	c.hist.Push(next)
	c.log.Debug("committed change", "action", what, "nodes", len(next.Nodes), "links", len(next.Links))
	c.save()
}

// replace swaps in a document without recording history (undo, redo). A
// dialog or menu whose element no longer exists is closed.
func (c *Controller) replace(next topology.Topology) {
	c.doc = next
	c.pending = nil
	if d := c.dialog; d != nil && !c.exists(d.Kind == DialogEditNode, d.NodeID, d.Kind == DialogEditLink, d.Link) {
		c.dialog = nil
	}
	if m := c.menu; m != nil {
		var id int64
		var l topology.Link
		if m.Target.Node != nil {
			id = m.Target.Node.ID
		}
		if m.Target.Link != nil {
			l = *m.Target.Link
		}
		if !c.exists(m.Target.Node != nil, id, m.Target.Link != nil, l) {
			c.menu = nil
		}
	}
	c.save()
}

// exists reports whether the node or link a dialog or menu refers to is
// still in the document.
func (c *Controller) exists(isNode bool, id int64, isLink bool, l topology.Link) bool {
	switch {
	case isNode:
		_, ok := c.doc.NodeByID(id)
		return ok
	case isLink:
		return c.doc.HasLink(l.From, l.To)
	}
	return true
}

func (c *Controller) save() {
	if c.persist == nil {
		return
	}
	if err := c.persist.Save(context.Background(), c.doc); err != nil {
		c.log.Warn("failed to save document", "error", err)
	}
}

// Click handles a primary click at p.
func (c *Controller) Click(p geometry.Point) {
	c.menu = nil
	if c.dialog != nil {
		return
	}
	n, onNode := c.doc.NodeAt(p, c.radius)

	switch c.mode {
	case ModeNode:
		if onNode {
			return
		}
		c.dialog = &Dialog{Kind: DialogCreateNode, At: p}
	case ModeLink:
		if !onNode {
			c.pending = nil
			return
		}
		if c.pending == nil || *c.pending == n.ID {
			id := n.ID
			c.pending = &id
			return
		}
		from := *c.pending
		c.pending = nil
		if next, ok := c.doc.AddLink(from, n.ID); ok {
			c.commit(next, "add link")
		}
	}
}

// PointerDown starts a drag when p is on a node, in either mode.
func (c *Controller) PointerDown(p geometry.Point) {
	if c.dialog != nil {
		return
	}
	n, ok := c.doc.NodeAt(p, c.radius)
	if !ok {
		c.drag = nil
		return
	}
	c.drag = &drag{id: n.ID, offset: p.Sub(n.Position())}
}

// PointerMove moves the dragged node so it keeps its offset from the pointer.
func (c *Controller) PointerMove(p geometry.Point) {
	if c.drag == nil {
		return
	}
	at := p.Sub(c.drag.offset)
	c.doc = c.doc.MoveNode(c.drag.id, at.X, at.Y)
	c.drag.moved = true
}

// PointerUp ends a drag. A press and release without movement is a click.
func (c *Controller) PointerUp(p geometry.Point) {
	d := c.drag
	c.drag = nil
	if d != nil && d.moved {
		c.save()
		return
	}
	c.Click(p)
}

// TouchStart mirrors PointerDown for a single touch; multi-touch is ignored.
func (c *Controller) TouchStart(touches []geometry.Point) {
	if len(touches) != 1 {
		return
	}
	c.touch = touches[0]
	c.PointerDown(touches[0])
}

// TouchMove mirrors PointerMove for a single touch.
func (c *Controller) TouchMove(touches []geometry.Point) {
	if len(touches) != 1 {
		return
	}
	c.touch = touches[0]
	c.PointerMove(touches[0])
}

// TouchEnd mirrors PointerUp at the last single-touch position.
func (c *Controller) TouchEnd() {
	c.PointerUp(c.touch)
}

// ContextMenu opens the edit/delete menu for the node or link at p. Nodes
// win over links; empty canvas closes any open menu.
func (c *Controller) ContextMenu(p geometry.Point) {
	c.menu = nil
	if c.dialog != nil {
		return
	}
	if n, ok := c.doc.NodeAt(p, c.radius); ok {
		c.menu = &Menu{At: p, Target: Target{Node: &n}}
		return
	}
	if l, ok := c.doc.LinkAt(p, c.tolerance); ok {
		c.menu = &Menu{At: p, Target: Target{Link: &l}}
	}
}

// Choose applies a context menu action and closes the menu.
func (c *Controller) Choose(a MenuAction) {
	m := c.menu
	c.menu = nil
	if m == nil {
		return
	}
	switch {
	case m.Target.Node != nil:
		id := m.Target.Node.ID
		if a == ActionDelete {
			if next, ok := c.doc.DeleteNode(id); ok {
				if c.pending != nil && *c.pending == id {
					c.pending = nil
				}
				c.commit(next, "delete node")
			}
			return
		}
		if n, ok := c.doc.NodeByID(id); ok {
			c.dialog = &Dialog{Kind: DialogEditNode, At: n.Position(), NodeID: id, Spec: topology.SpecOf(n)}
		}
	case m.Target.Link != nil:
		l := *m.Target.Link
		if a == ActionDelete {
			if next, ok := c.doc.DeleteLink(l.From, l.To); ok {
				c.commit(next, "delete link")
			}
			return
		}
		c.dialog = &Dialog{Kind: DialogEditLink, At: m.At, Link: l}
	}
}

// SubmitNode completes a create or edit node dialog. A validation failure is
// returned and the dialog stays open so the field can be corrected.
func (c *Controller) SubmitNode(spec topology.NodeSpec) error {
	d := c.dialog
	if d == nil || (d.Kind != DialogCreateNode && d.Kind != DialogEditNode) {
		return nil
	}
	var (
		next topology.Topology
		err  error
		what string
	)
	if d.Kind == DialogCreateNode {
		next, _, err = c.model.AddNode(c.doc, spec, d.At)
		what = "add node"
	} else {
		next, _, err = c.model.EditNode(c.doc, d.NodeID, spec)
		what = "edit node"
	}
	if err != nil {
		d.Spec = spec
		return err
	}
	c.dialog = nil
	c.commit(next, what)
	return nil
}

// SubmitLink completes the edit link dialog. It reports whether the link
// changed; an invalid pair closes the dialog without changes.
func (c *Controller) SubmitLink(from, to int64) bool {
	d := c.dialog
	if d == nil || d.Kind != DialogEditLink {
		return false
	}
	c.dialog = nil
	next, ok := c.doc.EditLink(d.Link, from, to)
	if ok {
		c.commit(next, "edit link")
	}
	return ok
}

// Cancel closes any open dialog or menu without changes.
func (c *Controller) Cancel() {
	c.dialog = nil
	c.menu = nil
}

// Undo restores the previous history entry.
func (c *Controller) Undo() bool {
	prev, ok := c.hist.Undo()
	if ok {
		c.replace(prev)
	}
	return ok
}

// Redo re-applies the last undone entry.
func (c *Controller) Redo() bool {
	next, ok := c.hist.Redo()
	if ok {
		c.replace(next)
	}
	return ok
}

// Import replaces the document with the snapshot read from r. On failure
// the current document is left untouched and the *topology.ImportError is
// returned.
func (c *Controller) Import(ctx context.Context, r io.Reader) error {
	t, err := topology.Read(r)
	if err != nil {
		c.log.Warn("import failed", "error", err)
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.drag, c.menu, c.dialog, c.pending = nil, nil, nil, nil
	c.commit(t, "import")
	return nil
}

// Reset clears the document, selection and stored state.
func (c *Controller) Reset(ctx context.Context) error {
	c.drag, c.menu, c.dialog, c.pending = nil, nil, nil, nil
	c.doc = topology.Empty()
	c.hist.Push(c.doc)
	if c.persist == nil {
		return nil
	}
	return c.persist.Reset(ctx)
}
