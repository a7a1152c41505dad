// Package tui is a terminal rendering surface for the interaction
// controller: a mouse-driven canvas, huh forms for node and link dialogs,
// and a live preview of the generated compose manifest.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/diagram-to-compose/composer/internal/bundle"
	"github.com/diagram-to-compose/composer/internal/catalog"
	"github.com/diagram-to-compose/composer/internal/compiler"
	"github.com/diagram-to-compose/composer/internal/editor"
	"github.com/diagram-to-compose/composer/internal/logger"
)

const (
	headerHeight = 1
	footerHeight = 2
	previewWidth = 44
	// Below this width the manifest preview is hidden.
	minPreviewTotal = 100
)

// Options configures the editor surface.
type Options struct {
	Controller *editor.Controller
	Compiler   *compiler.Compiler
	Catalog    *catalog.Catalog
	// ExportDir receives the artifact tree on ctrl+s.
	ExportDir  string
	CellWidth  float64
	CellHeight float64
	Logger     *slog.Logger
}

type keyMap struct {
	Quit       key.Binding
	Export     key.Binding
	Reset      key.Binding
	MenuEdit   key.Binding
	MenuDelete key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Export:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "export")),
		Reset:      key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reset")),
		MenuEdit:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		MenuDelete: key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
	}
}

// --- Messages ---

type exportedMsg struct {
	paths []string
	err   error
}

type resetMsg struct{ err error }

// --- Model ---

type model struct {
	ctx  context.Context
	ctrl *editor.Controller
	comp *compiler.Compiler
	cat  *catalog.Catalog
	log  *slog.Logger
	keys keyMap
	help help.Model

	exportDir    string
	cellW, cellH float64

	width  int
	height int

	form      *huh.Form
	nodeVals  *nodeValues
	linkVals  *linkValues
	submitErr error

	leftDown bool
	preview  string
	warnings int

	status        string
	statusIsError bool
}

func newModel(ctx context.Context, opts Options) *model {
	m := &model{
		ctx:       ctx,
		ctrl:      opts.Controller,
		comp:      opts.Compiler,
		cat:       opts.Catalog,
		log:       opts.Logger,
		keys:      defaultKeys(),
		help:      help.New(),
		exportDir: opts.ExportDir,
		cellW:     opts.CellWidth,
		cellH:     opts.CellHeight,
	}
	if m.log == nil {
		m.log = logger.Default
	}
	if m.cat == nil {
		m.cat = catalog.Default()
	}
	if m.exportDir == "" {
		m.exportDir = "out"
	}
	if m.cellW <= 0 {
		m.cellW = DefaultCellWidth
	}
	if m.cellH <= 0 {
		m.cellH = DefaultCellHeight
	}
	m.refreshPreview()
	return m
}

// Run starts the full-screen editor and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	if opts.Controller == nil || opts.Compiler == nil {
		return fmt.Errorf("tui: controller and compiler are required")
	}
	p := tea.NewProgram(newModel(ctx, opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}

func (m *model) Init() tea.Cmd {
	return nil
}

// --- Layout ---

func (m *model) showPreview() bool {
	return m.width >= minPreviewTotal
}

func (m *model) grid() grid {
	cols := m.width
	if m.showPreview() {
		cols -= previewWidth
	}
	rows := max(m.height-headerHeight-footerHeight, 1)
	return grid{cols: max(cols, 1), rows: rows, cellW: m.cellW, cellH: m.cellH}
}

// canvasCell translates screen coordinates to a canvas cell.
func (m *model) canvasCell(x, y int) (col, row int, ok bool) {
	g := m.grid()
	row = y - headerHeight
	if x < 0 || x >= g.cols || row < 0 || row >= g.rows {
		return 0, 0, false
	}
	return x, row, true
}

// --- Update ---

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.form != nil {
			return m.updateForm(msg)
		}
		return m, m.handleMouse(msg)

	case exportedMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("export failed: %v", msg.err))
		} else {
			m.setStatus(fmt.Sprintf("exported %d files to %s", len(msg.paths), m.exportDir))
		}
		return m, nil

	case resetMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("reset failed: %v", msg.err))
		} else {
			m.setStatus("document cleared")
		}
		return m, nil
	}

	if m.form != nil {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Controller shortcuts come first; mode keys pass through to an open form.
	if m.ctrl.HandleKey(msg) {
		return m, m.sync()
	}
	if m.form != nil {
		return m.updateForm(msg)
	}

	if m.ctrl.Menu() != nil {
		switch {
		case key.Matches(msg, m.keys.MenuEdit):
			m.ctrl.Choose(editor.ActionEdit)
			return m, m.sync()
		case key.Matches(msg, m.keys.MenuDelete):
			m.ctrl.Choose(editor.ActionDelete)
			return m, m.sync()
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Export):
		return m, m.exportCmd()
	case key.Matches(msg, m.keys.Reset):
		err := m.ctrl.Reset(m.ctx)
		m.sync()
		return m, func() tea.Msg { return resetMsg{err: err} }
	}
	return m, nil
}

func (m *model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	col, row, ok := m.canvasCell(msg.X, msg.Y)
	if !ok {
		return nil
	}
	p := m.grid().point(col, row)

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.leftDown = true
			m.ctrl.PointerDown(p)
		case tea.MouseButtonRight:
			m.ctrl.ContextMenu(p)
		default:
			return nil
		}
	case tea.MouseActionMotion:
		if !m.leftDown {
			return nil
		}
		m.ctrl.PointerMove(p)
	case tea.MouseActionRelease:
		// Release events often carry no button; only finish a left press.
		if !m.leftDown {
			return nil
		}
		m.leftDown = false
		m.ctrl.PointerUp(p)
	}
	return m.sync()
}

// sync reconciles the surface with controller state after every event: it
// opens or drops the form for the current dialog and refreshes the preview.
func (m *model) sync() tea.Cmd {
	m.refreshPreview()
	d := m.ctrl.Dialog()
	if d == nil {
		m.form, m.nodeVals, m.linkVals, m.submitErr = nil, nil, nil, nil
		return nil
	}
	if m.form != nil {
		return nil
	}
	return m.openForm(d)
}

func (m *model) openForm(d *editor.Dialog) tea.Cmd {
	switch d.Kind {
	case editor.DialogEditLink:
		m.linkVals = &linkValues{From: d.Link.From, To: d.Link.To}
		m.form = linkForm(m.ctrl.Document(), m.linkVals)
	default:
		m.nodeVals = nodeValuesFrom(d.Spec)
		m.form = nodeForm(d, m.cat, m.nodeVals, m.submitErr)
	}
	return m.form.Init()
}

func (m *model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	f, cmd := m.form.Update(msg)
	if form, ok := f.(*huh.Form); ok {
		m.form = form
	}
	switch m.form.State {
	case huh.StateCompleted:
		return m, m.completeForm()
	case huh.StateAborted:
		m.ctrl.Cancel()
		return m, m.sync()
	}
	return m, cmd
}

// completeForm submits the finished form. A rejected node form is reopened
// with the error shown above its fields.
func (m *model) completeForm() tea.Cmd {
	d := m.ctrl.Dialog()
	if d == nil {
		return m.sync()
	}
	if d.Kind == editor.DialogEditLink {
		if !m.ctrl.SubmitLink(m.linkVals.From, m.linkVals.To) {
			m.setError("link unchanged: endpoints must be two different nodes not already linked")
		}
		return m.sync()
	}

	if err := m.ctrl.SubmitNode(m.nodeVals.spec()); err != nil {
		m.submitErr = err
		m.form = nil
		m.setError(err.Error())
		return m.sync()
	}
	m.submitErr = nil
	m.setStatus("saved")
	return m.sync()
}

func (m *model) refreshPreview() {
	a, err := m.comp.Compile(m.ctrl.Document())
	if err != nil {
		m.preview = errorStyle.Render(err.Error())
		m.log.Warn("preview compile failed", "error", err)
		return
	}
	m.preview = string(a.Manifest)
	m.warnings = len(a.Warnings)
}

func (m *model) exportCmd() tea.Cmd {
	doc := m.ctrl.Document()
	comp, dir, ctx := m.comp, m.exportDir, m.ctx
	return func() tea.Msg {
		a, err := comp.Compile(doc)
		if err != nil {
			return exportedMsg{err: err}
		}
		files := a.Files()
		snap, err := bundle.Snapshot(doc)
		if err != nil {
			return exportedMsg{err: err}
		}
		files[snap.Name] = snap.Content
		paths, err := bundle.WriteTree(ctx, dir, files)
		return exportedMsg{paths: paths, err: err}
	}
}

func (m *model) setStatus(s string) {
	m.status, m.statusIsError = s, false
}

func (m *model) setError(s string) {
	m.status, m.statusIsError = s, true
}

// --- View ---

func (m *model) View() string {
	if m.width == 0 {
		return "loading..."
	}
	g := m.grid()

	var body string
	if m.form != nil {
		body = lipgloss.Place(g.cols, g.rows, lipgloss.Center, lipgloss.Center, paneStyle.Render(m.form.View()))
	} else {
		body = drawTopology(m.ctrl.Document(), g, m.highlight())
	}
	if m.showPreview() {
		pane := paneStyle.Width(previewWidth - 4).Height(g.rows - 2).Render(clip(m.preview, g.rows-2))
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, pane)
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.header(), body, m.statusLine(), m.help.View(m.ctrl.KeyMap()))
}

func (m *model) header() string {
	mode := accentStyle.Render(m.ctrl.Mode().String() + " mode")
	doc := m.ctrl.Document()
	counts := mutedStyle.Render(fmt.Sprintf("%d nodes  %d links", len(doc.Nodes), len(doc.Links)))
	return titleStyle.Render("composer") + "  " + mode + "  " + counts
}

func (m *model) statusLine() string {
	if menu := m.ctrl.Menu(); menu != nil {
		what := "link"
		if menu.Target.Node != nil {
			what = "node " + nodeLabel(*menu.Target.Node)
		}
		return warningStyle.Render(what+":") + " e edit  d delete  esc close"
	}
	if id, ok := m.ctrl.Selected(); ok {
		if n, found := m.ctrl.Document().NodeByID(id); found {
			return accentStyle.Render("linking from " + nodeLabel(n) + ", click a target")
		}
	}
	if m.status != "" {
		if m.statusIsError {
			return errorStyle.Render(m.status)
		}
		return successStyle.Render(m.status)
	}
	if m.warnings > 0 {
		return warningStyle.Render(fmt.Sprintf("%d compile warnings", m.warnings))
	}
	return mutedStyle.Render("click empty canvas to add a node, right-click for actions")
}

func (m *model) highlight() highlight {
	h := highlight{selected: map[int64]bool{}, target: map[int64]bool{}}
	if id, ok := m.ctrl.Selected(); ok {
		h.selected[id] = true
	}
	if id, ok := m.ctrl.Dragging(); ok {
		h.selected[id] = true
	}
	if menu := m.ctrl.Menu(); menu != nil && menu.Target.Node != nil {
		h.target[menu.Target.Node.ID] = true
	}
	return h
}

// clip keeps the first n lines of s.
func clip(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if n > 0 && len(lines) > n {
		lines = append(lines[:n-1], "…")
	}
	return strings.Join(lines, "\n")
}
