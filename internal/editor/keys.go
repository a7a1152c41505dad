package editor

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds the editor-wide shortcuts. They are matched before any
// focused widget sees the key.
type KeyMap struct {
	Undo     key.Binding
	Redo     key.Binding
	NodeMode key.Binding
	LinkMode key.Binding
	Cancel   key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Undo: key.NewBinding(
			key.WithKeys("ctrl+z"),
			key.WithHelp("ctrl+z", "undo"),
		),
		Redo: key.NewBinding(
			key.WithKeys("ctrl+y", "ctrl+shift+z"),
			key.WithHelp("ctrl+y", "redo"),
		),
		NodeMode: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "add nodes"),
		),
		LinkMode: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "add links"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NodeMode, k.LinkMode, k.Undo, k.Redo}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Cancel}}
}

// Keystroke is a key combination spelled the way bubbletea prints it, for
// callers that do not have a tea.KeyMsg.
type Keystroke string

func (k Keystroke) String() string { return string(k) }

// HandleKey applies a global shortcut. Mode keys are ignored while a dialog is
// open so they can be typed into form fields; undo and redo always apply.
// It reports whether the key was consumed.
func (c *Controller) HandleKey(k fmt.Stringer) bool {
	switch {
	case key.Matches(k, c.keys.Undo):
		c.Undo()
		return true
	case key.Matches(k, c.keys.Redo):
		c.Redo()
		return true
	case key.Matches(k, c.keys.Cancel):
		if c.dialog == nil && c.menu == nil && c.pending == nil {
			return false
		}
		c.Cancel()
		c.pending = nil
		return true
	}
	if c.dialog != nil {
		return false
	}
	switch {
	case key.Matches(k, c.keys.NodeMode):
		c.SetMode(ModeNode)
		return true
	case key.Matches(k, c.keys.LinkMode):
		c.SetMode(ModeLink)
		return true
	}
	return false
}
