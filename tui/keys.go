package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"go-livedeck/widgets"
)

type keyMap struct {
	Play       key.Binding
	Stop       key.Binding
	Drums      key.Binding
	Bass       key.Binding
	Preprocess key.Binding
	ProcPlay   key.Binding
	Save       key.Binding
	Load       key.Binding
	JSON       key.Binding
	VolUp      key.Binding
	VolDown    key.Binding
	Tracks     key.Binding
	Focus      key.Binding
	Blur       key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Play:       key.NewBinding(key.WithKeys("k", "K"), key.WithHelp("k", "play")),
		Stop:       key.NewBinding(key.WithKeys("l", "L"), key.WithHelp("l", "stop")),
		Drums:      key.NewBinding(key.WithKeys("h", "H"), key.WithHelp("h", "toggle drums1")),
		Bass:       key.NewBinding(key.WithKeys("j", "J"), key.WithHelp("j", "toggle bass")),
		Preprocess: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "preprocess")),
		ProcPlay:   key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "proc & play")),
		Save:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		Load:       key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "load")),
		JSON:       key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "saved JSON")),
		VolUp:      key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "volume up")),
		VolDown:    key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "volume down")),
		Tracks:     key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "toggle track")),
		Focus:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "edit code/cpm")),
		Blur:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "leave field")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Stop, k.Tracks, k.Focus, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.Stop, k.Preprocess, k.ProcPlay},
		{k.Drums, k.Bass, k.Tracks, k.VolUp, k.VolDown},
		{k.Save, k.Load, k.JSON},
		{k.Focus, k.Blur, k.Help, k.Quit},
	}
}

// sections groups the bindings for the expanded help panel.
func (k keyMap) sections() []widgets.KeySection {
	return []widgets.KeySection{
		{Title: "Transport", Keys: []key.Binding{k.Play, k.Stop, k.Preprocess, k.ProcPlay}},
		{Title: "Mix", Keys: []key.Binding{k.Drums, k.Bass, k.Tracks, k.VolUp, k.VolDown}},
		{Title: "Settings", Keys: []key.Binding{k.Save, k.Load, k.JSON}},
		{Title: "Editing", Keys: []key.Binding{k.Focus, k.Blur}},
	}
}
