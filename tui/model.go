package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/harmonica"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-livedeck/deck"
	"go-livedeck/gain"
	"go-livedeck/graph"
	"go-livedeck/midi"
	"go-livedeck/settings"
	"go-livedeck/theme"
	"go-livedeck/widgets"
)

const frameRate = 30

const noJSON = "No JSON loaded yet"

type focus int

const (
	focusKeys focus = iota
	focusEditor
	focusCPM
)

// layoutBounds holds cached layout info
type layoutBounds struct {
	padsTop int
}

type Model struct {
	Deck    *deck.Deck
	Sampler *gain.Sampler
	Router  *midi.Router // nil without MIDI
	Theme   *theme.Theme

	keys   keyMap
	help   help.Model
	editor textarea.Model
	cpm    textinput.Model
	json   viewport.Model
	chart  *graph.Terminal

	focus    focus
	fullHelp bool
	quitting bool
	width    int
	tooltip  string
	bounds   *layoutBounds

	gains    []float64
	spring   harmonica.Spring
	level    float64
	levelVel float64
}

type UpdateMsg struct{}

type GainMsg struct{}

type frameMsg time.Time

func NewModel(d *deck.Deck, sampler *gain.Sampler, router *midi.Router, th *theme.Theme) Model {
	ed := textarea.New()
	ed.CharLimit = 1 << 20
	ed.MaxHeight = 1000
	ed.ShowLineNumbers = true
	ed.SetWidth(76)
	ed.SetHeight(12)
	ed.SetValue(d.Editor().Text())
	ed.Blur()

	cpm := textinput.New()
	cpm.Prompt = "cpm "
	cpm.CharLimit = 8
	cpm.Width = 8
	cpm.SetValue(settings.FormatNumber(d.Settings().CPM))

	vp := viewport.New(76, 8)

	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(th.FG())
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(th.Muted())

	return Model{
		Deck:    d,
		Sampler: sampler,
		Router:  router,
		Theme:   th,
		keys:    newKeyMap(),
		help:    h,
		editor:  ed,
		cpm:     cpm,
		json:    vp,
		chart:   graph.NewTerminal(76, 10),
		width:   80,
		bounds:  &layoutBounds{},
		spring:  harmonica.NewSpring(harmonica.FPS(frameRate), 6.0, 1.0),
	}
}

func ListenForUpdates(d *deck.Deck) tea.Cmd {
	return func() tea.Msg {
		<-d.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForGain(s *gain.Sampler) tea.Cmd {
	return func() tea.Msg {
		<-s.Updates()
		return GainMsg{}
	}
}

func nextFrame() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForUpdates(m.Deck), nextFrame()}
	if m.Sampler != nil {
		cmds = append(cmds, ListenForGain(m.Sampler))
	}
	return tea.Batch(cmds...)
}

// setFocus moves keyboard focus. Leaving the CPM field commits its value.
func (m Model) setFocus(f focus) (Model, tea.Cmd) {
	switch m.focus {
	case focusEditor:
		m.editor.Blur()
	case focusCPM:
		m.cpm.Blur()
		cpm, _ := m.Deck.CommitCPM(m.cpm.Value())
		m.cpm.SetValue(settings.FormatNumber(cpm))
	}

	m.focus = f
	var cmd tea.Cmd
	switch f {
	case focusEditor:
		cmd = m.editor.Focus()
	case focusCPM:
		cmd = m.cpm.Focus()
	}
	return m, cmd
}

// sync refreshes widgets that mirror deck state
func (m *Model) sync() {
	if m.focus != focusCPM {
		m.cpm.SetValue(settings.FormatNumber(m.Deck.Settings().CPM))
	}
	if js, ok := m.Deck.LoadedJSON(); ok {
		m.json.SetContent(js)
	} else {
		m.json.SetContent(noJSON)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		w := max(msg.Width-4, 20)
		m.editor.SetWidth(w)
		m.json.Width = w
		m.chart.Resize(w, 10)
		m.help.Width = w
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.focus {
		case focusEditor:
			return m.updateEditor(msg)
		case focusCPM:
			return m.updateCPM(msg)
		}
		return m.updateKeys(msg)

	case tea.MouseMsg:
		m.tooltip = ""
		if msg.Y != m.bounds.padsTop {
			return m, nil
		}
		for i, span := range widgets.TrackPadSpans() {
			if msg.X < span[0] || msg.X >= span[1] {
				continue
			}
			t := settings.Tracks()[i]
			if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
				_ = m.Deck.ToggleTrack(string(t))
			} else {
				m.tooltip = "click to toggle " + widgets.TrackLabel(t)
			}
		}
		return m, nil

	case UpdateMsg:
		m.sync()
		return m, ListenForUpdates(m.Deck)

	case GainMsg:
		m.gains = m.Sampler.Snapshot()
		return m, ListenForGain(m.Sampler)

	case frameMsg:
		target := 0.0
		if n := len(m.gains); n > 0 {
			target = m.gains[n-1]
		}
		m.level, m.levelVel = m.spring.Update(m.level, m.levelVel, target)
		return m, nextFrame()
	}

	return m, nil
}

func (m Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		return m.setFocus(focusCPM)
	case "esc":
		return m.setFocus(focusKeys)
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	m.Deck.Editor().SetText(m.editor.Value())
	return m, cmd
}

func (m Model) updateCPM(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "enter", "esc":
		return m.setFocus(focusKeys)
	}
	var cmd tea.Cmd
	m.cpm, cmd = m.cpm.Update(msg)
	return m, cmd
}

// updateKeys handles shortcuts while no text field has focus
func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.Deck
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Focus):
		return m.setFocus(focusEditor)
	case key.Matches(msg, m.keys.Help):
		m.fullHelp = !m.fullHelp
	case key.Matches(msg, m.keys.Play):
		_ = d.Play()
	case key.Matches(msg, m.keys.Stop):
		_ = d.Stop()
	case key.Matches(msg, m.keys.Drums):
		_ = d.ToggleTrack(string(settings.Drums1))
	case key.Matches(msg, m.keys.Bass):
		_ = d.ToggleTrack(string(settings.Bass))
	case key.Matches(msg, m.keys.Preprocess):
		_ = d.Preprocess()
	case key.Matches(msg, m.keys.ProcPlay):
		_ = d.ProcPlay()
	case key.Matches(msg, m.keys.Save):
		_ = d.Save()
	case key.Matches(msg, m.keys.Load):
		_ = d.Load()
	case key.Matches(msg, m.keys.JSON):
		d.ToggleJSON()
	case key.Matches(msg, m.keys.VolUp):
		_ = d.NudgeVolume(deck.VolumeStep)
	case key.Matches(msg, m.keys.VolDown):
		_ = d.NudgeVolume(-deck.VolumeStep)
	case key.Matches(msg, m.keys.Tracks):
		idx := int(msg.String()[0] - '1')
		_ = d.ToggleTrack(string(settings.Tracks()[idx]))
	}
	m.sync()
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	th := m.Theme
	s := m.Deck.Settings()

	titleStyle := lipgloss.NewStyle().Foreground(th.Title()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())
	labelStyle := lipgloss.NewStyle().Foreground(th.FG())
	tooltipStyle := lipgloss.NewStyle().
		Foreground(th.FG()).
		Background(th.Muted()).
		Padding(0, 1)

	barWidth := max(m.width-12, 10)
	if barWidth > 40 {
		barWidth = 40
	}

	header := titleStyle.Render(graph.Title)
	if m.Router != nil {
		for _, c := range m.Router.Connected() {
			header += dimStyle.Render(fmt.Sprintf("  [%s: %s]", c.Type(), c.ID()))
		}
	}

	var out strings.Builder
	line := func(s string) {
		out.WriteString(s)
		out.WriteString("\n")
	}

	line("")
	line(header)
	line(widgets.RenderStatus(m.Deck.Playing(), s, m.Deck.Clock(), th))
	line("")
	m.bounds.padsTop = strings.Count(out.String(), "\n")
	line(widgets.RenderTrackPads(s, -1, th))
	line(labelStyle.Render("vol   ") + widgets.RenderBar(s.Volume, barWidth, th))
	line(labelStyle.Render("level ") + widgets.RenderBar(m.level, barWidth, th))
	line("")

	if chart := m.chart.Render(m.gains); chart != "" {
		line(chart)
	} else {
		line(dimStyle.Render("waiting for gain data..."))
	}
	line("")

	if m.Deck.ShowJSON() {
		line(labelStyle.Render("saved settings"))
		line(m.json.View())
	} else {
		line(m.editor.View())
	}
	line(m.cpm.View())

	if n, ok := m.Deck.Notices().Current(); ok {
		line(widgets.RenderNotice(n, ok, th))
	}

	if m.Router != nil && len(m.Router.Connected()) > 0 {
		line("")
		line(padMirror(m.Router.Frame()))
	}

	line("")
	if m.fullHelp {
		line(dimStyle.Render(widgets.RenderKeyHelp(m.keys.sections())))
	}
	out.WriteString(m.help.View(m.keys))

	if m.tooltip != "" {
		out.WriteString("\n")
		out.WriteString(tooltipStyle.Render(m.tooltip))
	}

	return out.String()
}

// padMirror draws the Launchpad lights as they should currently be.
func padMirror(frame []midi.LEDUpdate) string {
	var grid [8][8][3]uint8
	var side [8][3]uint8
	for _, u := range frame {
		if u.Row < 0 || u.Row > 7 {
			continue
		}
		if u.Col == 8 {
			side[u.Row] = u.Color
		} else if u.Col >= 0 && u.Col < 8 {
			grid[u.Row][u.Col] = u.Color
		}
	}
	return widgets.RenderPadGrid(grid, &side)
}
