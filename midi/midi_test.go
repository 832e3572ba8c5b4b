package midi

import (
	"errors"
	"sync"
	"testing"

	"go-livedeck/config"
	"go-livedeck/settings"
	"go-livedeck/theme"
)

func TestNoteMapping(t *testing.T) {
	t.Parallel()

	for row := 0; row < 8; row++ {
		for col := 0; col < 9; col++ {
			n := rowColToNote(row, col)
			r, c := noteToRowCol(n)
			if r != row || c != col {
				t.Fatalf("(%d,%d) -> %d -> (%d,%d)", row, col, n, r, c)
			}
		}
	}
	if r, c := noteToRowCol(95); r != 8 || c != 4 {
		t.Fatalf("top row note 95 = (%d,%d)", r, c)
	}
	if r, _ := noteToRowCol(5); r != -1 {
		t.Fatalf("note 5 should be off-grid")
	}
	if r, c := ccToRowCol(91); r != 8 || c != 0 {
		t.Fatalf("cc 91 = (%d,%d)", r, c)
	}
}

func TestNearestPaletteColor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rgb  [3]uint8
		want uint8
	}{
		{[3]uint8{0, 0, 0}, 0},
		{[3]uint8{255, 0, 0}, 5},
		{[3]uint8{250, 250, 250}, 119},
		{[3]uint8{0, 250, 10}, 21},
	}
	for _, tt := range tests {
		if got := nearestPaletteColor(tt.rgb); got != tt.want {
			t.Errorf("nearestPaletteColor(%v) = %d, want %d", tt.rgb, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	known := []config.ControllerConfig{
		{PortName: "Launchpad X", Type: config.ControllerLaunchpadX, AutoConnect: true},
		{PortName: "KeyStep", Type: config.ControllerKeyboard, AutoConnect: true},
		{PortName: "Ignored", Type: config.ControllerKeyboard, AutoConnect: false},
	}
	tests := []struct {
		name string
		want ControllerType
		ok   bool
	}{
		{"Launchpad X LPX MIDI", ControllerLaunchpad, true},
		{"keystep 37", ControllerKeyboard, true},
		{"Ignored Synth", ControllerUnknown, false},
		{"Launchpad Mini MIDI", ControllerLaunchpad, true},
		{"IAC Driver Bus 1", ControllerUnknown, false},
	}
	for _, tt := range tests {
		got, ok := Classify(tt.name, known)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Classify(%q) = %v, %v; want %v, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

type fakeController struct {
	id    string
	pads  chan PadEvent
	notes chan NoteEvent

	mu      sync.Mutex
	batches [][]LEDUpdate
	closed  bool
}

func newFakeController(id string) *fakeController {
	return &fakeController{id: id, pads: make(chan PadEvent), notes: make(chan NoteEvent)}
}

func (f *fakeController) ID() string                   { return f.id }
func (f *fakeController) Type() ControllerType         { return ControllerLaunchpad }
func (f *fakeController) PadEvents() <-chan PadEvent   { return f.pads }
func (f *fakeController) NoteEvents() <-chan NoteEvent { return f.notes }

func (f *fakeController) SetLEDBatch(updates []LEDUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]LEDUpdate(nil), updates...))
	return nil
}

func (f *fakeController) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.pads)
		close(f.notes)
	}
	return nil
}

func (f *fakeController) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

type fakeActions struct {
	mu      sync.Mutex
	s       settings.Settings
	playing bool
	ran     []string
}

func (a *fakeActions) Action(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ran = append(a.ran, name)
	switch name {
	case "play":
		a.playing = true
	case "stop":
		a.playing = false
	default:
		t, err := settings.ParseTrack(name)
		if err != nil {
			return err
		}
		a.s.Toggle(t)
	}
	return nil
}

func (a *fakeActions) Settings() settings.Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.s
}

func (a *fakeActions) Playing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.playing
}

func findLED(frame []LEDUpdate, row, col int) (LEDUpdate, bool) {
	for _, u := range frame {
		if u.Row == row && u.Col == col {
			return u, true
		}
	}
	return LEDUpdate{}, false
}

func TestLEDFrame(t *testing.T) {
	t.Parallel()

	th := theme.New(theme.Midnight())
	s := settings.Default()
	s.SetTrack(settings.Bass, false)
	s.SetVolume(0.5)

	frame := LEDFrame(s, true, th)

	bass, _ := findLED(frame, 7, 0)
	melody, _ := findLED(frame, 7, 1)
	if bass.Color == melody.Color {
		t.Fatalf("muted and audible tracks share a colour: %v", bass.Color)
	}
	if play, _ := findLED(frame, 6, 0); play.Channel != ChannelPulse {
		t.Fatalf("play pad should pulse while playing")
	}

	lit := 0
	for _, u := range frame {
		if u.Row == volumeRow && u.Col < 8 {
			lit++
		}
	}
	if lit != 4 {
		t.Fatalf("volume 0.5 lit %d pads, want 4", lit)
	}
}

func TestPadAction(t *testing.T) {
	t.Parallel()

	if a, ok := PadAction(7, 3); !ok || a != "drums1" {
		t.Fatalf("PadAction(7,3) = %q, %v", a, ok)
	}
	if a, ok := PadAction(6, 0); !ok || a != "play" {
		t.Fatalf("PadAction(6,0) = %q, %v", a, ok)
	}
	if _, ok := PadAction(2, 2); ok {
		t.Fatalf("unbound pad reported an action")
	}
}

func TestRouterHandlesInput(t *testing.T) {
	t.Parallel()

	acts := &fakeActions{s: settings.Default()}
	r := NewRouter(acts, map[uint8]string{36: "play", 40: "nope"}, theme.New(theme.Midnight()))

	r.HandleNote(NoteEvent{Note: 36, Velocity: 100})
	r.HandleNote(NoteEvent{Note: 37, Velocity: 100})
	r.HandleNote(NoteEvent{Note: 40, Velocity: 100})
	r.HandlePad(PadEvent{Row: 7, Col: 1, Velocity: 127})

	if !acts.Playing() {
		t.Fatalf("note 36 should start playback")
	}
	if acts.Settings().Melody {
		t.Fatalf("pad (7,1) should mute melody")
	}
	if len(acts.ran) != 3 {
		t.Fatalf("ran %v", acts.ran)
	}
	if !errors.Is(acts.Action("nope"), settings.ErrUnknownTrack) {
		t.Fatalf("fake should reject unknown names")
	}
}

func TestRouterFlushSendsOnlyChanges(t *testing.T) {
	t.Parallel()

	acts := &fakeActions{s: settings.Default()}
	r := NewRouter(acts, nil, theme.New(theme.Midnight()))
	c := newFakeController("lp")
	r.Attach(c)
	defer c.Close()

	r.Flush()
	if c.batchCount() != 1 {
		t.Fatalf("first flush sent %d batches", c.batchCount())
	}
	r.Flush()
	if c.batchCount() != 1 {
		t.Fatalf("unchanged frame was resent")
	}

	_ = acts.Action("bass")
	r.Flush()
	if c.batchCount() != 2 {
		t.Fatalf("change was not sent")
	}
	c.mu.Lock()
	last := c.batches[1]
	c.mu.Unlock()
	if len(last) != 1 || last[0].Row != 7 || last[0].Col != 0 {
		t.Fatalf("diff batch: %+v", last)
	}

	// lowering the volume clears pads on the volume row
	acts.mu.Lock()
	acts.s.SetVolume(0.25)
	acts.mu.Unlock()
	r.Flush()
	c.mu.Lock()
	last = c.batches[len(c.batches)-1]
	c.mu.Unlock()
	for _, u := range last {
		if u.Row != volumeRow || u.Color != [3]uint8{} {
			t.Fatalf("expected only cleared volume pads, got %+v", u)
		}
	}
	if len(last) != 4 {
		t.Fatalf("cleared %d pads, want 4", len(last))
	}

	r.Detach("lp")
	_ = acts.Action("bass")
	r.Flush()
	if c.batchCount() != 3 {
		t.Fatalf("detached controller still receives LEDs")
	}
}

func TestDeviceManagerScan(t *testing.T) {
	t.Parallel()

	known := []config.ControllerConfig{{PortName: "KeyStep", Type: config.ControllerKeyboard, AutoConnect: true}}
	dm := NewDeviceManager(known)

	ports := []Port{{Name: "KeyStep 37"}, {Name: "Through"}}
	dm.listPorts = func() ([]Port, bool) { return ports, true }
	opened := map[string]*fakeController{}
	dm.open = func(kind ControllerType, p Port) (Controller, error) {
		if kind != ControllerKeyboard {
			t.Errorf("opened %s as %v", p.Name, kind)
		}
		c := newFakeController(p.Name)
		opened[p.Name] = c
		return c, nil
	}

	dm.scan()
	if ev := <-dm.Events(); ev.Type != DeviceConnected || ev.ID != "KeyStep 37" {
		t.Fatalf("connect event: %+v", ev)
	}
	dm.scan()
	if len(opened) != 1 || len(dm.Controllers()) != 1 {
		t.Fatalf("rescan reopened: %v", opened)
	}

	ports = nil
	dm.scan()
	if ev := <-dm.Events(); ev.Type != DeviceDisconnected || ev.ID != "KeyStep 37" {
		t.Fatalf("disconnect event: %+v", ev)
	}
	if !opened["KeyStep 37"].closed {
		t.Fatalf("disconnected controller was not closed")
	}
}
