// Package deck is the application core shared by the TUI and the MIDI
// controllers: it owns the live settings and routes every action through the
// transport and the settings store.
package deck

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"go-livedeck/debug"
	"go-livedeck/settings"
	"go-livedeck/transport"
)

//go:embed default.tune
var DefaultTune string

// Notice texts.
const (
	MsgSaved      = "Settings saved!"
	MsgLoaded     = "Settings loaded."
	MsgNotFound   = "No saved settings found."
	MsgCPMInvalid = "Enter CPM value between 60 and 200"
)

// VolumeStep is the NudgeVolume increment used by the arrow keys.
const VolumeStep = 0.05

type Deck struct {
	store   *settings.Store
	ctrl    *transport.Controller
	editor  *transport.Editor
	notices *Notices

	// order serializes changes with the code they push to the engine
	order sync.Mutex

	mu        sync.Mutex
	settings  settings.Settings
	loaded    settings.Patch
	hasLoaded bool
	showJSON  bool

	// UpdateChan signals that deck state changed outside the UI goroutine
	UpdateChan chan struct{}
}

// New returns a deck with default settings.
func New(store *settings.Store, ctrl *transport.Controller, editor *transport.Editor) *Deck {
	return &Deck{
		store:      store,
		ctrl:       ctrl,
		editor:     editor,
		notices:    NewNotices(),
		settings:   settings.Default(),
		UpdateChan: make(chan struct{}, 1),
	}
}

func (d *Deck) changed() {
	select {
	case d.UpdateChan <- struct{}{}:
	default:
	}
}

func (d *Deck) Notices() *Notices { return d.notices }

func (d *Deck) Editor() *transport.Editor { return d.editor }

func (d *Deck) Settings() settings.Settings {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settings
}

func (d *Deck) Playing() bool { return d.ctrl.Playing() }

// Clock is the engine time in seconds.
func (d *Deck) Clock() float64 { return d.ctrl.CurrentTime() }

func (d *Deck) fail(action string, err error) error {
	debug.Log("deck", "%s: %v", action, err)
	d.notices.Post(fmt.Sprintf("%s failed: %v", action, err), Error, 0)
	d.changed()
	return err
}

func (d *Deck) Play() error {
	d.order.Lock()
	defer d.order.Unlock()
	if err := d.ctrl.Start(d.Settings()); err != nil {
		return d.fail("Play", err)
	}
	d.changed()
	return nil
}

func (d *Deck) Stop() error {
	if err := d.ctrl.Stop(); err != nil {
		return d.fail("Stop", err)
	}
	d.changed()
	return nil
}

// Preprocess sends the editor text to the engine as written, without
// substituting placeholders or evaluating.
func (d *Deck) Preprocess() error {
	if err := d.ctrl.ApplyRaw(); err != nil {
		return d.fail("Preprocess", err)
	}
	d.changed()
	return nil
}

// ProcPlay substitutes placeholders and starts playback.
func (d *Deck) ProcPlay() error {
	d.order.Lock()
	defer d.order.Unlock()
	if err := d.ctrl.ProcessThenPlay(d.Settings()); err != nil {
		return d.fail("Proc & Play", err)
	}
	d.changed()
	return nil
}

// mutate applies fn to the live settings and hot-patches the engine if it is
// playing. The engine always ends up with the latest settings.
func (d *Deck) mutate(fn func(s *settings.Settings)) error {
	d.order.Lock()
	defer d.order.Unlock()

	d.mu.Lock()
	fn(&d.settings)
	snapshot := d.settings
	d.mu.Unlock()

	defer d.changed()
	if _, err := d.ctrl.ConfigChanged(snapshot); err != nil {
		return d.fail("Update", err)
	}
	return nil
}

// ToggleTrack flips the named track.
func (d *Deck) ToggleTrack(name string) error {
	t, err := settings.ParseTrack(name)
	if err != nil {
		d.notices.Post(err.Error(), Warning, 0)
		return err
	}
	return d.mutate(func(s *settings.Settings) { s.Toggle(t) })
}

func (d *Deck) SetVolume(v float64) error {
	return d.mutate(func(s *settings.Settings) { s.SetVolume(v) })
}

func (d *Deck) NudgeVolume(delta float64) error {
	return d.mutate(func(s *settings.Settings) { s.SetVolume(s.Volume + delta) })
}

// CommitCPM validates tempo text from the CPM field. Invalid input resets the
// tempo to the default and posts a warning. It returns the stored tempo and
// whether the input was accepted.
func (d *Deck) CommitCPM(text string) (float64, bool) {
	cpm, err := settings.ParseCPM(text)
	ok := err == nil
	if !ok {
		cpm = settings.DefaultCPM
		d.notices.Post(MsgCPMInvalid, Warning, 0)
	}
	_ = d.mutate(func(s *settings.Settings) { s.CPM = cpm })
	return cpm, ok
}

func (d *Deck) Save() error {
	if err := d.store.Save(d.Settings()); err != nil {
		return d.fail("Save", err)
	}
	d.notices.Post(MsgSaved, Info, 0)
	d.changed()
	return nil
}

// Load applies the saved settings. Fields missing from the saved blob keep
// their current values. With nothing saved the settings are left alone. A
// saved tempo out of range loads as the default with a warning.
func (d *Deck) Load() error {
	p, err := d.store.Load()
	if errors.Is(err, settings.ErrNotFound) {
		d.notices.Post(MsgNotFound, Warning, 0)
		d.changed()
		return nil
	}
	if err != nil {
		return d.fail("Load", err)
	}

	d.mu.Lock()
	d.loaded, d.hasLoaded = p, true
	d.mu.Unlock()

	cpmOK := true
	err = d.mutate(func(s *settings.Settings) { cpmOK = s.Apply(p) })
	if err != nil {
		return err
	}
	if cpmOK {
		d.notices.Post(MsgLoaded, Info, 0)
	} else {
		d.notices.Post(MsgCPMInvalid, Warning, 0)
	}
	d.changed()
	return nil
}

// LoadedJSON returns the last loaded blob, pretty printed.
func (d *Deck) LoadedJSON() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.hasLoaded {
		return "", false
	}
	return d.loaded.JSON(), true
}

// ToggleJSON flips the JSON preview and returns whether it is now shown.
func (d *Deck) ToggleJSON() bool {
	d.mu.Lock()
	d.showJSON = !d.showJSON
	on := d.showJSON
	d.mu.Unlock()
	d.changed()
	return on
}

func (d *Deck) ShowJSON() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.showJSON
}

// Action runs a named action, as bound to MIDI notes. Track names toggle the
// track.
func (d *Deck) Action(name string) error {
	switch name {
	case "play":
		return d.Play()
	case "stop":
		return d.Stop()
	case "preprocess":
		return d.Preprocess()
	case "procplay":
		return d.ProcPlay()
	case "save":
		return d.Save()
	case "load":
		return d.Load()
	case "volup":
		return d.NudgeVolume(VolumeStep)
	case "voldown":
		return d.NudgeVolume(-VolumeStep)
	}
	return d.ToggleTrack(name)
}
