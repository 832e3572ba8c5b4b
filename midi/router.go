package midi

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"go-livedeck/debug"
	"go-livedeck/settings"
	"go-livedeck/theme"
)

// LED refresh rate
const ledFPS = 30

// Actions is the part of the deck a controller can drive.
type Actions interface {
	Action(name string) error
	Settings() settings.Settings
	Playing() bool
}

// Launchpad layout. Row 7 is the top row of the 8x8 grid, col 8 the side
// column.
var padActions = map[[2]int]string{
	{6, 0}: "play",
	{6, 1}: "stop",
	{6, 2}: "preprocess",
	{6, 3}: "procplay",
	{5, 0}: "save",
	{5, 1}: "load",
	{7, 8}: "volup",
	{6, 8}: "voldown",
}

// volumeRow shows the volume as a bar across the bottom row
const volumeRow = 0

func init() {
	for i, t := range settings.Tracks() {
		padActions[[2]int{7, i}] = string(t)
	}
}

// PadAction returns the action bound to a grid pad.
func PadAction(row, col int) (string, bool) {
	a, ok := padActions[[2]int{row, col}]
	return a, ok
}

// LEDFrame renders the deck state as pad colours.
func LEDFrame(s settings.Settings, playing bool, th *theme.Theme) []LEDUpdate {
	color := func(role int) [3]uint8 { return [3]uint8(th.Palette.Index(role)) }
	var out []LEDUpdate
	set := func(row, col int, c [3]uint8, ch uint8) {
		out = append(out, LEDUpdate{Row: row, Col: col, Color: c, Channel: ch})
	}

	for i, t := range settings.Tracks() {
		if s.Track(t) {
			set(7, i, color(theme.RoleSuccess), ChannelStatic)
		} else {
			set(7, i, color(theme.RoleMuted), ChannelStatic)
		}
	}

	if playing {
		set(6, 0, color(theme.RoleAxis), ChannelPulse)
		set(6, 1, color(theme.RoleDim), ChannelStatic)
	} else {
		set(6, 0, color(theme.RoleDim), ChannelStatic)
		set(6, 1, color(theme.RoleLine), ChannelStatic)
	}
	set(6, 2, color(theme.RoleTitle), ChannelStatic)
	set(6, 3, color(theme.RoleCursor), ChannelStatic)
	set(5, 0, color(theme.RoleWarning), ChannelStatic)
	set(5, 1, color(theme.RoleWarning), ChannelStatic)
	set(7, 8, color(theme.RoleFG), ChannelStatic)
	set(6, 8, color(theme.RoleFG), ChannelStatic)

	lit := int(math.Round(s.Volume * 8))
	for col := 0; col < lit && col < 8; col++ {
		set(volumeRow, col, [3]uint8(th.RGB(float64(col)/7)), ChannelStatic)
	}
	return out
}

// Router turns pad presses and bound notes into deck actions and keeps the
// pad lights in sync with the deck.
type Router struct {
	actions  Actions
	bindings map[uint8]string
	theme    *theme.Theme

	mu          sync.Mutex
	controllers map[string]Controller
	prevLEDs    map[string]map[[2]int]LEDUpdate // per controller, for diffing
}

// NewRouter binds keyboard notes to action names.
func NewRouter(actions Actions, bindings map[uint8]string, th *theme.Theme) *Router {
	return &Router{
		actions:     actions,
		bindings:    bindings,
		theme:       th,
		controllers: make(map[string]Controller),
		prevLEDs:    make(map[string]map[[2]int]LEDUpdate),
	}
}

// Run follows device events and refreshes LEDs until ctx is done or events
// closes.
func (r *Router) Run(ctx context.Context, events <-chan DeviceEvent) {
	ticker := time.NewTicker(time.Second / ledFPS)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Type {
			case DeviceConnected:
				r.Attach(ev.Controller)
			case DeviceDisconnected:
				r.Detach(ev.ID)
			}
		case <-ticker.C:
			r.Flush()
		}
	}
}

// Attach starts forwarding a controller's input. The forwarders end when the
// controller closes its channels.
func (r *Router) Attach(c Controller) {
	r.mu.Lock()
	r.controllers[c.ID()] = c
	r.prevLEDs[c.ID()] = make(map[[2]int]LEDUpdate)
	r.mu.Unlock()

	go func() {
		for ev := range c.PadEvents() {
			r.HandlePad(ev)
		}
	}()
	go func() {
		for ev := range c.NoteEvents() {
			r.HandleNote(ev)
		}
	}()
}

func (r *Router) Detach(id string) {
	r.mu.Lock()
	delete(r.controllers, id)
	delete(r.prevLEDs, id)
	r.mu.Unlock()
}

func (r *Router) HandlePad(ev PadEvent) {
	if name, ok := PadAction(ev.Row, ev.Col); ok {
		r.run(name)
	}
}

func (r *Router) HandleNote(ev NoteEvent) {
	if name, ok := r.bindings[ev.Note]; ok {
		r.run(name)
	}
}

func (r *Router) run(name string) {
	// the deck reports failures itself
	if err := r.actions.Action(name); err != nil {
		debug.Log("midi", "action %s: %v", name, err)
	}
	r.Flush()
}

// Flush sends only changed LEDs to each controller (diffing + batching)
func (r *Router) Flush() {
	frame := LEDFrame(r.actions.Settings(), r.actions.Playing(), r.theme)

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, c := range r.controllers {
		prev := r.prevLEDs[id]
		next := make(map[[2]int]LEDUpdate, len(frame))
		var updates []LEDUpdate

		for _, led := range frame {
			key := [2]int{led.Row, led.Col}
			next[key] = led
			if old, ok := prev[key]; !ok || old != led {
				updates = append(updates, led)
			}
		}
		for key := range prev {
			if _, ok := next[key]; !ok {
				updates = append(updates, LEDUpdate{Row: key[0], Col: key[1]})
			}
		}

		if len(updates) > 0 {
			debug.Log("led", "flush %s: batch=%d prev=%d", id, len(updates), len(prev))
			if err := c.SetLEDBatch(updates); err != nil {
				debug.Log("led", "flush %s: %v", id, err)
			}
		}
		r.prevLEDs[id] = next
	}
}

// Connected lists the attached controllers, sorted by ID.
func (r *Router) Connected() []Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Controller, 0, len(r.controllers))
	for _, c := range r.controllers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Frame is the current LED frame, for on-screen mirrors.
func (r *Router) Frame() []LEDUpdate {
	return LEDFrame(r.actions.Settings(), r.actions.Playing(), r.theme)
}
