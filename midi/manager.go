package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	"go-livedeck/config"
	"go-livedeck/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// DeviceEvent is emitted when controllers connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// Port is one visible input, with the output of the same name if any.
type Port struct {
	Name string
	In   drivers.In
	Out  drivers.Out
}

type opener func(kind ControllerType, p Port) (Controller, error)

// DeviceManager handles hot-plug detection of MIDI controllers
type DeviceManager struct {
	controllers map[string]Controller
	mu          sync.RWMutex
	events      chan DeviceEvent
	pollRate    time.Duration
	known       []config.ControllerConfig

	listPorts func() ([]Port, bool)
	open      opener
}

// NewDeviceManager watches for the auto-connect controllers in known. A
// Launchpad is recognised by name even when it is not configured.
func NewDeviceManager(known []config.ControllerConfig) *DeviceManager {
	return &DeviceManager{
		controllers: make(map[string]Controller),
		events:      make(chan DeviceEvent, 16),
		pollRate:    time.Second,
		known:       known,
		listPorts:   systemPorts,
		open:        openController,
	}
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Controllers returns a snapshot of connected controllers
func (dm *DeviceManager) Controllers() map[string]Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	out := make(map[string]Controller, len(dm.controllers))
	for k, v := range dm.controllers {
		out[k] = v
	}
	return out
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

// systemPorts lists ports with a timeout, since CoreMIDI can hang
func systemPorts() ([]Port, bool) {
	type portsResult struct {
		inPorts  []drivers.In
		outPorts []drivers.Out
	}

	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{inPorts: gomidi.GetInPorts(), outPorts: gomidi.GetOutPorts()}
	}()

	var res portsResult
	select {
	case res = <-ch:
	case <-time.After(3 * time.Second):
		debug.Log("midi", "port scan timed out")
		return nil, false
	}

	ports := make([]Port, 0, len(res.inPorts))
	for _, in := range res.inPorts {
		p := Port{Name: in.String(), In: in}
		for _, out := range res.outPorts {
			if strings.EqualFold(out.String(), p.Name) {
				p.Out = out
				break
			}
		}
		ports = append(ports, p)
	}
	return ports, true
}

func openController(kind ControllerType, p Port) (Controller, error) {
	if kind == ControllerLaunchpad {
		return NewLaunchpadController(p.Name, p.In, p.Out)
	}
	return NewKeyboardController(p.Name, p.In)
}

// Classify decides which controller type to open for a port name. Configured
// prefixes win; unconfigured Launchpads are picked up by name.
func Classify(name string, known []config.ControllerConfig) (ControllerType, bool) {
	lower := strings.ToLower(name)
	for _, c := range known {
		if !c.AutoConnect || c.PortName == "" {
			continue
		}
		if strings.HasPrefix(lower, strings.ToLower(c.PortName)) {
			switch c.Type {
			case config.ControllerLaunchpadX, config.ControllerGenericGrid:
				return ControllerLaunchpad, true
			default:
				return ControllerKeyboard, true
			}
		}
	}
	if isLaunchpad(lower) {
		return ControllerLaunchpad, true
	}
	return ControllerUnknown, false
}

func (dm *DeviceManager) scan() {
	ports, ok := dm.listPorts()
	if !ok {
		return
	}

	seenIDs := make(map[string]bool)
	for _, p := range ports {
		kind, ok := Classify(p.Name, dm.known)
		if !ok {
			continue
		}
		id := p.Name
		seenIDs[id] = true

		dm.mu.RLock()
		_, exists := dm.controllers[id]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		c, err := dm.open(kind, p)
		if err != nil {
			debug.Log("midi", "open %s failed: %v", id, err)
			continue
		}

		dm.mu.Lock()
		dm.controllers[id] = c
		dm.mu.Unlock()
		debug.Log("midi", "connected %s (%s)", id, kind)

		dm.events <- DeviceEvent{Type: DeviceConnected, Controller: c, ID: id}
	}

	dm.mu.Lock()
	var toRemove []string
	for id := range dm.controllers {
		if !seenIDs[id] {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		dm.controllers[id].Close()
		delete(dm.controllers, id)
		debug.Log("midi", "disconnected %s", id)
		dm.events <- DeviceEvent{Type: DeviceDisconnected, ID: id}
	}
	dm.mu.Unlock()
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]Controller)
}

func isLaunchpad(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "launchpad") && strings.Contains(name, "midi")
}

// Ports lists the system's MIDI inputs and outputs by name.
func Ports() (ins, outs []string) {
	for _, in := range gomidi.GetInPorts() {
		ins = append(ins, in.String())
	}
	for _, out := range gomidi.GetOutPorts() {
		outs = append(outs, out.String())
	}
	return ins, outs
}
