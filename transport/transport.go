// Package transport drives the external engine: it pushes pattern text,
// starts and stops evaluation and hot-patches the running pattern when the
// controls change.
package transport

import (
	"fmt"
	"sync"

	"go-livedeck/debug"
	"go-livedeck/preprocess"
	"go-livedeck/settings"
)

// Player is the external pattern engine.
type Player interface {
	SetCode(code string) error
	Evaluate() error
	Stop() error
	// CurrentTime is the engine clock in seconds.
	CurrentTime() float64
}

// State is the playback state.
type State int

const (
	Stopped State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "stopped"
}

// Editor holds the raw template text being edited. It is owned by whoever
// creates it and shared explicitly with the controller.
type Editor struct {
	mu   sync.RWMutex
	text string
}

func NewEditor(text string) *Editor {
	return &Editor{text: text}
}

func (e *Editor) Text() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.text
}

func (e *Editor) SetText(text string) {
	e.mu.Lock()
	e.text = text
	e.mu.Unlock()
}

// Controller is a two-state machine over a Player.
type Controller struct {
	player      Player
	editor      *Editor
	proc        *preprocess.Processor
	expressions bool

	mu    sync.Mutex
	state State
	last  string // last text pushed to the player
}

// New returns a stopped controller.
func New(player Player, editor *Editor, proc *preprocess.Processor) *Controller {
	if proc == nil {
		proc = preprocess.New("")
	}
	return &Controller{player: player, editor: editor, proc: proc}
}

// SetExpressions enables the {{ }} expression stage after placeholder
// substitution.
func (c *Controller) SetExpressions(on bool) {
	c.mu.Lock()
	c.expressions = on
	c.mu.Unlock()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Playing() bool {
	return c.State() == Playing
}

// LastCode returns the text most recently accepted by the player.
func (c *Controller) LastCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Processed renders the editor text with s.
func (c *Controller) Processed(s settings.Settings) (string, error) {
	c.mu.Lock()
	expr := c.expressions
	c.mu.Unlock()
	return c.proc.Render(c.editor.Text(), s, expr)
}

// must hold c.mu
func (c *Controller) push(code string) error {
	if err := c.player.SetCode(code); err != nil {
		return fmt.Errorf("set code: %w", err)
	}
	c.last = code
	return nil
}

// must hold c.mu
func (c *Controller) pushAndEvaluate(s settings.Settings) error {
	code, err := c.proc.Render(c.editor.Text(), s, c.expressions)
	if err != nil {
		return err
	}
	if err := c.push(code); err != nil {
		return err
	}
	if err := c.player.Evaluate(); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	return nil
}

// Start pushes the processed text, evaluates it and enters Playing. Starting
// while playing re-evaluates. On error the state is unchanged.
func (c *Controller) Start(s settings.Settings) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.pushAndEvaluate(s); err != nil {
		debug.Log("transport", "start failed: %v", err)
		return err
	}
	debug.Log("transport", "%s -> playing", c.state)
	c.state = Playing
	return nil
}

// ProcessThenPlay is the process-and-play action. It shares Start's
// semantics.
func (c *Controller) ProcessThenPlay(s settings.Settings) error {
	return c.Start(s)
}

// Stop halts the player and enters Stopped.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.player.Stop(); err != nil {
		debug.Log("transport", "stop failed: %v", err)
		return fmt.Errorf("stop: %w", err)
	}
	debug.Log("transport", "%s -> stopped", c.state)
	c.state = Stopped
	return nil
}

// ApplyRaw pushes the editor text without substitution or evaluation.
func (c *Controller) ApplyRaw() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.push(c.editor.Text())
}

// ConfigChanged hot-patches the running pattern with s. While stopped it does
// nothing. It reports whether the player was patched.
func (c *Controller) ConfigChanged(s settings.Settings) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Playing {
		return false, nil
	}
	if err := c.pushAndEvaluate(s); err != nil {
		debug.Log("transport", "hot patch failed: %v", err)
		return false, err
	}
	debug.Log("transport", "hot patched")
	return true, nil
}

// CurrentTime is the player clock.
func (c *Controller) CurrentTime() float64 {
	return c.player.CurrentTime()
}
