package transport

import (
	"errors"
	"reflect"
	"testing"

	"go-livedeck/preprocess"
	"go-livedeck/settings"
)

type fakePlayer struct {
	calls   []string
	code    string
	failOn  string
	elapsed float64
}

func (p *fakePlayer) fail(op string) error {
	if p.failOn == op {
		return errors.New(op + " exploded")
	}
	return nil
}

func (p *fakePlayer) SetCode(code string) error {
	if err := p.fail("setCode"); err != nil {
		return err
	}
	p.calls = append(p.calls, "setCode")
	p.code = code
	return nil
}

func (p *fakePlayer) Evaluate() error {
	if err := p.fail("evaluate"); err != nil {
		return err
	}
	p.calls = append(p.calls, "evaluate")
	return nil
}

func (p *fakePlayer) Stop() error {
	if err := p.fail("stop"); err != nil {
		return err
	}
	p.calls = append(p.calls, "stop")
	return nil
}

func (p *fakePlayer) CurrentTime() float64 { return p.elapsed }

const tmpl = "setcpm(<cpm>)\n<bass>bass: s(\"bd\").gain(<volume>)"

func newController() (*Controller, *fakePlayer, *Editor) {
	p := &fakePlayer{}
	ed := NewEditor(tmpl)
	return New(p, ed, preprocess.New("_")), p, ed
}

func TestInitialState(t *testing.T) {
	t.Parallel()

	c, p, _ := newController()
	if c.State() != Stopped || c.Playing() {
		t.Fatalf("initial state: %v", c.State())
	}
	if len(p.calls) != 0 {
		t.Fatalf("constructor touched the player: %v", p.calls)
	}
}

func TestStartPushesProcessedTextThenEvaluates(t *testing.T) {
	t.Parallel()

	c, p, _ := newController()
	s := settings.Default()
	s.Bass = false
	if err := c.Start(s); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !reflect.DeepEqual(p.calls, []string{"setCode", "evaluate"}) {
		t.Fatalf("calls: %v", p.calls)
	}
	want := "setcpm(120)\n_bass: s(\"bd\").gain(0.8)"
	if p.code != want || c.LastCode() != want {
		t.Fatalf("code: %q", p.code)
	}
	if !c.Playing() {
		t.Fatalf("expected playing")
	}

	// start while playing re-evaluates and stays playing
	if err := c.ProcessThenPlay(s); err != nil {
		t.Fatalf("ProcessThenPlay: %v", err)
	}
	if len(p.calls) != 4 || !c.Playing() {
		t.Fatalf("restart: calls=%v state=%v", p.calls, c.State())
	}
}

func TestStop(t *testing.T) {
	t.Parallel()

	c, p, _ := newController()
	_ = c.Start(settings.Default())
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if c.State() != Stopped || p.calls[len(p.calls)-1] != "stop" {
		t.Fatalf("after stop: state=%v calls=%v", c.State(), p.calls)
	}
}

func TestApplyRawSkipsSubstitutionAndEvaluation(t *testing.T) {
	t.Parallel()

	c, p, _ := newController()
	if err := c.ApplyRaw(); err != nil {
		t.Fatalf("ApplyRaw: %v", err)
	}
	if p.code != tmpl || !reflect.DeepEqual(p.calls, []string{"setCode"}) {
		t.Fatalf("ApplyRaw: code=%q calls=%v", p.code, p.calls)
	}
	if c.Playing() {
		t.Fatalf("ApplyRaw must not change state")
	}
}

func TestConfigChangedOnlyWhilePlaying(t *testing.T) {
	t.Parallel()

	c, p, ed := newController()
	s := settings.Default()

	patched, err := c.ConfigChanged(s)
	if err != nil || patched || len(p.calls) != 0 {
		t.Fatalf("stopped: patched=%v err=%v calls=%v", patched, err, p.calls)
	}

	_ = c.Start(s)
	s.CPM = 90
	ed.SetText("setcpm(<cpm>)")
	patched, err = c.ConfigChanged(s)
	if err != nil || !patched {
		t.Fatalf("playing: patched=%v err=%v", patched, err)
	}
	if p.code != "setcpm(90)" || p.calls[len(p.calls)-1] != "evaluate" {
		t.Fatalf("hot patch: code=%q calls=%v", p.code, p.calls)
	}

	_ = c.Stop()
	n := len(p.calls)
	if patched, _ := c.ConfigChanged(s); patched || len(p.calls) != n {
		t.Fatalf("changes after stop must not reach the player")
	}
}

func TestFailuresKeepState(t *testing.T) {
	t.Parallel()

	c, p, _ := newController()
	p.failOn = "evaluate"
	if err := c.Start(settings.Default()); err == nil {
		t.Fatalf("expected start error")
	}
	if c.Playing() {
		t.Fatalf("failed start must stay stopped")
	}

	p.failOn = ""
	_ = c.Start(settings.Default())
	p.failOn = "stop"
	err := c.Stop()
	if err == nil || !c.Playing() {
		t.Fatalf("failed stop: err=%v state=%v", err, c.State())
	}

	p.failOn = "setCode"
	if patched, err := c.ConfigChanged(settings.Default()); err == nil || patched {
		t.Fatalf("failed hot patch: patched=%v err=%v", patched, err)
	}
	if !c.Playing() {
		t.Fatalf("failed hot patch must keep playing")
	}
}

func TestExpressions(t *testing.T) {
	t.Parallel()

	p := &fakePlayer{}
	c := New(p, NewEditor("setcpm({{ .CPM }}) <cpm>"), nil)
	c.SetExpressions(true)
	if err := c.Start(settings.Default()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if p.code != "setcpm(120) 120" {
		t.Fatalf("code: %q", p.code)
	}

	c.editor.SetText("{{ .Missing }}")
	if err := c.Start(settings.Default()); err == nil {
		t.Fatalf("expected expression error")
	}
}

func TestCurrentTime(t *testing.T) {
	t.Parallel()

	c, p, _ := newController()
	p.elapsed = 4.5
	if c.CurrentTime() != 4.5 {
		t.Fatalf("CurrentTime: %v", c.CurrentTime())
	}
}
