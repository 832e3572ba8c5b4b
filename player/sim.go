package player

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"go-livedeck/debug"
)

// ErrNoPattern is returned by Evaluate when the code defines no parts.
var ErrNoPattern = errors.New("no pattern parts to evaluate")

const (
	defaultSimCPM = 120
	// haps per cycle
	stepsPerCycle = 4
)

var (
	partLine  = regexp.MustCompile(`^\s*(_?)([A-Za-z]\w*)\s*:`)
	gainCall  = regexp.MustCompile(`\.gain\(\s*([0-9]*\.?[0-9]+)\s*\)`)
	cpmCall   = regexp.MustCompile(`setcpm\(\s*([0-9]*\.?[0-9]+)\s*\)`)
	accentMap = [stepsPerCycle]float64{1, 0.55, 0.8, 0.4}
)

// Part is one named line of a pattern.
type Part struct {
	Name  string
	Gain  float64
	Muted bool
}

// Pattern is what the simulator understood of the evaluated code.
type Pattern struct {
	CPM   float64
	Parts []Part
}

// ParsePattern scans code for "name:" parts, a leading "_" marking a muted
// part, .gain(x) calls and setcpm(x). Lines that do not start a part belong
// to the previous one.
func ParsePattern(code string) Pattern {
	p := Pattern{CPM: defaultSimCPM}
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "//") {
			continue
		}
		if m := cpmCall.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
				p.CPM = v
			}
		}
		if m := partLine.FindStringSubmatch(line); m != nil {
			p.Parts = append(p.Parts, Part{Name: m[2], Gain: 1, Muted: m[1] != ""})
		}
		if len(p.Parts) == 0 {
			continue
		}
		if all := gainCall.FindAllStringSubmatch(line, -1); all != nil {
			if v, err := strconv.ParseFloat(all[len(all)-1][1], 64); err == nil {
				p.Parts[len(p.Parts)-1].Gain = v
			}
		}
	}
	return p
}

// Sim stands in for the real engine. It produces no audio; while running it
// appends one hap line per audible part per step to the log, e.g.
//
//	[hap] track:bass gain:0.42
type Sim struct {
	log *Log
	now func() time.Time

	mu        sync.Mutex
	code      string
	pattern   Pattern
	step      int
	running   bool
	evaluated time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewSim(log *Log) *Sim {
	return &Sim{log: log, now: time.Now}
}

func (s *Sim) SetCode(code string) error {
	s.mu.Lock()
	s.code = code
	s.mu.Unlock()
	return nil
}

// Evaluate parses the pending code and (re)starts the hap loop at its tempo.
func (s *Sim) Evaluate() error {
	s.mu.Lock()
	pat := ParsePattern(s.code)
	if len(pat.Parts) == 0 {
		s.mu.Unlock()
		return ErrNoPattern
	}
	s.pattern = pat
	s.evaluated = s.now()
	s.mu.Unlock()

	s.halt()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.mu.Lock()
	s.running = true
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	s.log.Append(fmt.Sprintf("[eval] %d parts at %s cpm", len(pat.Parts), strconv.FormatFloat(pat.CPM, 'f', -1, 64)))
	debug.Log("sim", "evaluated %d parts, cpm %.1f", len(pat.Parts), pat.CPM)
	go s.loop(ctx, done, stepInterval(pat.CPM))
	return nil
}

func stepInterval(cpm float64) time.Duration {
	return time.Duration(float64(time.Minute) / cpm / stepsPerCycle)
}

func (s *Sim) loop(ctx context.Context, done chan struct{}, interval time.Duration) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Step()
		}
	}
}

// Step emits the haps of the next step. The loop calls it on every tick.
func (s *Sim) Step() {
	s.mu.Lock()
	pat := s.pattern
	step := s.step
	s.step++
	s.mu.Unlock()

	accent := accentMap[step%stepsPerCycle]
	audible := 0
	for _, part := range pat.Parts {
		if part.Muted {
			continue
		}
		audible++
		g := part.Gain * accent
		s.log.Append(fmt.Sprintf("[hap] track:%s gain:%s", part.Name, strconv.FormatFloat(g, 'f', 3, 64)))
	}
	if audible == 0 {
		s.log.Append("[hap] silence")
	}
}

// halt stops the hap loop and waits for it.
func (s *Sim) halt() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.running = false
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

func (s *Sim) Stop() error {
	s.halt()
	s.log.Append("[stop]")
	return nil
}

// Running reports whether the hap loop is active.
func (s *Sim) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Pattern returns the last evaluated pattern.
func (s *Sim) Pattern() Pattern {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pattern
}

// CurrentTime is the seconds since the last evaluate, or 0 when stopped.
func (s *Sim) CurrentTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return 0
	}
	return s.now().Sub(s.evaluated).Seconds()
}
