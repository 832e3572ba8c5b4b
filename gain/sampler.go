// Package gain samples the engine log into a rolling window of gain values.
package gain

import (
	"context"
	"strings"
	"sync"
	"time"

	"go-livedeck/debug"
)

// DefaultInterval is the poll period of the sampler loop.
const DefaultInterval = 400 * time.Millisecond

// LogSource is the engine's append-only log.
type LogSource interface {
	ReadAll() []string
}

// Options configures a Sampler. Zero fields take the defaults.
type Options struct {
	Interval time.Duration
	Capacity int
}

// Sampler polls a LogSource and keeps the latest samples. Only the most
// recent log entry is read on each tick; entries appended between ticks are
// skipped.
type Sampler struct {
	source   LogSource
	interval time.Duration

	mu        sync.RWMutex
	window    *Window
	observers []func([]float64)

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}

	// UpdateChan signals the UI that the window changed (non-blocking, coalescing)
	UpdateChan chan struct{}
}

// New returns a stopped sampler reading from source.
func New(source LogSource, opts Options) *Sampler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	return &Sampler{
		source:     source,
		interval:   opts.Interval,
		window:     NewWindow(opts.Capacity),
		done:       make(chan struct{}),
		UpdateChan: make(chan struct{}, 1),
	}
}

// Subscribe registers fn to be called with the window contents after every
// committed sample. Observers run on the sampling goroutine.
func (s *Sampler) Subscribe(fn func(values []float64)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Updates returns the coalescing change signal.
func (s *Sampler) Updates() <-chan struct{} {
	return s.UpdateChan
}

// Snapshot returns the window contents, oldest first.
func (s *Sampler) Snapshot() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.window.Values()
}

// Tick samples the log once. It returns false, leaving the window alone,
// when the log is empty or its latest entry is blank.
func (s *Sampler) Tick() bool {
	entries := s.source.ReadAll()
	if len(entries) == 0 {
		return false
	}
	latest := entries[len(entries)-1]
	if strings.TrimSpace(latest) == "" {
		return false
	}
	v := ParseGain(latest)

	s.mu.Lock()
	s.window.Push(v)
	values := s.window.Values()
	observers := append(([]func([]float64))(nil), s.observers...)
	s.mu.Unlock()

	debug.LogEvery(25, "sampler", "gain %.3f (window %d)", v, len(values))

	for _, fn := range observers {
		fn(values)
	}
	select {
	case s.UpdateChan <- struct{}{}:
	default:
	}
	return true
}

// Start launches the polling loop. Later calls are ignored. The loop ends
// when ctx is cancelled or Stop is called.
func (s *Sampler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(ctx)
		s.mu.Lock()
		s.cancel = cancel
		s.mu.Unlock()
		go s.loop(ctx)
	})
}

func (s *Sampler) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	debug.Log("sampler", "started, interval %v", s.interval)
	for {
		select {
		case <-ctx.Done():
			debug.Log("sampler", "stopped")
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Stop cancels the loop and waits for it to exit. It is safe to call more
// than once, concurrently, or on a sampler that was never started.
func (s *Sampler) Stop() {
	s.stopOnce.Do(func() {
		s.startOnce.Do(func() { close(s.done) })

		s.mu.RLock()
		cancel := s.cancel
		s.mu.RUnlock()
		if cancel != nil {
			cancel()
		}
	})
	<-s.done
}
