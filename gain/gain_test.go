package gain

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"
)

// scriptedLog returns one prepared log state per ReadAll call.
type scriptedLog struct {
	mu     sync.Mutex
	states [][]string
}

func (l *scriptedLog) ReadAll() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.states) == 0 {
		return nil
	}
	next := l.states[0]
	l.states = l.states[1:]
	return next
}

type staticLog []string

func (l staticLog) ReadAll() []string { return l }

func TestParseGain(t *testing.T) {
	t.Parallel()

	cases := []struct {
		line string
		want float64
	}{
		{"gain:0.7 extra", 0.7},
		{"[hap] track:bass gain:0.42", 0.42},
		{"note:c3 gain:1", 1},
		{"gain:0.5, room:0.2", 0.5},
		{"gain:.25", 0.25},
		{"gain:1e-1", 0.1},
		{"gain:abc", 0},
		{"gain:", 0},
		{"pregain:0.9", 0},
		{"noise", 0},
		{"", 0},
		{"gain:0.3 gain:0.9", 0.3},
	}
	for _, tc := range cases {
		if got := ParseGain(tc.line); got != tc.want {
			t.Errorf("ParseGain(%q) = %v; want %v", tc.line, got, tc.want)
		}
	}
}

func TestWindowEvictsOldest(t *testing.T) {
	t.Parallel()

	w := NewWindow(50)
	want := make([]float64, 0, 50)
	for i := 0; i <= 50; i++ {
		w.Push(float64(i))
		if i > 0 {
			want = append(want, float64(i))
		}
		if w.Len() > w.Cap() {
			t.Fatalf("window length %d exceeds capacity %d", w.Len(), w.Cap())
		}
	}
	if got := w.Values(); !reflect.DeepEqual(got, want) {
		t.Fatalf("after 51 pushes got %v", got)
	}

	for i := 0; i < 500; i++ {
		w.Push(1)
	}
	if w.Len() != 50 {
		t.Fatalf("len after many pushes: %d", w.Len())
	}

	w.Reset()
	if w.Len() != 0 || len(w.Values()) != 0 {
		t.Fatalf("reset did not empty window")
	}
}

func TestWindowValuesIsCopy(t *testing.T) {
	t.Parallel()

	w := NewWindow(3)
	w.Push(1)
	vals := w.Values()
	vals[0] = 99
	if w.Values()[0] != 1 {
		t.Fatalf("Values exposed internal buffer")
	}
}

func TestTickSequence(t *testing.T) {
	t.Parallel()

	log := &scriptedLog{states: [][]string{
		{"noise"},
		{"noise", "gain:0.7 extra"},
		{"noise", "gain:0.7 extra", ""},
	}}
	s := New(log, Options{})

	results := []bool{s.Tick(), s.Tick(), s.Tick()}
	if !reflect.DeepEqual(results, []bool{true, true, false}) {
		t.Fatalf("tick results: %v", results)
	}
	if got := s.Snapshot(); !reflect.DeepEqual(got, []float64{0, 0.7}) {
		t.Fatalf("window: got %v want [0 0.7]", got)
	}
}

func TestTickEmptyLogIsNoop(t *testing.T) {
	t.Parallel()

	s := New(staticLog(nil), Options{})
	called := false
	s.Subscribe(func([]float64) { called = true })
	if s.Tick() {
		t.Fatalf("tick on empty log reported a sample")
	}
	if called || len(s.Snapshot()) != 0 {
		t.Fatalf("empty tick changed state")
	}
	select {
	case <-s.Updates():
		t.Fatalf("empty tick signalled an update")
	default:
	}
}

func TestTickResamplesLatestEntry(t *testing.T) {
	t.Parallel()

	s := New(staticLog{"gain:0.1", "gain:0.2"}, Options{Capacity: 3})
	for i := 0; i < 4; i++ {
		s.Tick()
	}
	if got := s.Snapshot(); !reflect.DeepEqual(got, []float64{0.2, 0.2, 0.2}) {
		t.Fatalf("window: got %v", got)
	}
}

func TestObserversSeeCommittedWindow(t *testing.T) {
	t.Parallel()

	s := New(staticLog{"gain:0.5"}, Options{})
	var seen [][]float64
	s.Subscribe(func(values []float64) {
		if !reflect.DeepEqual(values, s.Snapshot()) {
			t.Errorf("observer ran before the sample was committed")
		}
		seen = append(seen, values)
	})
	s.Tick()
	s.Tick()
	if len(seen) != 2 || len(seen[1]) != 2 {
		t.Fatalf("observer calls: %v", seen)
	}
	select {
	case <-s.Updates():
	default:
		t.Fatalf("expected an update signal")
	}
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	s := New(staticLog{"gain:0.9"}, Options{Interval: 5 * time.Millisecond})
	s.Start(context.Background())
	s.Start(context.Background())

	deadline := time.After(2 * time.Second)
	for len(s.Snapshot()) < 3 {
		select {
		case <-deadline:
			t.Fatalf("sampler produced %d samples", len(s.Snapshot()))
		case <-s.Updates():
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Stop()
		}()
	}
	wg.Wait()

	n := len(s.Snapshot())
	time.Sleep(30 * time.Millisecond)
	if len(s.Snapshot()) != n {
		t.Fatalf("sampler kept ticking after Stop")
	}
	s.Stop()
}

func TestStopWithoutStart(t *testing.T) {
	t.Parallel()

	s := New(staticLog{"gain:0.9"}, Options{Interval: time.Millisecond})
	s.Stop()
	s.Start(context.Background())
	time.Sleep(10 * time.Millisecond)
	if len(s.Snapshot()) != 0 {
		t.Fatalf("sampler started after Stop")
	}
}

func TestContextCancelStopsLoop(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	s := New(staticLog{"gain:0.9"}, Options{Interval: time.Millisecond})
	s.Start(ctx)
	cancel()
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Stop did not return after context cancel")
	}
}
