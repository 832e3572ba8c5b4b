package gain

// DefaultCapacity is the number of samples the chart shows.
const DefaultCapacity = 50

// Window is a fixed capacity FIFO of samples in arrival order. It is not
// safe for concurrent use; Sampler guards its own window.
type Window struct {
	buf   []float64
	start int
	n     int
}

// NewWindow returns an empty window holding at most capacity samples.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Window{buf: make([]float64, capacity)}
}

// Push appends v, evicting the oldest sample when full.
func (w *Window) Push(v float64) {
	if w.n < len(w.buf) {
		w.buf[(w.start+w.n)%len(w.buf)] = v
		w.n++
		return
	}
	w.buf[w.start] = v
	w.start = (w.start + 1) % len(w.buf)
}

// Values returns a copy of the samples, oldest first.
func (w *Window) Values() []float64 {
	out := make([]float64, w.n)
	for i := range out {
		out[i] = w.buf[(w.start+i)%len(w.buf)]
	}
	return out
}

func (w *Window) Len() int { return w.n }

func (w *Window) Cap() int { return len(w.buf) }

func (w *Window) Reset() {
	w.start, w.n = 0, 0
}
