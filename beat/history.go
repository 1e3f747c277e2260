package beat

// history is a bounded FIFO of float64 samples: one value appended per
// tick, oldest evicted on overflow. The engine keeps three of these
// (total flux, total energy, bass energy).
type history struct {
	buf  []float64
	head int // index of the oldest sample
	n    int
}

func newHistory(capacity int) *history {
	return &history{buf: make([]float64, capacity)}
}

// Push appends a sample, evicting the oldest when full
func (h *history) Push(v float64) {
	if h.n < len(h.buf) {
		h.buf[(h.head+h.n)%len(h.buf)] = v
		h.n++
		return
	}
	h.buf[h.head] = v
	h.head = (h.head + 1) % len(h.buf)
}

func (h *history) Len() int {
	return h.n
}

func (h *history) Cap() int {
	return len(h.buf)
}

// Values copies the samples out in insertion order, oldest first
func (h *history) Values() []float64 {
	out := make([]float64, h.n)
	for i := 0; i < h.n; i++ {
		out[i] = h.buf[(h.head+i)%len(h.buf)]
	}
	return out
}

// Max returns the largest retained sample, or 0 when empty
func (h *history) Max() float64 {
	if h.n == 0 {
		return 0.0
	}
	m := h.at(0)
	for i := 1; i < h.n; i++ {
		if v := h.at(i); v > m {
			m = v
		}
	}
	return m
}

// MaxLast returns the largest of the most recent w samples
func (h *history) MaxLast(w int) float64 {
	if h.n == 0 {
		return 0.0
	}
	if w > h.n {
		w = h.n
	}
	m := h.at(h.n - 1)
	for i := h.n - w; i < h.n; i++ {
		if v := h.at(i); v > m {
			m = v
		}
	}
	return m
}

// at indexes samples in insertion order, 0 = oldest
func (h *history) at(i int) float64 {
	return h.buf[(h.head+i)%len(h.buf)]
}
