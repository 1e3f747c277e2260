package beat

import "github.com/RyanBlaney/ritmo-radar/spectrum"

const (
	// Three-point peak-picking margins: the middle frame must exceed the
	// oldest by onsetRiseRatio and the newest by onsetFallRatio.
	onsetRiseRatio = 1.1
	onsetFallRatio = 0.95

	frameWindowSize = 3
)

// frameWindow retains the current spectral frame plus the two preceding
// ones as linear amplitudes; older frames are discarded. Three frames
// are enough for both flux and onset-peak computation.
type frameWindow struct {
	cur, prev, prev2 []float64
	filled           int
}

func newFrameWindow(bins int) *frameWindow {
	return &frameWindow{
		cur:   make([]float64, bins),
		prev:  make([]float64, bins),
		prev2: make([]float64, bins),
	}
}

// push rotates the window and converts the incoming dB frame to linear
// amplitude
func (w *frameWindow) push(db []float64) {
	w.prev2, w.prev, w.cur = w.prev, w.cur, w.prev2
	for i := range w.cur {
		w.cur[i] = spectrum.DBToLinear(db[i])
	}
	if w.filled < frameWindowSize {
		w.filled++
	}
}

func (w *frameWindow) ready() bool {
	return w.filled >= frameWindowSize
}

// detectOnset runs three-point peak picking over the summed linear
// amplitude of the [low, high) bin range: a peak is flagged when the
// middle frame rises clearly above the oldest and has started to fall
// toward the newest, one frame after the event occurred.
func detectOnset(w *frameWindow, low, high int) bool {
	if !w.ready() {
		return false
	}
	if high > len(w.cur) {
		high = len(w.cur)
	}
	if low >= high {
		return false
	}

	var oldest, middle, newest float64
	for i := low; i < high; i++ {
		oldest += w.prev2[i]
		middle += w.prev[i]
		newest += w.cur[i]
	}

	return middle > oldest*onsetRiseRatio && middle > newest*onsetFallRatio
}

// onsetRange returns the contiguous bin span the onset detector sums
// over: from the lowest bass band bin through the top of the mid range
// (every band weighted at or above 1.0 under the default weighting).
func onsetRange(bands []Band) (int, int) {
	low, high := -1, 0
	for _, b := range bands {
		if !b.Bass && b.Weight < 1.0 {
			continue
		}
		if low < 0 || b.Low < low {
			low = b.Low
		}
		if b.High > high {
			high = b.High
		}
	}
	if low < 0 {
		low = 0
	}
	return low, high
}
