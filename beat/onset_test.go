package beat

import (
	"testing"

	"github.com/RyanBlaney/ritmo-radar/spectrum"
)

// dbFrame builds a frame where every bin carries the given linear
// amplitude
func dbFrame(bins int, linear float64) []float64 {
	frame := make([]float64, bins)
	for i := range frame {
		frame[i] = spectrum.LinearToDB(linear)
	}
	return frame
}

func TestFrameWindowRotation(t *testing.T) {
	w := newFrameWindow(2)

	if w.ready() {
		t.Fatal("empty window reports ready")
	}

	w.push(dbFrame(2, 0.1))
	w.push(dbFrame(2, 0.2))
	if w.ready() {
		t.Fatal("two frames report ready")
	}

	w.push(dbFrame(2, 0.3))
	if !w.ready() {
		t.Fatal("three frames do not report ready")
	}

	approx := func(got, want float64) bool {
		d := got - want
		return d < 1e-9 && d > -1e-9
	}
	if !approx(w.prev2[0], 0.1) || !approx(w.prev[0], 0.2) || !approx(w.cur[0], 0.3) {
		t.Errorf("window order prev2=%v prev=%v cur=%v, want 0.1 0.2 0.3", w.prev2[0], w.prev[0], w.cur[0])
	}

	w.push(dbFrame(2, 0.4))
	if !approx(w.prev2[0], 0.2) || !approx(w.prev[0], 0.3) || !approx(w.cur[0], 0.4) {
		t.Errorf("after rotation prev2=%v prev=%v cur=%v, want 0.2 0.3 0.4", w.prev2[0], w.prev[0], w.cur[0])
	}
}

func TestDetectOnset(t *testing.T) {
	tests := []struct {
		name string
		amps [3]float64 // per-bin linear amplitude: oldest, middle, newest
		want bool
	}{
		// 4 bins each: sums are amp*4, the ratios are unchanged.
		{"clear peak", [3]float64{0.1, 0.5, 0.2}, true},
		{"peak exactly one frame back", [3]float64{0.2, 0.5, 0.45}, true},
		{"still rising", [3]float64{0.1, 0.5, 0.6}, false},
		{"flat plateau", [3]float64{0.5, 0.5, 0.5}, false},
		{"insufficient rise", [3]float64{0.48, 0.5, 0.2}, false},
		{"silence", [3]float64{0, 0, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newFrameWindow(4)
			for _, amp := range tt.amps {
				w.push(dbFrame(4, amp))
			}
			if got := detectOnset(w, 0, 4); got != tt.want {
				t.Errorf("detectOnset = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectOnsetNotReady(t *testing.T) {
	w := newFrameWindow(4)
	w.push(dbFrame(4, 0.1))
	w.push(dbFrame(4, 0.9))
	if detectOnset(w, 0, 4) {
		t.Error("onset flagged before three frames are retained")
	}
}

func TestDetectOnsetRespectsBinRange(t *testing.T) {
	w := newFrameWindow(8)

	// Peak only in the upper half of the spectrum.
	quiet := dbFrame(8, 0.1)
	spike := dbFrame(8, 0.1)
	for i := 4; i < 8; i++ {
		spike[i] = spectrum.LinearToDB(0.9)
	}

	w.push(quiet)
	w.push(spike)
	w.push(quiet)

	if detectOnset(w, 0, 4) {
		t.Error("onset detected in a range with no peak")
	}
	if !detectOnset(w, 4, 8) {
		t.Error("onset missed in the range containing the peak")
	}
}

func TestOnsetRange(t *testing.T) {
	t.Run("default bands span bass through mid", func(t *testing.T) {
		bands := DefaultBands(2048)
		low, high := onsetRange(bands)
		if low != bands[0].Low {
			t.Errorf("low = %d, want sub-bass low %d", low, bands[0].Low)
		}
		if high != bands[3].High {
			t.Errorf("high = %d, want mid high %d", high, bands[3].High)
		}
	})

	t.Run("light-weight bands excluded", func(t *testing.T) {
		bands := []Band{
			{Name: "bass", Low: 2, High: 10, Weight: 2.0, Bass: true},
			{Name: "high", Low: 10, High: 64, Weight: 0.5},
		}
		low, high := onsetRange(bands)
		if low != 2 || high != 10 {
			t.Errorf("range = [%d, %d), want [2, 10)", low, high)
		}
	})
}
