package beat

import (
	"math"

	"github.com/RyanBlaney/ritmo-radar/stats"
)

const (
	// madNormalScale rescales MAD into a standard-deviation equivalent
	// under a normal-distribution assumption.
	madNormalScale = 1.4826

	// thresholdMinSamples is the warm-up guard: no triggers are possible
	// before this much evidence exists.
	thresholdMinSamples = 5

	// localMaxTolerance admits values within 2% of the recent maximum,
	// so a beat fires once on the rising edge rather than continuously
	// while the signal stays elevated.
	localMaxTolerance = 0.98

	// localMaxWindow is the recency window for the flux local-maximum
	// check.
	localMaxWindow = 8
)

// adaptiveThreshold returns median + k * 1.4826 * MAD over the history,
// or +Inf while fewer than thresholdMinSamples samples exist
func adaptiveThreshold(h *history, k float64) float64 {
	if h.Len() < thresholdMinSamples {
		return math.Inf(1)
	}

	values := h.Values()
	return stats.Median(values) + k*madNormalScale*stats.MAD(values)
}

// isLocalMax reports whether v is at least localMaxTolerance times the
// maximum of the last w history samples
func isLocalMax(h *history, v float64, w int) bool {
	if h.Len() == 0 {
		return true
	}
	return v >= localMaxTolerance*h.MaxLast(w)
}
