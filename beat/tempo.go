package beat

import "github.com/RyanBlaney/ritmo-radar/stats"

// Beat is one confirmed beat: a media-relative timestamp in seconds and
// an intensity in [0, 1]
type Beat struct {
	Time      float64 `json:"time"`
	Intensity float64 `json:"intensity"`
}

// tempoState is the session's tempo progress, a tagged variant rather
// than independent flags: evidence gathering while unlocked, a constant
// schedule once locked. The transition happens at most once per session
// and only in that direction.
type tempoState interface {
	isTempoState()
}

// unlocked holds the confirmed beats pending tempo analysis
type unlocked struct {
	beats []Beat
}

// locked holds the accepted tempo and the next scheduled beat time
type locked struct {
	bpm  float64
	next float64
}

func (*unlocked) isTempoState() {}
func (*locked) isTempoState()   {}

const (
	// Plausible inter-beat interval bounds in seconds; anything outside
	// is discarded as noise before estimation.
	minPlausibleInterval = 0.25
	maxPlausibleInterval = 2.0

	// minSurvivingIntervals is the evidence floor after filtering.
	minSurvivingIntervals = 3

	// Acceptance band in BPM. Estimates in (acceptMaxBPM, 2*acceptMaxBPM]
	// are halved (double-time detection), [acceptMinBPM/2, acceptMinBPM)
	// doubled (half-time); everything else is rejected.
	acceptMinBPM = 60.0
	acceptMaxBPM = 200.0
)

// estimateBPM derives a tempo from confirmed beat times. It returns 0
// when the evidence does not yet support a plausible constant tempo;
// the caller simply re-attempts once the beat buffer grows.
func estimateBPM(beats []Beat) float64 {
	if len(beats) < 2 {
		return 0.0
	}

	intervals := make([]float64, 0, len(beats)-1)
	for i := 1; i < len(beats); i++ {
		dt := beats[i].Time - beats[i-1].Time
		if dt >= minPlausibleInterval && dt <= maxPlausibleInterval {
			intervals = append(intervals, dt)
		}
	}
	if len(intervals) < minSurvivingIntervals {
		return 0.0
	}

	bpm := 60.0 / stats.Median(intervals)

	switch {
	case bpm >= acceptMinBPM && bpm <= acceptMaxBPM:
		return bpm
	case bpm > acceptMaxBPM && bpm <= 2*acceptMaxBPM:
		return bpm / 2.0
	case bpm >= acceptMinBPM/2 && bpm < acceptMinBPM:
		return bpm * 2.0
	default:
		return 0.0
	}
}
