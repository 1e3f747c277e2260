package beat

import "math"

// bandMetrics holds the per-tick aggregates over all configured bands
type bandMetrics struct {
	totalFlux   float64
	totalEnergy float64
	bassFlux    float64
	bassEnergy  float64
}

// computeBandMetrics derives per-band energy and onset flux from the
// current and previous linear-amplitude frames.
//
// Energy is RMS over the band's bins. Flux is half-wave-rectified L2
// onset flux: only positive (rising) bin changes contribute, which
// suppresses false triggers on decay.
func computeBandMetrics(bands []Band, cur, prev []float64) bandMetrics {
	var m bandMetrics

	for _, b := range bands {
		low, high := b.Low, b.High
		if high > len(cur) {
			high = len(cur)
		}
		if low >= high {
			continue
		}

		var sumSquares, fluxSquares float64
		for i := low; i < high; i++ {
			sumSquares += cur[i] * cur[i]
			if diff := cur[i] - prev[i]; diff > 0 {
				fluxSquares += diff * diff
			}
		}

		energy := math.Sqrt(sumSquares / float64(high-low))
		flux := math.Sqrt(fluxSquares)

		m.totalFlux += flux * b.Weight
		m.totalEnergy += energy * b.Weight
		if b.Bass {
			m.bassFlux += flux * b.Weight
			m.bassEnergy += energy * b.Weight
		}
	}

	return m
}
