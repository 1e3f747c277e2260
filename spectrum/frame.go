// Package spectrum provides the frame acquisition surface of the beat
// engine: per-tick spectral frames of dB magnitudes read in place from a
// playing media source, and the FFT analyzer that produces them from PCM.
package spectrum

import "math"

// MinDB is the magnitude floor used when converting to decibels. Bins at
// or below this level are treated as silence.
const MinDB = -120.0

// NewFrame allocates a frame of per-bin dB magnitudes for the given FFT
// size (bins = fftSize/2, positive frequencies below Nyquist).
func NewFrame(fftSize int) []float64 {
	frame := make([]float64, fftSize/2)
	for i := range frame {
		frame[i] = MinDB
	}
	return frame
}

// DBToLinear converts a dB magnitude to linear amplitude
func DBToLinear(db float64) float64 {
	if db <= MinDB {
		return 0.0
	}
	return math.Pow(10.0, db/20.0)
}

// LinearToDB converts a linear amplitude to dB, floored at MinDB
func LinearToDB(lin float64) float64 {
	if lin <= 0.0 {
		return MinDB
	}
	db := 20.0 * math.Log10(lin)
	if db < MinDB {
		return MinDB
	}
	return db
}
