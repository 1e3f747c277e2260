package beat

import (
	"math"
	"testing"
)

func TestComputeBandMetricsEnergyAndFlux(t *testing.T) {
	bands := []Band{{Name: "bass", Low: 0, High: 4, Weight: 1.0, Bass: true}}

	cur := []float64{0.5, 0.5, 0.0, 0.0}
	prev := []float64{0.0, 0.0, 0.5, 0.5}

	m := computeBandMetrics(bands, cur, prev)

	// RMS over the band's bins
	wantEnergy := math.Sqrt((0.25 + 0.25) / 4.0)
	if math.Abs(m.totalEnergy-wantEnergy) > 1e-12 {
		t.Errorf("totalEnergy = %v, want %v", m.totalEnergy, wantEnergy)
	}

	// Only the two rising bins contribute to flux; the two decaying bins
	// are rectified away.
	wantFlux := math.Sqrt(0.25 + 0.25)
	if math.Abs(m.totalFlux-wantFlux) > 1e-12 {
		t.Errorf("totalFlux = %v, want %v", m.totalFlux, wantFlux)
	}

	if m.bassEnergy != m.totalEnergy || m.bassFlux != m.totalFlux {
		t.Error("single bass band should match totals in the bass aggregates")
	}
}

func TestComputeBandMetricsDecayOnly(t *testing.T) {
	bands := []Band{{Name: "bass", Low: 0, High: 2, Weight: 2.0, Bass: true}}

	m := computeBandMetrics(bands, []float64{0.1, 0.1}, []float64{0.9, 0.9})
	if m.totalFlux != 0 {
		t.Errorf("decaying spectrum produced flux %v, want 0", m.totalFlux)
	}
	if m.totalEnergy == 0 {
		t.Error("decaying spectrum should still carry energy")
	}
}

func TestComputeBandMetricsWeighting(t *testing.T) {
	bands := []Band{
		{Name: "bass", Low: 0, High: 2, Weight: 2.0, Bass: true},
		{Name: "high", Low: 2, High: 4, Weight: 0.5},
	}

	cur := []float64{1.0, 1.0, 1.0, 1.0}
	prev := []float64{0.0, 0.0, 0.0, 0.0}

	m := computeBandMetrics(bands, cur, prev)

	perBandFlux := math.Sqrt(2.0) // two rising bins of +1 each
	wantTotal := perBandFlux*2.0 + perBandFlux*0.5
	if math.Abs(m.totalFlux-wantTotal) > 1e-12 {
		t.Errorf("totalFlux = %v, want %v", m.totalFlux, wantTotal)
	}

	wantBass := perBandFlux * 2.0
	if math.Abs(m.bassFlux-wantBass) > 1e-12 {
		t.Errorf("bassFlux = %v, want %v", m.bassFlux, wantBass)
	}

	// Energy, similarly weighted: RMS of each band is 1.
	if math.Abs(m.totalEnergy-2.5) > 1e-12 {
		t.Errorf("totalEnergy = %v, want 2.5", m.totalEnergy)
	}
	if math.Abs(m.bassEnergy-2.0) > 1e-12 {
		t.Errorf("bassEnergy = %v, want 2.0", m.bassEnergy)
	}
}

func TestComputeBandMetricsClampsBandToFrame(t *testing.T) {
	bands := []Band{{Name: "wide", Low: 0, High: 100, Weight: 1.0, Bass: true}}

	m := computeBandMetrics(bands, []float64{1, 1}, []float64{0, 0})
	if m.totalFlux == 0 || math.IsNaN(m.totalFlux) {
		t.Errorf("clamped band produced flux %v", m.totalFlux)
	}
}
