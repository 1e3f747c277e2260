package spectrum

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/RyanBlaney/ritmo-radar/logging"
)

// Analyzer converts blocks of PCM samples into spectral frames: Hann
// window, FFT, per-bin magnitude in dB. One frame per call, sized for a
// fixed FFT size, matching the analyser-node output the beat engine
// consumes.
type Analyzer struct {
	fftSize int
	window  []float64
	scratch []float64
	logger  logging.Logger
}

// NewAnalyzer creates an analyzer for the given FFT size. The size must
// be a power of two of at least 32.
func NewAnalyzer(fftSize int) (*Analyzer, error) {
	if fftSize < 32 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("fft size must be a power of two >= 32, got %d", fftSize)
	}

	return &Analyzer{
		fftSize: fftSize,
		window:  hannWindow(fftSize),
		scratch: make([]float64, fftSize),
		logger: logging.WithFields(logging.Fields{
			"component": "spectrum_analyzer",
			"fft_size":  fftSize,
		}),
	}, nil
}

// FFTSize returns the configured FFT size
func (a *Analyzer) FFTSize() int {
	return a.fftSize
}

// Bins returns the number of frequency bins per frame
func (a *Analyzer) Bins() int {
	return a.fftSize / 2
}

// Analyze computes one spectral frame from a block of PCM samples and
// writes per-bin dB magnitudes into dst. Blocks shorter than the FFT
// size are zero-padded; longer blocks use the trailing fftSize samples.
func (a *Analyzer) Analyze(pcm []float64, dst []float64) error {
	if len(dst) != a.Bins() {
		return fmt.Errorf("destination has %d bins, analyzer produces %d", len(dst), a.Bins())
	}

	if len(pcm) > a.fftSize {
		pcm = pcm[len(pcm)-a.fftSize:]
	}
	n := copy(a.scratch, pcm)
	for i := n; i < a.fftSize; i++ {
		a.scratch[i] = 0.0
	}
	for i := 0; i < a.fftSize; i++ {
		a.scratch[i] *= a.window[i]
	}

	spectrum := fft.FFTReal(a.scratch)

	// Scale so a full-amplitude sine lands near 0 dB. The factor 4 folds
	// in both the one-sided spectrum (2/N) and the Hann window's 0.5
	// coherent gain.
	scale := 4.0 / float64(a.fftSize)
	for i := 0; i < a.Bins(); i++ {
		dst[i] = LinearToDB(cmplx.Abs(spectrum[i]) * scale)
	}

	return nil
}

// hannWindow generates symmetric Hann coefficients
func hannWindow(size int) []float64 {
	w := make([]float64, size)
	for i := range w {
		w[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(size-1)))
	}
	return w
}
