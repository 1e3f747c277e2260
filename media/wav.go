// Package media provides playable media sources for the beat engine.
// The only format here is RIFF/WAV; the engine itself never looks at
// PCM, only at the spectral frames these sources produce.
package media

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/RyanBlaney/ritmo-radar/spectrum"
)

// WAVSource streams a decoded WAV file as a playing media source. The
// media clock starts at Resume and advances in wall time; each ReadInto
// analyzes the FFT-sized block of samples ending at the current
// position. All methods are called from the engine's loop and lifecycle
// per the spectrum.Source contract.
type WAVSource struct {
	samples    []float64 // mono, normalized to [-1, 1]
	sampleRate int
	analyzer   *spectrum.Analyzer
	block      []float64

	started bool
	closed  bool
	start   time.Time
}

// OpenWAV decodes the file fully into memory and prepares a source with
// the given FFT size
func OpenWAV(path string, fftSize int) (*WAVSource, error) {
	analyzer, err := spectrum.NewAnalyzer(fftSize)
	if err != nil {
		return nil, fmt.Errorf("media: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("media: open wav: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("media: %s is not a valid wav file", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("media: decode wav: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("media: %s contains no samples", path)
	}

	return &WAVSource{
		samples:    toMonoFloat(buf, int(decoder.BitDepth)),
		sampleRate: buf.Format.SampleRate,
		analyzer:   analyzer,
		block:      make([]float64, fftSize),
	}, nil
}

// SampleRate returns the file's sample rate in Hz
func (s *WAVSource) SampleRate() int {
	return s.sampleRate
}

// Duration returns the file's length in seconds
func (s *WAVSource) Duration() float64 {
	return float64(len(s.samples)) / float64(s.sampleRate)
}

func (s *WAVSource) Bins() int {
	return s.analyzer.Bins()
}

// Resume starts the media clock. Idempotent.
func (s *WAVSource) Resume() error {
	if s.closed {
		return fmt.Errorf("media: source is closed")
	}
	if !s.started {
		s.started = true
		s.start = time.Now()
	}
	return nil
}

// Playing reports whether playback has started and not yet run off the
// end of the file
func (s *WAVSource) Playing() bool {
	if !s.started || s.closed {
		return false
	}
	return s.CurrentTime() < s.Duration()
}

// CurrentTime returns the media position in seconds, clamped to the
// file's duration
func (s *WAVSource) CurrentTime() float64 {
	if !s.started {
		return 0.0
	}
	t := time.Since(s.start).Seconds()
	if d := s.Duration(); t > d {
		return d
	}
	return t
}

// ReadInto analyzes the block of samples ending at the current media
// position into per-bin dB magnitudes
func (s *WAVSource) ReadInto(dst []float64) error {
	if s.closed {
		return fmt.Errorf("media: source is closed")
	}

	pos := int(s.CurrentTime() * float64(s.sampleRate))
	if pos > len(s.samples) {
		pos = len(s.samples)
	}
	low := pos - len(s.block)
	if low < 0 {
		low = 0
	}
	return s.analyzer.Analyze(s.samples[low:pos], dst)
}

// Close releases the source. The decoded samples are dropped on GC.
func (s *WAVSource) Close() error {
	s.closed = true
	return nil
}

// toMonoFloat downmixes an IntBuffer to normalized mono float64
func toMonoFloat(buf *audio.IntBuffer, fallbackBitDepth int) []float64 {
	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = fallbackBitDepth
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int(1) << (bitDepth - 1))

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}

	frames := len(buf.Data) / channels
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[i*channels+ch])
		}
		mono[i] = sum / (float64(channels) * scale)
	}
	return mono
}
