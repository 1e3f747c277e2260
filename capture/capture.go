// Package capture provides a live microphone spectral source backed by
// portaudio.
package capture

import (
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/RyanBlaney/ritmo-radar/spectrum"
)

// DefaultSampleRate is used when the caller passes 0
const DefaultSampleRate = 44100.0

// Microphone is a spectrum.Source over the default input device. Each
// ReadInto pulls one FFT-sized block from the stream and analyzes it,
// so the frame rate is bounded by sampleRate/fftSize. The media clock
// is wall time since Resume.
type Microphone struct {
	stream   *portaudio.Stream
	buf      []float32
	block    []float64
	analyzer *spectrum.Analyzer

	started bool
	closed  bool
	start   time.Time
}

// OpenMicrophone initializes portaudio and opens the default input
// stream with one channel and fftSize frames per buffer
func OpenMicrophone(sampleRate float64, fftSize int) (*Microphone, error) {
	analyzer, err := spectrum.NewAnalyzer(fftSize)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("capture: initialize portaudio: %w", err)
	}

	m := &Microphone{
		buf:      make([]float32, fftSize),
		block:    make([]float64, fftSize),
		analyzer: analyzer,
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, sampleRate, fftSize, m.buf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("capture: open input stream: %w", err)
	}
	m.stream = stream
	return m, nil
}

func (m *Microphone) Bins() int {
	return m.analyzer.Bins()
}

// Resume starts the input stream and the media clock. Idempotent.
func (m *Microphone) Resume() error {
	if m.closed {
		return fmt.Errorf("capture: microphone is closed")
	}
	if m.started {
		return nil
	}
	if err := m.stream.Start(); err != nil {
		return fmt.Errorf("capture: start input stream: %w", err)
	}
	m.started = true
	m.start = time.Now()
	return nil
}

// Playing reports whether the stream is capturing
func (m *Microphone) Playing() bool {
	return m.started && !m.closed
}

// CurrentTime returns seconds of capture since Resume
func (m *Microphone) CurrentTime() float64 {
	if !m.started {
		return 0.0
	}
	return time.Since(m.start).Seconds()
}

// ReadInto blocks for one buffer of input and analyzes it into per-bin
// dB magnitudes
func (m *Microphone) ReadInto(dst []float64) error {
	if !m.started || m.closed {
		return fmt.Errorf("capture: microphone not capturing")
	}
	if err := m.stream.Read(); err != nil {
		return fmt.Errorf("capture: read input stream: %w", err)
	}
	for i, v := range m.buf {
		m.block[i] = float64(v)
	}
	return m.analyzer.Analyze(m.block, dst)
}

// Close stops the stream and tears down portaudio. Idempotent; stop
// errors are folded into the returned error but teardown always runs.
func (m *Microphone) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true

	var firstErr error
	if m.started {
		if err := m.stream.Stop(); err != nil {
			firstErr = fmt.Errorf("capture: stop input stream: %w", err)
		}
	}
	if err := m.stream.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("capture: close input stream: %w", err)
	}
	if err := portaudio.Terminate(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("capture: terminate portaudio: %w", err)
	}
	return firstErr
}
