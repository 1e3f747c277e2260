package spectrum

// Source is a live, in-place readable spectral stream over a playing
// media source. The beat engine polls it once per tick; it never copies
// or transcodes the underlying audio.
//
// Implementations in this module: media.WAVSource (file playback) and
// capture.Microphone (live input). All methods are called from the
// engine's loop goroutine only.
type Source interface {
	// Bins returns the number of frequency bins per frame.
	Bins() int

	// ReadInto fills dst (length Bins) with the current per-bin dB
	// magnitudes.
	ReadInto(dst []float64) error

	// CurrentTime returns the media-relative position in seconds.
	CurrentTime() float64

	// Playing reports whether the source is actively producing audio.
	// A paused or ended source keeps being polled but is not analyzed.
	Playing() bool

	// Resume asks the underlying audio pipeline to start (or resume)
	// producing data. Called once before the engine loop begins.
	Resume() error

	// Close releases the pipeline's resources.
	Close() error
}
