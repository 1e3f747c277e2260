package beat

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RyanBlaney/ritmo-radar/logging"
	"github.com/RyanBlaney/ritmo-radar/spectrum"
)

// Callback receives one invocation per emitted beat, in increasing
// media-timestamp order and never concurrently. Timestamp is the
// media-relative time in seconds, intensity is in [0, 1].
type Callback func(timestamp, intensity float64)

// defaultTickInterval drives the acquisition loop at a nominal screen
// refresh rate
const defaultTickInterval = 16 * time.Millisecond

// scheduledIntensity is reported for schedule-driven beats, where
// spectral confidence is not computed
const scheduledIntensity = 0.8

// Detector is a per-session beat detector. Each instance owns its own
// history buffers and tempo state, so concurrent independent sessions
// never share or corrupt state.
type Detector struct {
	cfg    *Config
	logger logging.Logger

	mu      sync.Mutex
	running bool

	// lockedBPM publishes the accepted tempo (Float64bits, 0 while
	// unlocked) from the loop goroutine.
	lockedBPM atomic.Uint64
}

// NewDetector creates a detector for the given configuration; nil means
// DefaultConfig. The sensitivity preset is applied when a session starts.
func NewDetector(cfg *Config) *Detector {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Detector{
		cfg: cfg,
		logger: logging.WithFields(logging.Fields{
			"component": "beat_detector",
		}),
	}
}

// Start validates the pipeline, resumes the source, and launches the
// acquisition loop. It returns an idempotent stop function: once stop
// returns, no further callback runs and the source has been closed.
//
// A pipeline construction failure fails Start synchronously. A resume
// failure is only logged; the loop still runs and reads silence until
// the pipeline is resumed externally.
func (d *Detector) Start(src spectrum.Source, cb Callback) (func(), error) {
	if src == nil {
		return nil, ErrNilSource
	}
	if cb == nil {
		return nil, ErrNilCallback
	}

	cfg := d.cfg.normalized()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("beat: %w", err)
	}
	if src.Bins() != cfg.FFTSize/2 {
		return nil, fmt.Errorf("beat: source provides %d bins, config expects %d", src.Bins(), cfg.FFTSize/2)
	}

	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	d.running = true
	d.lockedBPM.Store(0)
	d.mu.Unlock()

	if err := src.Resume(); err != nil {
		d.logger.Error(err, "audio pipeline resume failed, reading silence until resumed externally")
	}

	s := newSession(cfg, src, cb, d.logger)
	s.onLock = func(bpm float64) {
		d.lockedBPM.Store(math.Float64bits(bpm))
	}

	done := make(chan struct{})
	stopped := make(chan struct{})
	go s.run(defaultTickInterval, done, stopped)

	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			<-stopped
			if err := src.Close(); err != nil {
				d.logger.Error(err, "failed to release audio pipeline")
			}
			d.mu.Lock()
			d.running = false
			d.mu.Unlock()
		})
	}
	return stop, nil
}

// LockedBPM returns the accepted tempo and whether the session has
// locked. Safe to call from any goroutine.
func (d *Detector) LockedBPM() (float64, bool) {
	bits := d.lockedBPM.Load()
	if bits == 0 {
		return 0.0, false
	}
	return math.Float64frombits(bits), true
}

// Start is the package-level convenience wrapper: one call builds a
// detector and starts its session.
func Start(src spectrum.Source, cb Callback, cfg *Config) (func(), error) {
	return NewDetector(cfg).Start(src, cb)
}

// session owns all mutable detection state. Every field is touched only
// by the loop goroutine (single-writer discipline); callbacks run on
// that goroutine too.
type session struct {
	cfg    *Config
	src    spectrum.Source
	cb     Callback
	logger logging.Logger
	onLock func(bpm float64)

	frames  *frameWindow
	dbFrame []float64

	fluxHist   *history
	energyHist *history
	bassHist   *history

	tempo    tempoState
	lastBeat float64

	onsetLow, onsetHigh int
}

func newSession(cfg *Config, src spectrum.Source, cb Callback, logger logging.Logger) *session {
	bins := cfg.FFTSize / 2
	low, high := onsetRange(cfg.Bands)

	return &session{
		cfg:        cfg,
		src:        src,
		cb:         cb,
		logger:     logger,
		frames:     newFrameWindow(bins),
		dbFrame:    spectrum.NewFrame(cfg.FFTSize),
		fluxHist:   newHistory(cfg.HistorySize),
		energyHist: newHistory(cfg.HistorySize),
		bassHist:   newHistory(cfg.HistorySize),
		tempo:      &unlocked{},
		lastBeat:   math.Inf(-1),
		onsetLow:   low,
		onsetHigh:  high,
	}
}

// run drives one tick per interval until done is closed
func (s *session) run(interval time.Duration, done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick runs one pass of the pipeline: acquire, flux/energy, history
// update, then either signal-driven analysis or the locked schedule.
func (s *session) tick() {
	if !s.src.Playing() {
		return
	}

	now := s.src.CurrentTime()
	if err := s.src.ReadInto(s.dbFrame); err != nil {
		s.logger.Warn("spectral frame read failed", logging.Fields{"error": err.Error()})
		return
	}

	s.frames.push(s.dbFrame)
	m := computeBandMetrics(s.cfg.Bands, s.frames.cur, s.frames.prev)

	s.fluxHist.Push(m.totalFlux)
	s.energyHist.Push(m.totalEnergy)
	s.bassHist.Push(m.bassEnergy)

	switch st := s.tempo.(type) {
	case *locked:
		// Histories stay updated for consistency but are never read for
		// firing decisions in this mode.
		if now >= st.next {
			s.fire(st.next, scheduledIntensity)
			s.lastBeat = st.next // scheduled time, not sampled, to avoid drift
			st.next += 60.0 / st.bpm
		}
	case *unlocked:
		s.analyze(st, now, m)
	}
}

// analyze computes the three votes and decides fire/no-fire for one
// unlocked tick
func (s *session) analyze(st *unlocked, now float64, m bandMetrics) {
	votes := 0

	// Flux vote: threshold crossing plus local maximum, once enough
	// history has accumulated.
	warm := s.fluxHist.Len()*10 >= s.fluxHist.Cap()*3
	if warm &&
		m.totalFlux > adaptiveThreshold(s.fluxHist, s.cfg.EnergyThreshold) &&
		isLocalMax(s.fluxHist, m.totalFlux, localMaxWindow) {
		votes++
	}

	// Bass spike vote
	if s.cfg.UseEnergySpikes &&
		m.bassEnergy > 1.2*adaptiveThreshold(s.bassHist, s.cfg.EnergyThreshold) &&
		isLocalMax(s.bassHist, m.bassEnergy, 4) {
		votes++
	}

	// Onset vote
	if s.cfg.UseOnsetDetection && detectOnset(s.frames, s.onsetLow, s.onsetHigh) {
		votes++
	}

	if votes == 0 {
		return
	}
	elapsed := now - s.lastBeat
	if elapsed <= s.cfg.MinBeatSeparation {
		return
	}
	// A lone vote is weaker evidence and must clear a stricter guard.
	if votes == 1 && elapsed <= 1.5*s.cfg.MinBeatSeparation {
		return
	}

	intensity := 0.0
	if peak := s.fluxHist.Max(); peak > 0 {
		intensity = m.totalFlux / peak
	}
	if intensity > 1.0 {
		intensity = 1.0
	}

	s.lastBeat = now
	s.confirm(st, Beat{Time: now, Intensity: intensity})
	s.fire(now, intensity)
	s.maybeLock(st, now)
}

// confirm appends a beat to the bounded evidence buffer used only for
// tempo estimation
func (s *session) confirm(st *unlocked, b Beat) {
	st.beats = append(st.beats, b)
	if limit := s.cfg.BeatsToAnalyze + 2; len(st.beats) > limit {
		st.beats = st.beats[len(st.beats)-limit:]
	}
}

// maybeLock attempts the one-way transition to schedule-driven emission
func (s *session) maybeLock(st *unlocked, now float64) {
	if !s.cfg.BPMSyncEnabled || len(st.beats) < s.cfg.BeatsToAnalyze {
		return
	}

	bpm := estimateBPM(st.beats)
	if bpm == 0 {
		return
	}

	s.tempo = &locked{bpm: bpm, next: now + 60.0/bpm}
	if s.onLock != nil {
		s.onLock(bpm)
	}
	s.logger.Info("tempo locked", logging.Fields{
		"bpm":   bpm,
		"beats": len(st.beats),
	})
}

// fire invokes the consumer callback, isolating its failures from the
// loop
func (s *session) fire(timestamp, intensity float64) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(fmt.Errorf("%v", r), "beat callback panicked", logging.Fields{
				"timestamp": timestamp,
			})
		}
	}()
	s.cb(timestamp, intensity)
}
