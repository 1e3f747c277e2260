package beat

import "errors"

// Setup failures returned by Start. Nothing runs and no beats are ever
// produced for the session when Start fails.
var (
	ErrNilSource      = errors.New("beat: nil spectrum source")
	ErrNilCallback    = errors.New("beat: nil beat callback")
	ErrAlreadyRunning = errors.New("beat: detector session already running")
)
