// Package recovery drives bounded retry handling for live playback
// faults. One state machine exists per playback session; it decides the
// recovery action while the caller applies the action and the backoff.
package recovery

import (
	"log/slog"
	"sync"
	"time"

	"github.com/siftarr/siftarr/internal/models"
)

// State of a playback session.
type State string

const (
	StatePlaying           State = "playing"
	StateRecoveringNetwork State = "recovering_network"
	StateRecoveringMedia   State = "recovering_media"
	StateFatal             State = "fatal"
)

// Action the caller must take in response to a fault.
type Action string

const (
	ActionRetryNetwork Action = "retry_network"
	ActionRetryMedia   Action = "retry_media"
	ActionIgnore       Action = "ignore"
	ActionDestroy      Action = "destroy"
)

// DefaultMaxRetries bounds each fault class independently.
const DefaultMaxRetries = 3

// DefaultBackoffBase is the first retry delay; each further retry of
// the same class doubles it.
const DefaultBackoffBase = time.Second

// Decision is the machine's response to one fault.
type Decision struct {
	// Action the caller must perform.
	Action Action `json:"action"`

	// State the session is in after the fault.
	State State `json:"state"`

	// Backoff the caller should wait before acting on a retry action.
	// Zero for ignore and destroy.
	Backoff time.Duration `json:"backoff_ns"`
}

// Session is the recovery state machine for one playback attempt.
// Counters persist across faults and reset only when a new session is
// created.
type Session struct {
	mu sync.Mutex

	id             models.ULID
	state          State
	started        bool
	networkRetries int
	mediaRetries   int
	maxRetries     int
	backoffBase    time.Duration
	destroyed      chan struct{}
	logger         *slog.Logger
}

// NewSession creates a session in the Playing state. maxRetries bounds
// each fault class independently.
func NewSession(backoffBase time.Duration, maxRetries int, logger *slog.Logger) *Session {
	if backoffBase <= 0 {
		backoffBase = DefaultBackoffBase
	}
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		id:          models.NewULID(),
		state:       StatePlaying,
		maxRetries:  maxRetries,
		backoffBase: backoffBase,
		destroyed:   make(chan struct{}),
		logger:      logger,
	}
}

// ID returns the session identifier.
func (s *Session) ID() models.ULID { return s.id }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// MarkStarted records that playback has produced frames. Buffer-append
// media faults are ignorable only after this point.
func (s *Session) MarkStarted() {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
}

// Retries reports the per-class retry counters.
func (s *Session) Retries() (network, media int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.networkRetries, s.mediaRetries
}

// HandleFault classifies a fault and returns the action the caller must
// take. A session already in the Fatal state only ever answers destroy.
func (s *Session) HandleFault(fault models.FaultDescriptor) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateFatal {
		return Decision{Action: ActionDestroy, State: StateFatal}
	}

	var d Decision
	switch fault.Class {
	case models.FaultFatal:
		d = s.toFatal()
	case models.FaultNetwork:
		d = s.handleNetwork()
	case models.FaultMedia:
		d = s.handleMedia(fault.Detail)
	default:
		d = s.toFatal()
	}

	s.logger.Debug("fault handled",
		slog.String("session", s.id.String()),
		slog.String("class", string(fault.Class)),
		slog.String("detail", fault.Detail),
		slog.String("action", string(d.Action)),
		slog.String("state", string(d.State)),
	)
	return d
}

func (s *Session) handleNetwork() Decision {
	if s.networkRetries >= s.maxRetries {
		return s.toFatal()
	}
	s.networkRetries++
	s.state = StateRecoveringNetwork
	return Decision{
		Action:  ActionRetryNetwork,
		State:   s.state,
		Backoff: backoffFor(s.backoffBase, s.networkRetries),
	}
}

func (s *Session) handleMedia(detail string) Decision {
	switch detail {
	case models.MediaBufferAppend:
		if s.started && s.mediaRetries < s.maxRetries {
			return Decision{Action: ActionIgnore, State: s.state}
		}
	case models.MediaBufferStalled:
		// A stalled buffer is a starvation symptom, so it takes the
		// network retry path and counts against that class.
		return s.handleNetwork()
	}

	if s.mediaRetries >= s.maxRetries {
		return s.toFatal()
	}
	s.mediaRetries++
	s.state = StateRecoveringMedia
	return Decision{
		Action:  ActionRetryMedia,
		State:   s.state,
		Backoff: backoffFor(s.backoffBase, s.mediaRetries),
	}
}

func (s *Session) toFatal() Decision {
	s.state = StateFatal
	return Decision{Action: ActionDestroy, State: StateFatal}
}

// Recovered reports a successful retry, returning the session to
// Playing. Counters are deliberately not reset.
func (s *Session) Recovered() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRecoveringNetwork || s.state == StateRecoveringMedia {
		s.state = StatePlaying
	}
}

// Destroy terminates the session and releases anyone blocked in
// WaitBackoff. Safe to call more than once.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateFatal {
		s.state = StateFatal
	}
	select {
	case <-s.destroyed:
	default:
		close(s.destroyed)
	}
}

// WaitBackoff blocks for the given delay, returning early with false if
// the session is destroyed in the meantime.
func (s *Session) WaitBackoff(d time.Duration) bool {
	if d <= 0 {
		select {
		case <-s.destroyed:
			return false
		default:
			return true
		}
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-s.destroyed:
		return false
	}
}

// backoffFor returns the delay before the nth retry (1-based): base,
// 2x base, 4x base.
func backoffFor(base time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}
