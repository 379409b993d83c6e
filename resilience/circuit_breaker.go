package resilience

import (
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed allows requests to pass through.
	StateClosed State = iota
	// StateOpen blocks all requests.
	StateOpen
	// StateHalfOpen allows a fixed number of trial requests.
	StateHalfOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies this circuit breaker for metrics/logging.
	Name string
	// WindowSize is the number of most recent outcomes kept in the ring buffer.
	WindowSize int
	// FailureRateThreshold is the failure percentage (0-100] that opens the circuit.
	FailureRateThreshold float64
	// WaitDuration is how long the circuit stays open before allowing trials.
	WaitDuration time.Duration
	// HalfOpenMaxCalls is the number of trial calls evaluated in half-open state.
	// Defaults to WindowSize.
	HalfOpenMaxCalls int
	// OnStateChange is called when state changes, with the breaker lock held.
	OnStateChange func(name string, from, to State)
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:                 name,
		WindowSize:           10,
		FailureRateThreshold: 50,
		WaitDuration:         60 * time.Second,
		HalfOpenMaxCalls:     10,
	}
}

// CircuitBreakerMetrics is a point-in-time view of a circuit breaker.
type CircuitBreakerMetrics struct {
	State State `json:"state"`
	// FailureRate is the percentage of failures in the ring buffer,
	// or -1 while the buffer has not filled yet.
	FailureRate       float64 `json:"failure_rate"`
	BufferedCalls     int     `json:"buffered_calls"`
	FailedCalls       int     `json:"failed_calls"`
	NotPermittedCalls int64   `json:"not_permitted_calls"`
}

// Permit is returned by Acquire and ties the outcome of a call to the
// breaker generation that admitted it.
type Permit struct {
	generation uint64
}

// CircuitBreaker implements a count-based circuit breaker.
//
// States:
//   - Closed: outcomes fill a ring buffer of WindowSize entries. Once the buffer
//     has been filled, a failure rate at or above the threshold opens the circuit.
//   - Open: requests fail with ErrCircuitOpen until WaitDuration elapses.
//   - Half-Open: HalfOpenMaxCalls trial requests are admitted. When all of them
//     are recorded the circuit re-opens or closes with a fresh buffer.
//
// Every transition starts a new generation. Outcomes and releases carrying a
// Permit from an older generation are dropped, so a slow call admitted while
// closed never decides a half-open trial.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu         sync.Mutex
	state      State
	openedAt   time.Time
	generation uint64

	ring     []bool // true = failure
	next     int
	filled   bool
	failures int

	trialsAdmitted int
	trialsRecorded int
	trialFailures  int

	notPermitted int64
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.WindowSize <= 0 {
		config.WindowSize = 10
	}
	if config.FailureRateThreshold <= 0 || config.FailureRateThreshold > 100 {
		config.FailureRateThreshold = 50
	}
	if config.WaitDuration <= 0 {
		config.WaitDuration = 60 * time.Second
	}
	if config.HalfOpenMaxCalls <= 0 {
		config.HalfOpenMaxCalls = config.WindowSize
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
		ring:   make([]bool, config.WindowSize),
	}
}

// Name returns the breaker name.
func (cb *CircuitBreaker) Name() string { return cb.config.Name }

// Execute runs fn through the circuit breaker.
// Returns ErrCircuitOpen without calling fn if the circuit does not admit the call.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	permit, err := cb.Acquire()
	if err != nil {
		return err
	}
	err = fn()
	cb.Record(permit, err)
	return err
}

// Acquire asks for permission to run one call. Every successful Acquire must
// be followed by exactly one Record or Release with the returned Permit.
func (cb *CircuitBreaker) Acquire() (Permit, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentState() {
	case StateClosed:
		return Permit{generation: cb.generation}, nil
	case StateHalfOpen:
		if cb.trialsAdmitted < cb.config.HalfOpenMaxCalls {
			cb.trialsAdmitted++
			return Permit{generation: cb.generation}, nil
		}
	}
	cb.notPermitted++
	return Permit{}, ErrCircuitOpen
}

// Record records the outcome of an admitted call. A nil error is a success.
// Outcomes from a generation other than the current one are dropped.
func (cb *CircuitBreaker) Record(p Permit, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state := cb.currentState()
	if p.generation != cb.generation {
		return
	}
	failed := err != nil
	switch state {
	case StateClosed:
		cb.recordClosed(failed)
	case StateHalfOpen:
		cb.recordTrial(failed)
	case StateOpen:
		// dropped
	}
}

// Release gives back an admitted call that produced no outcome, for example
// because the caller went away. It frees a half-open trial slot.
func (cb *CircuitBreaker) Release(p Permit) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.currentState() != StateHalfOpen || p.generation != cb.generation {
		return
	}
	if cb.trialsAdmitted > cb.trialsRecorded {
		cb.trialsAdmitted--
	}
}

// State returns the current circuit breaker state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentState()
}

// Metrics returns a snapshot of the breaker.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	buffered := cb.next
	if cb.filled {
		buffered = len(cb.ring)
	}
	rate := -1.0
	if cb.filled {
		rate = cb.failureRate()
	}
	return CircuitBreakerMetrics{
		State:             cb.currentState(),
		FailureRate:       rate,
		BufferedCalls:     buffered,
		FailedCalls:       cb.failures,
		NotPermittedCalls: cb.notPermitted,
	}
}

// Reset resets the circuit breaker to closed state with an empty buffer.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.toState(StateClosed)
	cb.resetRing()
	cb.generation++
}

func (cb *CircuitBreaker) recordClosed(failed bool) {
	if cb.ring[cb.next] {
		cb.failures--
	}
	cb.ring[cb.next] = failed
	if failed {
		cb.failures++
	}
	cb.next++
	if cb.next == len(cb.ring) {
		cb.next = 0
		cb.filled = true
	}

	if cb.filled && cb.failureRate() >= cb.config.FailureRateThreshold {
		cb.toState(StateOpen)
	}
}

func (cb *CircuitBreaker) recordTrial(failed bool) {
	if cb.trialsRecorded >= cb.trialsAdmitted {
		return
	}
	cb.trialsRecorded++
	if failed {
		cb.trialFailures++
	}
	if cb.trialsRecorded < cb.config.HalfOpenMaxCalls {
		return
	}

	rate := float64(cb.trialFailures) / float64(cb.trialsRecorded) * 100
	if rate >= cb.config.FailureRateThreshold {
		cb.toState(StateOpen)
		return
	}
	cb.toState(StateClosed)
}

func (cb *CircuitBreaker) failureRate() float64 {
	return float64(cb.failures) / float64(len(cb.ring)) * 100
}

func (cb *CircuitBreaker) resetRing() {
	for i := range cb.ring {
		cb.ring[i] = false
	}
	cb.next = 0
	cb.filled = false
	cb.failures = 0
}

// currentState returns the current state, handling the open wait expiry.
func (cb *CircuitBreaker) currentState() State {
	if cb.state == StateOpen && time.Since(cb.openedAt) >= cb.config.WaitDuration {
		cb.toState(StateHalfOpen)
	}
	return cb.state
}

// toState transitions to a new state.
func (cb *CircuitBreaker) toState(to State) {
	if cb.state == to {
		return
	}

	from := cb.state
	cb.state = to
	cb.generation++

	cb.trialsAdmitted = 0
	cb.trialsRecorded = 0
	cb.trialFailures = 0
	switch to {
	case StateClosed:
		cb.resetRing()
	case StateOpen:
		cb.openedAt = time.Now()
	}

	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}
