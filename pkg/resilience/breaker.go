// Package resilience guards the store's database calls: a circuit breaker
// trips after a run of failed calls to one guarded Operation so a
// struggling Postgres instance isn't hammered by every concurrent
// ingestion worker retrying at once, and a Registry keeps one breaker per
// Operation so a slow advisory feed doesn't trip the breaker guarding
// ordinary SBOM ingestion.
package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/trustgraph/core/pkg/errs"
)

// State is one state in the breaker's closed/open/half-open state machine.
type State int

const (
	// StateClosed allows calls through and counts failures.
	StateClosed State = iota

	// StateOpen rejects every call until Timeout elapses.
	StateOpen

	// StateHalfOpen allows a bounded number of trial calls to test recovery.
	StateHalfOpen
)

// String implements fmt.Stringer.
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

// Operation names one class of store call a breaker independently guards.
// A slow advisory feed and an overloaded ingestion path fail for unrelated
// reasons and must not trip each other's breaker.
type Operation int

const (
	OpIngest Operation = iota
	OpQuery
	OpAdvisoryFeed
)

var operationNames = map[Operation]string{
	OpIngest:       "ingest",
	OpQuery:        "query",
	OpAdvisoryFeed: "advisory_feed",
}

// String implements fmt.Stringer.
func (o Operation) String() string {
	if s, ok := operationNames[o]; ok {
		return s
	}
	return "unknown"
}

// Config configures a Breaker's thresholds and failure classification.
type Config struct {
	// MaxFailures is the threshold to trip the circuit.
	MaxFailures int

	// Timeout is how long the circuit stays open before a trial call is let
	// through.
	Timeout time.Duration

	// HalfOpenMaxCalls is how many trial calls to allow in the half-open
	// state before deciding whether to close or re-open.
	HalfOpenMaxCalls int

	// OnTrip, if set, is called (asynchronously, off the calling goroutine)
	// every time the breaker changes state on its own (Reset does not call
	// it). Callers use this to log a
	// warning when a guarded operation's breaker opens.
	OnTrip func(op Operation, from, to State)

	// IsFailure classifies err as a breaker-tripping failure. The default,
	// used when nil, counts only errs.Db errors: a malformed purl or an
	// unknown search field is a caller mistake, not a sign the database is
	// unhealthy, and must not contribute to tripping the breaker.
	IsFailure func(err error) bool
}

// DefaultConfig returns the thresholds used when a caller doesn't override
// them.
func DefaultConfig() *Config {
	return &Config{
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// Breaker implements the circuit breaker pattern for one Operation.
type Breaker struct {
	op     Operation
	config *Config

	mu            sync.RWMutex
	state         State
	failures      int
	successes     int
	lastFailure   time.Time
	halfOpenCalls int
}

// NewBreaker creates a Breaker guarding op.
func NewBreaker(op Operation, config *Config) *Breaker {
	if config == nil {
		config = DefaultConfig()
	}
	return &Breaker{op: op, config: config, state: StateClosed}
}

// Execute runs fn under the breaker's protection: rejected immediately with
// an *OpenError if the circuit is open, otherwise run and its result
// classified as success or failure.
func (b *Breaker) Execute(ctx context.Context, fn func() (any, error)) (any, error) {
	if err := b.beforeCall(); err != nil {
		return nil, err
	}
	result, err := fn()
	b.afterCall(err)
	return result, err
}

func (b *Breaker) beforeCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil

	case StateOpen:
		if time.Since(b.lastFailure) >= b.config.Timeout {
			b.transition(StateHalfOpen)
			b.halfOpenCalls = 1
			return nil
		}
		return &OpenError{Op: b.op, RetryAt: b.lastFailure.Add(b.config.Timeout), Failures: b.failures}

	case StateHalfOpen:
		if b.halfOpenCalls < b.config.HalfOpenMaxCalls {
			b.halfOpenCalls++
			return nil
		}
		return &OpenError{Op: b.op, RetryAt: time.Now().Add(time.Second), Failures: b.failures}
	}

	return nil
}

func (b *Breaker) afterCall(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.isFailure(err) {
		b.recordSuccess()
	} else {
		b.recordFailure()
	}
}

func (b *Breaker) isFailure(err error) bool {
	if err == nil {
		return false
	}
	if b.config.IsFailure != nil {
		return b.config.IsFailure(err)
	}
	return errs.Is(err, errs.Db)
}

func (b *Breaker) recordSuccess() {
	switch b.state {
	case StateClosed:
		b.failures = 0

	case StateHalfOpen:
		b.successes++
		if b.successes >= b.config.HalfOpenMaxCalls {
			b.transition(StateClosed)
			b.failures = 0
			b.successes = 0
		}
	}
}

func (b *Breaker) recordFailure() {
	b.failures++
	b.lastFailure = time.Now()

	switch b.state {
	case StateClosed:
		if b.failures >= b.config.MaxFailures {
			b.transition(StateOpen)
		}

	case StateHalfOpen:
		b.transition(StateOpen)
		b.successes = 0
	}
}

func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to

	if b.config.OnTrip != nil {
		go b.config.OnTrip(b.op, from, to)
	}
}

// State returns the breaker's current state.
func (b *Breaker) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Failures returns the current consecutive-failure count.
func (b *Breaker) Failures() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.failures
}

// Reset forces the breaker back to closed, clearing its failure count. Used
// by operators recovering from a known-resolved outage without waiting out
// the timeout.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failures = 0
	b.successes = 0
	b.halfOpenCalls = 0
}

// OpenError is returned by Execute when the breaker rejects a call because
// its circuit is open.
type OpenError struct {
	Op       Operation
	RetryAt  time.Time
	Failures int
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit breaker for %s is open (failures=%d, retry at %s)",
		e.Op, e.Failures, e.RetryAt.Format(time.RFC3339))
}

// RetryAfter returns the duration until the breaker will admit a trial
// call, or zero if that moment has already passed.
func (e *OpenError) RetryAfter() time.Duration {
	d := time.Until(e.RetryAt)
	if d < 0 {
		return 0
	}
	return d
}

// Registry keeps one Breaker per guarded Operation, created lazily on first
// use and shared by every caller guarding that operation.
type Registry struct {
	mu       sync.RWMutex
	breakers map[Operation]*Breaker
	config   *Config
}

// NewRegistry creates a Registry whose breakers share defaultConfig.
func NewRegistry(defaultConfig *Config) *Registry {
	if defaultConfig == nil {
		defaultConfig = DefaultConfig()
	}
	return &Registry{breakers: make(map[Operation]*Breaker), config: defaultConfig}
}

// Get returns the Breaker guarding op, creating it on first use.
func (r *Registry) Get(op Operation) *Breaker {
	r.mu.RLock()
	if b, ok := r.breakers[op]; ok {
		r.mu.RUnlock()
		return b
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[op]; ok {
		return b
	}

	b := NewBreaker(op, r.config)
	r.breakers[op] = b
	return b
}

// ResetAll resets every breaker the registry has created.
func (r *Registry) ResetAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, b := range r.breakers {
		b.Reset()
	}
}
