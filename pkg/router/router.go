package router

import (
	"sync"
	"sync/atomic"
	"time"
)

type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

const (
	DefaultFailureThreshold = 5
	DefaultRecoveryTimeout  = 30 * time.Second
)

// Breaker tracks the health of one upstream. It opens after a run of
// consecutive failures and lets a single probe through once the recovery
// timeout has passed.
type Breaker struct {
	mu sync.Mutex

	state    CircuitState
	failures int

	lastFailure time.Time

	inflight atomic.Int64

	threshold int
	recovery  time.Duration
}

func NewBreaker(threshold int, recovery time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}

	if recovery <= 0 {
		recovery = DefaultRecoveryTimeout
	}

	return &Breaker{
		threshold: threshold,
		recovery:  recovery,
	}
}

func (b *Breaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

// Available reports whether a request may be sent. An open circuit turns
// half-open once the recovery timeout has passed.
func (b *Breaker) Available() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitOpen:
		if time.Since(b.lastFailure) < b.recovery {
			return false
		}

		b.state = CircuitHalfOpen
		return b.inflight.Load() == 0

	case CircuitHalfOpen:
		return b.inflight.Load() == 0
	}

	return true
}

func (b *Breaker) Acquire() {
	b.inflight.Add(1)
}

func (b *Breaker) Release() {
	b.inflight.Add(-1)
}

func (b *Breaker) LastFailure() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.lastFailure
}

func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.state = CircuitClosed
}

func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = time.Now()

	if b.state == CircuitHalfOpen || b.failures >= b.threshold {
		b.state = CircuitOpen
	}
}

// ForceHalfOpen is used when every upstream is open and one has to be probed anyway.
func (b *Breaker) ForceHalfOpen() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = CircuitHalfOpen
}
