package intel

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// CircuitState is the state of a provider circuit breaker.
type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half_open"
)

// ErrCircuitOpen is returned when a call is refused because the provider
// has been failing.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures circuit breaker behavior
type CircuitBreakerConfig struct {
	FailureThreshold int           // Consecutive failures that open the circuit
	SuccessThreshold int           // Successes in half-open that close it again
	Timeout          time.Duration // How long the circuit stays open before a probe
	MaxProbes        int           // Calls allowed through while half-open
}

// circuitBreaker stops calling a provider that keeps failing, so a dead
// upstream costs one fast refusal instead of a full timeout per URL.
type circuitBreaker struct {
	config          CircuitBreakerConfig
	state           int32 // atomic: 0=closed, 1=open, 2=half-open
	lastFailureTime int64 // atomic: unix nano
	failureCount    int64 // atomic
	successCount    int64 // atomic
	probeCount      int64 // atomic
	mutex           sync.RWMutex
	onStateChange   func(from, to CircuitState)
	now             func() time.Time
}

func newCircuitBreaker(config CircuitBreakerConfig) *circuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxProbes <= 0 {
		config.MaxProbes = 1
	}

	return &circuitBreaker{
		config: config,
		now:    time.Now,
	}
}

// Execute runs fn unless the circuit is open.
func (cb *circuitBreaker) Execute(fn func() error) error {
	if !cb.allowRequest() {
		return ErrCircuitOpen
	}

	err := fn()
	if err != nil {
		cb.recordFailure()
	} else {
		cb.recordSuccess()
	}
	return err
}

// State returns the current circuit state
func (cb *circuitBreaker) State() CircuitState {
	switch atomic.LoadInt32(&cb.state) {
	case 1:
		return CircuitOpen
	case 2:
		return CircuitHalfOpen
	default:
		return CircuitClosed
	}
}

// SetStateChangeCallback sets a callback for state changes
func (cb *circuitBreaker) SetStateChangeCallback(callback func(from, to CircuitState)) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.onStateChange = callback
}

func (cb *circuitBreaker) allowRequest() bool {
	switch atomic.LoadInt32(&cb.state) {
	case 0:
		return true

	case 1:
		lastFailure := atomic.LoadInt64(&cb.lastFailureTime)
		if cb.now().Sub(time.Unix(0, lastFailure)) < cb.config.Timeout {
			return false
		}
		if atomic.CompareAndSwapInt32(&cb.state, 1, 2) {
			atomic.StoreInt64(&cb.probeCount, 0)
			atomic.StoreInt64(&cb.successCount, 0)
			cb.notifyStateChange(CircuitOpen, CircuitHalfOpen)
		}
		return atomic.AddInt64(&cb.probeCount, 1) <= int64(cb.config.MaxProbes)

	case 2:
		return atomic.AddInt64(&cb.probeCount, 1) <= int64(cb.config.MaxProbes)

	default:
		return false
	}
}

func (cb *circuitBreaker) recordFailure() {
	atomic.StoreInt64(&cb.lastFailureTime, cb.now().UnixNano())

	// A failed probe reopens immediately.
	if atomic.CompareAndSwapInt32(&cb.state, 2, 1) {
		cb.notifyStateChange(CircuitHalfOpen, CircuitOpen)
		return
	}

	failures := atomic.AddInt64(&cb.failureCount, 1)
	if failures >= int64(cb.config.FailureThreshold) {
		if atomic.CompareAndSwapInt32(&cb.state, 0, 1) {
			cb.notifyStateChange(CircuitClosed, CircuitOpen)
		}
	}
}

func (cb *circuitBreaker) recordSuccess() {
	switch atomic.LoadInt32(&cb.state) {
	case 0:
		atomic.StoreInt64(&cb.failureCount, 0)
	case 2:
		successes := atomic.AddInt64(&cb.successCount, 1)
		if successes >= int64(cb.config.SuccessThreshold) {
			if atomic.CompareAndSwapInt32(&cb.state, 2, 0) {
				atomic.StoreInt64(&cb.failureCount, 0)
				atomic.StoreInt64(&cb.successCount, 0)
				atomic.StoreInt64(&cb.probeCount, 0)
				cb.notifyStateChange(CircuitHalfOpen, CircuitClosed)
			}
		} else {
			// Let the next probe through.
			atomic.AddInt64(&cb.probeCount, -1)
		}
	}
}

func (cb *circuitBreaker) notifyStateChange(from, to CircuitState) {
	cb.mutex.RLock()
	callback := cb.onStateChange
	cb.mutex.RUnlock()
	if callback != nil {
		callback(from, to)
	}
}
