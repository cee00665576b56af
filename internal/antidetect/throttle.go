package antidetect

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	coredomain "github.com/Robertosoftware/rentify-nl/internal/core/domain"
)

const (
	circuitBreakerThreshold = 5
	circuitBreakerCooldown  = 30 * time.Minute
)

type domainState struct {
	lastRequest      time.Time
	failures         int
	circuitOpenUntil time.Time
}

// Governor is the per-domain politeness gate: a randomized rate limiter
// plus a failure-driven circuit breaker. State lives for one process run
// and is never persisted.
type Governor struct {
	mu       sync.Mutex
	minDelay time.Duration
	maxDelay time.Duration
	domains  map[string]*domainState

	// Injectable for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

func NewGovernor(minDelay, maxDelay time.Duration) *Governor {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Governor{
		minDelay: minDelay,
		maxDelay: maxDelay,
		domains:  make(map[string]*domainState),
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

func (g *Governor) state(domain string) *domainState {
	st, ok := g.domains[domain]
	if !ok {
		st = &domainState{}
		g.domains[domain] = st
	}
	return st
}

// Wait blocks until the domain may be contacted again. When the circuit
// is open it returns ErrCircuitOpen immediately; no network action may be
// taken by the caller in that case.
func (g *Governor) Wait(domain string) error {
	g.mu.Lock()
	st := g.state(domain)
	now := g.now()

	if now.Before(st.circuitOpenUntil) {
		until := st.circuitOpenUntil
		g.mu.Unlock()
		return fmt.Errorf("%w: %s until %s", coredomain.ErrCircuitOpen, domain, until.Format(time.RFC3339))
	}

	required := g.minDelay + time.Duration(rand.Float64()*float64(g.maxDelay-g.minDelay))

	// Reserve the next slot before sleeping so concurrent sessions for
	// the same domain queue up instead of firing together.
	wake := st.lastRequest.Add(required)
	if wake.Before(now) {
		wake = now
	}
	st.lastRequest = wake
	g.mu.Unlock()

	if delay := wake.Sub(now); delay > 0 {
		g.sleep(delay)
	}
	return nil
}

// RecordSuccess resets the domain's failure counter.
func (g *Governor) RecordSuccess(domain string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state(domain).failures = 0
}

// RecordFailure counts a failure; at the threshold the circuit opens for
// the cooldown period and the counter starts over.
func (g *Governor) RecordFailure(domain string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	st := g.state(domain)
	st.failures++
	if st.failures >= circuitBreakerThreshold {
		st.circuitOpenUntil = g.now().Add(circuitBreakerCooldown)
		st.failures = 0
	}
}
