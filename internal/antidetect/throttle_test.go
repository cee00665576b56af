package antidetect

import (
	"errors"
	"testing"
	"time"

	"github.com/Robertosoftware/rentify-nl/internal/core/domain"
)

func newTestGovernor() (*Governor, *time.Time) {
	g := NewGovernor(0, 0)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return current }
	g.sleep = func(d time.Duration) { current = current.Add(d) }
	return g, &current
}

func TestGovernorCircuitOpensAfterFiveFailures(t *testing.T) {
	g, now := newTestGovernor()

	for i := 0; i < 4; i++ {
		g.RecordFailure("www.pararius.com")
	}
	if err := g.Wait("www.pararius.com"); err != nil {
		t.Fatalf("circuit should still be closed after 4 failures: %v", err)
	}

	g.RecordFailure("www.pararius.com")

	err := g.Wait("www.pararius.com")
	if !errors.Is(err, domain.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen after 5 failures, got %v", err)
	}

	// Just before the cooldown elapses the circuit is still open.
	*now = now.Add(30*time.Minute - time.Second)
	if err := g.Wait("www.pararius.com"); !errors.Is(err, domain.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen just before cooldown expiry, got %v", err)
	}

	*now = now.Add(2 * time.Second)
	if err := g.Wait("www.pararius.com"); err != nil {
		t.Fatalf("expected circuit to close after cooldown, got %v", err)
	}
}

func TestGovernorFailureCounterResetsOnSuccess(t *testing.T) {
	g, _ := newTestGovernor()

	for i := 0; i < 4; i++ {
		g.RecordFailure("www.funda.nl")
	}
	g.RecordSuccess("www.funda.nl")
	g.RecordFailure("www.funda.nl")

	if err := g.Wait("www.funda.nl"); err != nil {
		t.Fatalf("counter should have reset on success, got %v", err)
	}
}

func TestGovernorCircuitIsPerDomain(t *testing.T) {
	g, _ := newTestGovernor()

	for i := 0; i < 5; i++ {
		g.RecordFailure("www.pararius.com")
	}

	if err := g.Wait("www.funda.nl"); err != nil {
		t.Fatalf("unrelated domain must not be gated: %v", err)
	}
}

func TestGovernorEnforcesDelayBetweenRequests(t *testing.T) {
	g := NewGovernor(2*time.Second, 2*time.Second)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var slept time.Duration
	g.now = func() time.Time { return current }
	g.sleep = func(d time.Duration) {
		slept += d
		current = current.Add(d)
	}

	if err := g.Wait("www.kamernet.nl"); err != nil {
		t.Fatal(err)
	}
	if err := g.Wait("www.kamernet.nl"); err != nil {
		t.Fatal(err)
	}

	if slept < 2*time.Second {
		t.Fatalf("second wait should have slept at least the min delay, slept %s", slept)
	}
}
