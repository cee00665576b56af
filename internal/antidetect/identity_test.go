package antidetect

import "testing"

func TestIdentityRotatorNeverRepeatsImmediately(t *testing.T) {
	r := NewIdentityRotator()

	prev := r.GetIdentity("www.pararius.com")
	for i := 0; i < 50; i++ {
		next := r.GetIdentity("www.pararius.com")
		if next.UserAgent == prev.UserAgent {
			t.Fatalf("call %d returned the same User-Agent twice in a row: %s", i, next.UserAgent)
		}
		prev = next
	}
}

func TestIdentityRotatorVariesAcrossCalls(t *testing.T) {
	r := NewIdentityRotator()

	seen := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		seen[r.GetIdentity("www.funda.nl").UserAgent] = struct{}{}
	}
	if len(seen) < 2 {
		t.Fatalf("20 calls produced only %d distinct User-Agents", len(seen))
	}
}

func TestIdentityRotatorTracksDomainsIndependently(t *testing.T) {
	r := NewIdentityRotator()

	// Exhausting one domain's rotation must not affect another's pool.
	for i := 0; i < 10; i++ {
		r.GetIdentity("www.pararius.com")
	}
	id := r.GetIdentity("www.kamernet.nl")
	if id.UserAgent == "" {
		t.Fatal("expected a User-Agent for a fresh domain")
	}
	if id.Headers["Accept-Language"] == "" {
		t.Fatal("identity bundle is missing Accept-Language")
	}
}
