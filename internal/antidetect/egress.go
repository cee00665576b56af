package antidetect

import "sync"

// egressFailureLimit is the number of consecutive failures after which a
// route is retired for good.
const egressFailureLimit = 3

// EgressRotator round-robins outbound routes (proxy URLs). Routes that
// keep failing are removed permanently; an unconfigured rotator simply
// yields nothing and traffic goes out directly.
type EgressRotator struct {
	mu       sync.Mutex
	routes   []string
	next     int
	failures map[string]int
}

func NewEgressRotator(routes []string) *EgressRotator {
	clean := make([]string, 0, len(routes))
	for _, r := range routes {
		if r != "" {
			clean = append(clean, r)
		}
	}
	return &EgressRotator{
		routes:   clean,
		failures: make(map[string]int),
	}
}

// NextRoute returns the next route in rotation, or ok=false when no
// routes remain.
func (e *EgressRotator) NextRoute() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.routes) == 0 {
		return "", false
	}
	route := e.routes[e.next%len(e.routes)]
	e.next++
	return route, true
}

// RecordSuccess resets the consecutive-failure count for a route.
func (e *EgressRotator) RecordSuccess(route string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.failures, route)
}

// RecordFailure counts a failure; at the limit the route is removed and
// the rotation set rebuilt.
func (e *EgressRotator) RecordFailure(route string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.failures[route]++
	if e.failures[route] < egressFailureLimit {
		return
	}

	remaining := make([]string, 0, len(e.routes))
	for _, r := range e.routes {
		if r != route {
			remaining = append(remaining, r)
		}
	}
	e.routes = remaining
	e.next = 0
	delete(e.failures, route)
}

// Size returns the number of routes still in rotation.
func (e *EgressRotator) Size() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.routes)
}
