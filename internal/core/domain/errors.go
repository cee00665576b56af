package domain

import "errors"

var (
	// ErrCircuitOpen is returned by the politeness governor when a domain
	// is inside its cooldown window. No network action was taken.
	ErrCircuitOpen = errors.New("circuit breaker open for domain")

	// ErrBlocked marks a fetch that exhausted its retries on 403 responses.
	ErrBlocked = errors.New("request blocked by remote site")

	// ErrRobotsDisallowed marks a site whose robots rules forbid the
	// search path for our crawler.
	ErrRobotsDisallowed = errors.New("fetch disallowed by robots.txt")
)
