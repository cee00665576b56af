package antidetect

import (
	"math/rand"
	"sync"
)

// Identity is one outbound request identity: the User-Agent plus the
// header set that goes with it.
type Identity struct {
	UserAgent string
	Headers   map[string]string
}

// IdentityRotator hands out identities per target domain, never repeating
// the previous User-Agent for a domain when the pool allows it.
type IdentityRotator struct {
	mu        sync.Mutex
	agents    []string
	languages []string
	lastUA    map[string]string
}

func NewIdentityRotator() *IdentityRotator {
	return &IdentityRotator{
		agents:    append([]string(nil), userAgents...),
		languages: append([]string(nil), acceptLanguages...),
		lastUA:    make(map[string]string),
	}
}

// GetIdentity picks an identity for the domain and records it as the
// domain's last-used one.
func (r *IdentityRotator) GetIdentity(domain string) Identity {
	r.mu.Lock()
	defer r.mu.Unlock()

	candidates := make([]string, 0, len(r.agents))
	for _, ua := range r.agents {
		if ua != r.lastUA[domain] {
			candidates = append(candidates, ua)
		}
	}
	if len(candidates) == 0 {
		candidates = r.agents
	}
	ua := candidates[rand.Intn(len(candidates))]
	r.lastUA[domain] = ua

	headers := map[string]string{
		"User-Agent":                ua,
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language":           r.languages[rand.Intn(len(r.languages))],
		"Accept-Encoding":           "gzip, deflate, br",
		"DNT":                       "1",
		"Upgrade-Insecure-Requests": "1",
	}
	// Occasionally diversify with headers a real browser session carries.
	if rand.Float64() < 0.3 {
		headers["Referer"] = "https://www.google.com/"
	}
	if rand.Float64() < 0.5 {
		headers["Connection"] = "keep-alive"
	}

	return Identity{UserAgent: ua, Headers: headers}
}
