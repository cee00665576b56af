package scraper

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"github.com/Robertosoftware/rentify-nl/internal/antidetect"
	"github.com/Robertosoftware/rentify-nl/internal/contextkeys"
	"github.com/Robertosoftware/rentify-nl/internal/core/domain"
	"github.com/Robertosoftware/rentify-nl/internal/core/port"

	"github.com/gocolly/colly/v2"
)

// SessionConfig tunes one site's fetch behaviour.
type SessionConfig struct {
	// MaxConcurrent bounds in-flight requests per site.
	MaxConcurrent int
	// Retries caps fetch attempts per URL.
	Retries int
	// MinDelay/MaxDelay bound the randomized delay between detail fetches.
	MinDelay time.Duration
	MaxDelay time.Duration
	// FetchTimeout caps a single request so one hung remote cannot stall
	// the whole run.
	FetchTimeout time.Duration
	// BackoffBase is the base of the exponential backoff for transient
	// failures; RateLimitBackoff the (longer) base used on 429.
	BackoffBase      time.Duration
	RateLimitBackoff time.Duration

	Filters port.SearchFilters
}

func (c *SessionConfig) applyDefaults() {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 2
	}
	if c.Retries <= 0 {
		c.Retries = 3
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 30 * time.Second
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = time.Second
	}
	if c.RateLimitBackoff <= 0 {
		c.RateLimitBackoff = 30 * time.Second
	}
	if c.MaxDelay < c.MinDelay {
		c.MaxDelay = c.MinDelay
	}
}

// Session orchestrates fetch/parse/paginate for one site. All politeness
// and anti-detection state is injected; the session itself is generic and
// only the SiteAdapterPort knows the site's markup.
type Session struct {
	adapter    port.SiteAdapterPort
	governor   *antidetect.Governor
	identities *antidetect.IdentityRotator
	egress     *antidetect.EgressRotator
	cfg        SessionConfig

	sem chan struct{}

	robotsOnce    sync.Once
	robotsAllowed bool

	sleep func(time.Duration)
}

func NewSession(
	adapter port.SiteAdapterPort,
	governor *antidetect.Governor,
	identities *antidetect.IdentityRotator,
	egress *antidetect.EgressRotator,
	cfg SessionConfig,
) *Session {
	cfg.applyDefaults()
	return &Session{
		adapter:    adapter,
		governor:   governor,
		identities: identities,
		egress:     egress,
		cfg:        cfg,
		sem:        make(chan struct{}, cfg.MaxConcurrent),
		sleep:      time.Sleep,
	}
}

func (s *Session) SiteName() string { return s.adapter.SiteName() }

// ScrapeCity walks search pages for a city, fetching each preview's
// detail page. Per-item failures are logged and skipped; a page-level
// failure returns the partial results collected so far.
func (s *Session) ScrapeCity(ctx context.Context, city string, maxPages int) ([]domain.NormalizedListing, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "SiteSession",
		"site":      s.adapter.SiteName(),
		"city":      city,
	})

	searchPath := urlPath(s.adapter.BuildSearchURL(city, 1, s.cfg.Filters))
	if !s.checkRobotsOnce(ctx, searchPath) {
		logger.Warn("Robots rules disallow the search path, skipping site", nil)
		return nil, fmt.Errorf("%w: %s", domain.ErrRobotsDisallowed, s.adapter.SiteName())
	}

	var results []domain.NormalizedListing
	for page := 1; page <= maxPages; page++ {
		pageURL := s.adapter.BuildSearchURL(city, page, s.cfg.Filters)

		body, err := s.fetch(ctx, pageURL)
		if err != nil {
			logger.Error("Search page fetch failed, keeping partial results", err, port.Fields{
				"page": page, "url": pageURL, "collected": len(results),
			})
			return results, err
		}

		previews, err := s.adapter.ParseSearchResults(body)
		if err != nil {
			logger.Error("Search page parse failed, keeping partial results", err, port.Fields{
				"page": page, "url": pageURL,
			})
			return results, err
		}
		if len(previews) == 0 {
			logger.Debug("Empty results page, ending pagination", port.Fields{"page": page})
			break
		}

		for _, preview := range previews {
			s.randomDelay()

			detail, err := s.fetch(ctx, preview.SourceURL)
			if err != nil {
				if errors.Is(err, domain.ErrCircuitOpen) {
					logger.Warn("Circuit opened mid-page, keeping partial results", port.Fields{
						"collected": len(results),
					})
					return results, err
				}
				logger.Warn("Detail fetch failed, skipping listing", port.Fields{
					"url": preview.SourceURL, "error": err.Error(),
				})
				continue
			}

			listing, err := s.adapter.ParseListingDetail(detail)
			if err != nil {
				logger.Warn("Detail parse failed, skipping listing", port.Fields{
					"url": preview.SourceURL, "error": err.Error(),
				})
				continue
			}
			if listing == nil {
				continue
			}

			results = append(results, mergePreview(*listing, preview, city))
		}
	}

	logger.Info("Finished scraping city", port.Fields{"listings": len(results)})
	return results, nil
}

// fetch retrieves a URL with politeness, identity rotation and retry
// classification. It blocks on the per-site concurrency semaphore.
func (s *Session) fetch(ctx context.Context, targetURL string) ([]byte, error) {
	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	parsed, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", targetURL, err)
	}
	host := parsed.Host

	logger := contextkeys.LoggerFromContext(ctx)
	identity := s.identities.GetIdentity(host)

	var lastErr error
	for attempt := 0; attempt < s.cfg.Retries; attempt++ {
		if err := s.governor.Wait(host); err != nil {
			return nil, err
		}

		status, body, route, err := s.doRequest(targetURL, identity)
		if err != nil {
			// Transport-level failure: timeout, reset, proxy trouble.
			s.governor.RecordFailure(host)
			if route != "" {
				s.egress.RecordFailure(route)
			}
			lastErr = err
			if attempt == s.cfg.Retries-1 {
				return nil, fmt.Errorf("fetch %s: %w", targetURL, err)
			}
			s.sleep(s.cfg.BackoffBase << attempt)
			continue
		}
		if route != "" {
			s.egress.RecordSuccess(route)
		}

		switch {
		case status >= 200 && status < 300:
			s.governor.RecordSuccess(host)
			return body, nil

		case status == 429:
			s.governor.RecordFailure(host)
			lastErr = fmt.Errorf("rate limited (429) at %s", targetURL)
			logger.Warn("Rate limited, backing off with a fresh identity", port.Fields{
				"url": targetURL, "attempt": attempt + 1,
			})
			if attempt < s.cfg.Retries-1 {
				s.sleep(s.cfg.RateLimitBackoff << attempt)
			}
			identity = s.identities.GetIdentity(host)

		case status == 403:
			s.governor.RecordFailure(host)
			lastErr = fmt.Errorf("%w: status 403 at %s", domain.ErrBlocked, targetURL)
			identity = s.identities.GetIdentity(host)

		default:
			s.governor.RecordFailure(host)
			lastErr = fmt.Errorf("unexpected status %d at %s", status, targetURL)
			if attempt < s.cfg.Retries-1 {
				s.sleep(s.cfg.BackoffBase << attempt)
			}
		}
	}

	return nil, lastErr
}

// doRequest performs one HTTP exchange. A dedicated collector per request
// keeps the header identity and the proxy choice attributable when the
// exchange fails.
func (s *Session) doRequest(targetURL string, identity antidetect.Identity) (int, []byte, string, error) {
	c := colly.NewCollector(
		colly.UserAgent(identity.UserAgent),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	c.SetRequestTimeout(s.cfg.FetchTimeout)

	route := ""
	if r, ok := s.egress.NextRoute(); ok {
		if err := c.SetProxy(r); err != nil {
			s.egress.RecordFailure(r)
			return 0, nil, "", fmt.Errorf("failed to set egress route %s: %w", r, err)
		}
		route = r
	}

	var (
		status  int
		body    []byte
		respErr error
	)

	c.OnRequest(func(r *colly.Request) {
		for k, v := range identity.Headers {
			r.Headers.Set(k, v)
		}
	})
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			status = r.StatusCode
			body = r.Body
			return
		}
		respErr = err
	})

	if err := c.Visit(targetURL); err != nil && status == 0 && respErr == nil {
		respErr = err
	}
	c.Wait()

	if status == 0 {
		if respErr == nil {
			respErr = fmt.Errorf("no response from %s", targetURL)
		}
		return 0, nil, route, respErr
	}
	return status, body, route, nil
}

func (s *Session) checkRobotsOnce(ctx context.Context, path string) bool {
	s.robotsOnce.Do(func() {
		identity := s.identities.GetIdentity(s.adapter.BaseURL())
		client := robotsClient(s.cfg.FetchTimeout)
		s.robotsAllowed = checkRobots(ctx, client, s.adapter.BaseURL(), path, identity.UserAgent)
	})
	return s.robotsAllowed
}

func (s *Session) randomDelay() {
	if s.cfg.MaxDelay <= 0 {
		return
	}
	delay := s.cfg.MinDelay + time.Duration(rand.Float64()*float64(s.cfg.MaxDelay-s.cfg.MinDelay))
	if delay > 0 {
		s.sleep(delay)
	}
}

// mergePreview folds search-card data into the parsed detail listing. The
// preview is authoritative for identity; the detail page for attributes.
func mergePreview(listing domain.NormalizedListing, preview domain.ListingPreview, city string) domain.NormalizedListing {
	listing.SourceSite = preview.SourceSite
	listing.SourceID = preview.SourceID
	listing.SourceURL = preview.SourceURL
	if preview.Title != "" {
		listing.Title = preview.Title
	}
	if preview.PriceEURCents != nil {
		listing.PriceEURCents = *preview.PriceEURCents
	}
	if listing.City == "" {
		if preview.City != "" {
			listing.City = preview.City
		} else {
			listing.City = city
		}
	}
	return listing
}
