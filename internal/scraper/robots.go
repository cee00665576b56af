package scraper

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Robertosoftware/rentify-nl/internal/contextkeys"
	"github.com/Robertosoftware/rentify-nl/internal/core/port"

	"github.com/temoto/robotstxt"
)

// checkRobots fetches and evaluates the site's robots.txt for the given
// path. Any failure to fetch or parse the rules defaults to allowing the
// crawl, matching common crawler practice.
func checkRobots(ctx context.Context, client *http.Client, baseURL, path, userAgent string) bool {
	logger := contextkeys.LoggerFromContext(ctx)

	robotsURL := baseURL + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return true
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		logger.Warn("Could not fetch robots.txt, defaulting to allow", port.Fields{
			"url":   robotsURL,
			"error": err.Error(),
		})
		return true
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return true
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		logger.Warn("Could not parse robots.txt, defaulting to allow", port.Fields{
			"url":   robotsURL,
			"error": err.Error(),
		})
		return true
	}

	return data.TestAgent(path, userAgent)
}

func robotsClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}
