package funda

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/Robertosoftware/rentify-nl/internal/adapters/sites/siteutil"
	"github.com/Robertosoftware/rentify-nl/internal/core/domain"
	"github.com/Robertosoftware/rentify-nl/internal/core/port"

	"github.com/PuerkitoBio/goquery"
)

const (
	siteName = "funda"
	baseURL  = "https://www.funda.nl"

	fallbackPriceCents = 100000
)

// Adapter parses funda.nl rental search and detail markup.
type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) SiteName() string { return siteName }
func (a *Adapter) BaseURL() string  { return baseURL }

func (a *Adapter) BuildSearchURL(city string, page int, _ port.SearchFilters) string {
	url := fmt.Sprintf("%s/huur/%s/beschikbaar/", baseURL, siteutil.CitySlug(city))
	if page > 1 {
		url += fmt.Sprintf("p%d/", page)
	}
	return url
}

func (a *Adapter) ParseSearchResults(markup []byte) ([]domain.ListingPreview, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("funda: failed to parse search results: %w", err)
	}

	cards := doc.Find("div[data-test-id='search-result-item']")
	if cards.Length() == 0 {
		cards = doc.Find("li.search-result")
	}

	var previews []domain.ListingPreview
	cards.Each(func(_ int, card *goquery.Selection) {
		var href string
		card.Find("a[href]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
			h, _ := link.Attr("href")
			if strings.Contains(h, "/huur/") {
				href = h
				return false
			}
			return true
		})
		if href == "" {
			return
		}

		title := strings.TrimSpace(card.Find("h2, h3").First().Text())
		if title == "" {
			title = "Funda listing"
		}

		previews = append(previews, domain.ListingPreview{
			SourceSite:    siteName,
			SourceID:      sourceIDFromHref(href),
			SourceURL:     absoluteURL(href),
			Title:         title,
			PriceEURCents: siteutil.ParsePriceCents(card.Find("[class*='price']").First().Text()),
		})
	})

	return previews, nil
}

func (a *Adapter) ParseListingDetail(markup []byte) (*domain.NormalizedListing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("funda: failed to parse detail page: %w", err)
	}

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find(".object-header__title").First().Text())
	}
	if title == "" {
		return nil, nil
	}

	price := siteutil.ParsePriceCents(doc.Find("[class*='price']").First().Text())
	priceCents := int64(fallbackPriceCents)
	if price != nil {
		priceCents = *price
	}

	var address *string
	if addr := strings.TrimSpace(doc.Find(".object-header__subtitle").First().Text()); addr != "" {
		address = &addr
	}

	text := doc.Text()

	return &domain.NormalizedListing{
		SourceSite:    siteName,
		Title:         title,
		PriceEURCents: priceCents,
		PriceType:     "per_month",
		CountryCode:   "NL",
		Address:       address,
		Rooms:         siteutil.ParseRooms(text),
		SizeSqm:       siteutil.ParseSizeSqm(text),
		ScrapedAt:     time.Now().UTC(),
	}, nil
}

func sourceIDFromHref(href string) string {
	trimmed := strings.TrimRight(href, "/")
	parts := strings.Split(trimmed, "/")
	return parts[len(parts)-1]
}

func absoluteURL(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return baseURL + href
}
