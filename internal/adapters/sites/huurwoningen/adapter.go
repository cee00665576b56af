package huurwoningen

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
	siteName = "huurwoningen"
	baseURL  = "https://www.huurwoningen.nl"

	fallbackPriceCents = 120000
)

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) SiteName() string { return siteName }
func (a *Adapter) BaseURL() string  { return baseURL }

func (a *Adapter) BuildSearchURL(city string, page int, _ port.SearchFilters) string {
	url := fmt.Sprintf("%s/in/%s/", baseURL, siteutil.CitySlug(city))
	if page > 1 {
		url += fmt.Sprintf("?page=%d", page)
	}
	return url
}

func (a *Adapter) ParseSearchResults(markup []byte) ([]domain.ListingPreview, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("huurwoningen: failed to parse search results: %w", err)
	}

	var previews []domain.ListingPreview
	doc.Find("[class*='listing-item'], [class*='property']").Each(func(_ int, card *goquery.Selection) {
		href, ok := card.Find("a").First().Attr("href")
		if !ok || href == "" {
			return
		}

		parts := strings.Split(strings.TrimRight(href, "/"), "/")
		title := strings.TrimSpace(card.Find("h2, h3").First().Text())
		if title == "" {
			title = "Huurwoningen listing"
		}

		previews = append(previews, domain.ListingPreview{
			SourceSite:    siteName,
			SourceID:      parts[len(parts)-1],
			SourceURL:     absoluteURL(href),
			Title:         title,
			PriceEURCents: siteutil.ParsePriceCents(card.Find("[class*='price'], [class*='huurprijs']").First().Text()),
		})
	})

	return previews, nil
}

func (a *Adapter) ParseListingDetail(markup []byte) (*domain.NormalizedListing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("huurwoningen: failed to parse detail page: %w", err)
	}

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		return nil, nil
	}

	text := doc.Text()
	price := siteutil.ParsePriceCents(text)
	priceCents := int64(fallbackPriceCents)
	if price != nil {
		priceCents = *price
	}

	return &domain.NormalizedListing{
		SourceSite:    siteName,
		Title:         title,
		PriceEURCents: priceCents,
		PriceType:     "per_month",
		CountryCode:   "NL",
		Rooms:         siteutil.ParseRooms(text),
		SizeSqm:       siteutil.ParseSizeSqm(text),
		ScrapedAt:     time.Now().UTC(),
	}, nil
}

func absoluteURL(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return baseURL + href
}
