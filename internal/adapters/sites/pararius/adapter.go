package pararius

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
	siteName = "pararius"
	baseURL  = "https://www.pararius.com"

	// Detail pages occasionally hide the price behind "on request"; the
	// listing is still worth storing with a midrange placeholder.
	fallbackPriceCents = 150000
)

// Adapter parses pararius.com search and detail markup.
type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) SiteName() string { return siteName }
func (a *Adapter) BaseURL() string  { return baseURL }

func (a *Adapter) BuildSearchURL(city string, page int, filters port.SearchFilters) string {
	url := fmt.Sprintf("%s/apartments/%s", baseURL, siteutil.CitySlug(city))
	if filters.MinPriceEUR > 0 || filters.MaxPriceEUR > 0 {
		url += fmt.Sprintf("/%d-%d", filters.MinPriceEUR, filters.MaxPriceEUR)
	}
	if page > 1 {
		url += fmt.Sprintf("/page-%d", page)
	}
	return url
}

func (a *Adapter) ParseSearchResults(markup []byte) ([]domain.ListingPreview, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("pararius: failed to parse search results: %w", err)
	}

	var previews []domain.ListingPreview
	doc.Find("section.listing-search-item").Each(func(_ int, card *goquery.Selection) {
		link := card.Find("a.listing-search-item__link--title").First()
		if link.Length() == 0 {
			link = card.Find("h2.listing-search-item__title a").First()
		}
		if link.Length() == 0 {
			link = card.Find("a").First()
		}
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}

		preview := domain.ListingPreview{
			SourceSite:    siteName,
			SourceID:      sourceIDFromHref(href),
			SourceURL:     absoluteURL(href),
			Title:         strings.TrimSpace(link.Text()),
			PriceEURCents: siteutil.ParsePriceCents(card.Find(".listing-search-item__price").Text()),
		}
		if preview.Title == "" {
			preview.Title = strings.TrimSpace(card.Find(".listing-search-item__title").Text())
		}
		previews = append(previews, preview)
	})

	return previews, nil
}

func (a *Adapter) ParseListingDetail(markup []byte) (*domain.NormalizedListing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("pararius: failed to parse detail page: %w", err)
	}

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find(".listing-detail-summary__title").First().Text())
	}
	if title == "" {
		return nil, nil
	}

	price := siteutil.ParsePriceCents(doc.Find(".listing-detail-summary__price").First().Text())
	priceCents := int64(fallbackPriceCents)
	if price != nil {
		priceCents = *price
	}

	text := doc.Text()

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
