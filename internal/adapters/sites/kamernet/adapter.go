package kamernet

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Robertosoftware/rentify-nl/internal/adapters/sites/siteutil"
	"github.com/Robertosoftware/rentify-nl/internal/core/domain"
	"github.com/Robertosoftware/rentify-nl/internal/core/port"

	"github.com/PuerkitoBio/goquery"
)

const (
	siteName = "kamernet"
	baseURL  = "https://kamernet.nl"

	fallbackPriceCents = 80000
)

var numericIDRe = regexp.MustCompile(`/(\d+)`)

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) SiteName() string { return siteName }
func (a *Adapter) BaseURL() string  { return baseURL }

func (a *Adapter) BuildSearchURL(city string, page int, filters port.SearchFilters) string {
	maxRent := int64(2000)
	if filters.MaxPriceEUR > 0 {
		maxRent = filters.MaxPriceEUR
	}
	return fmt.Sprintf("%s/huren/kamer-%s?listingTypes=1,2,3&maxRent=%d&pageNo=%d",
		baseURL, siteutil.CitySlug(city), maxRent, page)
}

func (a *Adapter) ParseSearchResults(markup []byte) ([]domain.ListingPreview, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("kamernet: failed to parse search results: %w", err)
	}

	var previews []domain.ListingPreview
	doc.Find("[class*='listing-card'], [class*='result-item']").Each(func(_ int, card *goquery.Selection) {
		href, ok := card.Find("a").First().Attr("href")
		if !ok || href == "" {
			return
		}

		sourceID := ""
		if m := numericIDRe.FindStringSubmatch(href); m != nil {
			sourceID = m[1]
		} else {
			parts := strings.Split(strings.TrimRight(href, "/"), "/")
			sourceID = parts[len(parts)-1]
		}

		title := strings.TrimSpace(card.Find("h2, h3").First().Text())
		if title == "" {
			title = "Kamernet listing"
		}

		previews = append(previews, domain.ListingPreview{
			SourceSite:    siteName,
			SourceID:      sourceID,
			SourceURL:     absoluteURL(href),
			Title:         title,
			PriceEURCents: siteutil.ParsePriceCents(card.Find("[class*='price'], [class*='rent']").First().Text()),
		})
	})

	return previews, nil
}

func (a *Adapter) ParseListingDetail(markup []byte) (*domain.NormalizedListing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("kamernet: failed to parse detail page: %w", err)
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
