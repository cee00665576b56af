package siteutil

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	priceRe = regexp.MustCompile(`\d[\d.,]*`)
	sqmRe   = regexp.MustCompile(`(\d+)\s*m²`)
	roomsRe = regexp.MustCompile(`(?i)(\d+)\s+(?:rooms?|kamers?)`)
)

// ParsePriceCents extracts a monthly rent in euro cents from price text
// like "€ 1.500 /maand" or "€1,250 per month". Dutch listings use both
// "." and "," as thousands separators, so both are stripped. Malformed
// input yields nil ("unknown"), never zero.
func ParsePriceCents(text string) *int64 {
	m := priceRe.FindString(text)
	if m == "" {
		return nil
	}
	cleaned := strings.NewReplacer(".", "", ",", "").Replace(m)
	euros, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return nil
	}
	cents := euros * 100
	return &cents
}

// ParseSizeSqm extracts a surface area like "60 m²" from free text.
func ParseSizeSqm(text string) *int {
	m := sqmRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	size, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &size
}

// ParseRooms extracts a room count like "3 rooms" or "3 kamers".
func ParseRooms(text string) *float64 {
	m := roomsRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &n
}

// NormalizeCity returns the storage form of a city name: trimmed and
// lower-cased with Dutch casing rules (IJ digraph and the like).
// A Caser carries transform state, so one is built per call rather than
// shared across the concurrently running site sessions.
func NormalizeCity(city string) string {
	return cases.Lower(language.Dutch).String(strings.TrimSpace(city))
}

// CitySlug returns the URL path form of a city, e.g. "Den Haag" ->
// "den-haag".
func CitySlug(city string) string {
	slug := NormalizeCity(city)
	slug = strings.ReplaceAll(slug, " ", "-")
	return strings.ReplaceAll(slug, "'", "")
}
