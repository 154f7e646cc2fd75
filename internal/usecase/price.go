package usecase

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"shop-assistant/internal/domain"
)

var (
	nonPriceChars = regexp.MustCompile(`[^\d.]`)
	digitRuns     = regexp.MustCompile(`\d+`)
)

// ParsePrice normalizes a storefront price such as "฿1,234.00" to a number.
// It reports false for unavailable or unparseable prices.
func ParsePrice(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == domain.PriceUnavailable {
		return 0, false
	}
	cleaned := nonPriceChars.ReplaceAllString(raw, "")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseCeiling reads the amount from a "below N" utterance. Every digit run is
// concatenated, so "ต่ำกว่า 1,000" gives 1000.
func ParseCeiling(text string) (int, bool) {
	text = strings.ReplaceAll(text, kwCeiling, "")
	text = strings.ReplaceAll(text, kwApprox, "")
	digits := strings.Join(digitRuns.FindAllString(text, -1), "")
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

type pricedListing struct {
	listing domain.ProductListing
	price   float64
}

// pricedOnly drops listings without a usable price, keeping page order.
func pricedOnly(listings []domain.ProductListing) []pricedListing {
	out := make([]pricedListing, 0, len(listings))
	for _, l := range listings {
		if p, ok := ParsePrice(l.Price); ok {
			out = append(out, pricedListing{listing: l, price: p})
		}
	}
	return out
}

func below(items []pricedListing, ceiling int) []pricedListing {
	out := items[:0:0]
	for _, it := range items {
		if it.price < float64(ceiling) {
			out = append(out, it)
		}
	}
	return out
}

// sortByPrice orders items by price. Equal prices keep page order in both
// directions.
func sortByPrice(items []pricedListing, descending bool) {
	slices.SortStableFunc(items, func(a, b pricedListing) int {
		if descending {
			return cmp.Compare(b.price, a.price)
		}
		return cmp.Compare(a.price, b.price)
	})
}

func listingsOf(items []pricedListing) []domain.ProductListing {
	out := make([]domain.ProductListing, len(items))
	for i, it := range items {
		out[i] = it.listing
	}
	return out
}
