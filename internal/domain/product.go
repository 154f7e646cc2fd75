package domain

const (
	PriceUnavailable = "Price not available"
	LinkUnavailable  = "Link not available"
)

// ProductListing is one storefront search result. Price keeps the storefront's
// currency formatting, e.g. "฿1,234.00".
type ProductListing struct {
	Title string
	Price string
	Link  string
}
