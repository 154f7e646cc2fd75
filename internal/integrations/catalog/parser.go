package catalog

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"shop-assistant/internal/domain"
)

const (
	titleClass = "list-view-item__title"
	linkClass  = "full-width-link"
)

var priceClasses = []string{"price-item", "price-item--regular"}

// ParseListings extracts product listings from a storefront search page. Each
// title block is paired with the next regular price after it and the nearest
// product link before it, in document order.
func ParseListings(r io.Reader, baseURL string) ([]domain.ProductListing, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse html: %w", err)
	}
	nodes := elements(doc)
	base := strings.TrimRight(baseURL, "/")

	var out []domain.ProductListing
	for i, n := range nodes {
		if n.Data != "div" || !hasClasses(n, titleClass) {
			continue
		}
		listing := domain.ProductListing{
			Title: strings.TrimSpace(textContent(n)),
			Price: domain.PriceUnavailable,
			Link:  domain.LinkUnavailable,
		}
		for _, next := range nodes[i+1:] {
			if next.Data == "span" && hasClasses(next, priceClasses...) {
				listing.Price = strings.TrimSpace(textContent(next))
				break
			}
		}
		for j := i - 1; j >= 0; j-- {
			prev := nodes[j]
			if prev.Data == "a" && hasClasses(prev, linkClass) {
				if href, ok := attr(prev, "href"); ok {
					listing.Link = base + href
				}
				break
			}
		}
		out = append(out, listing)
	}
	return out, nil
}

// elements flattens the element nodes of the tree in document order.
func elements(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClasses(n *html.Node, want ...string) bool {
	classAttr, ok := attr(n, "class")
	if !ok {
		return false
	}
	have := strings.Fields(classAttr)
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
