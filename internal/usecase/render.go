package usecase

import (
	"fmt"
	"strings"

	"shop-assistant/internal/domain"
)

// RenderListings formats listings as one message body, one block per listing.
func RenderListings(listings []domain.ProductListing) string {
	blocks := make([]string, len(listings))
	for i, l := range listings {
		blocks[i] = fmt.Sprintf("• ชื่อสินค้า: %s\n  ราคา: %s\n  ลิงค์: %s\n", l.Title, l.Price, l.Link)
	}
	return strings.Join(blocks, "\n\n")
}
