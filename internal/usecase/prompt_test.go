package usecase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"shop-assistant/internal/domain"
)

func TestStripPoliteness(t *testing.T) {
	tests := map[string]string{
		"สวัสดีครับ":      "สวัสดี",
		"ขอบคุณค่ะ":       "ขอบคุณ",
		"ช่วยหน่อยนะจ้ะ":  "ช่วยหน่อย",
		"ไปก่อนนะครับ":    "ไปก่อน",
		"  ค้นหา โดรน  ": "ค้นหา โดรน",
		"ครับ":            "ครับ",
	}
	for in, want := range tests {
		require.Equal(t, want, stripPoliteness(in), in)
	}
}

func TestBuildGenerationPrompt(t *testing.T) {
	require.Equal(t,
		"ผู้ตอบเป็นผู้เชี่ยวชาญเรื่องโดรน ผู้ถามชื่อ คุณนิด ตอบสั้นๆไม่เกิน 20 คำ เกี่ยวกับ 'ใบพัด ขนาด 5 นิ้ว'",
		buildGenerationPrompt("นิด", "ใบพัด   ขนาด 5\nนิ้ว"))
	require.Equal(t,
		"ผู้ตอบเป็นผู้เชี่ยวชาญเรื่องโดรน ตอบสั้นๆไม่เกิน 20 คำ เกี่ยวกับ 'มอเตอร์'",
		buildGenerationPrompt(" ", "มอเตอร์"))
}

func TestRenderListings(t *testing.T) {
	got := RenderListings([]domain.ProductListing{
		{Title: "A", Price: "฿1", Link: "https://x/a"},
		{Title: "B", Price: "฿2", Link: "https://x/b"},
	})
	require.Equal(t,
		"• ชื่อสินค้า: A\n  ราคา: ฿1\n  ลิงค์: https://x/a\n\n\n• ชื่อสินค้า: B\n  ราคา: ฿2\n  ลิงค์: https://x/b\n",
		got)
}
