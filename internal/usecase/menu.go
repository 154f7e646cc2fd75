package usecase

import "shop-assistant/internal/domain"

// Trigger keywords of the product flow.
const (
	kwSearch   = "ค้นหา"
	kwCeiling  = "ต่ำกว่า"
	kwApprox   = "ประมาณ"
	kwShowAll  = "แสดงทั้งหมด"
	kwSortMenu = "เรียงลำดับราคา"
	kwSortAsc  = "ถูกสุดไปแพงสุด"
	kwSortDesc = "แพงสุดไปถูกสุด"
	kwName     = "ชื่อ"
	kwWhat     = "อะไร"
	kwBelieve  = "เชื่อ"
	kwDetails  = "รายละเอียดเพิ่มเติม"
)

// Canned reply texts.
const (
	msgChooseCategory = "กรุณาเลือกประเภทสินค้า:"
	msgChooseMore     = "กรุณาเลือกเพิ่มเติม:"
	msgChooseSort     = "กรุณาเลือกเพิ่มเติม : "
	msgAskCeiling     = "ต้องการเรทราคาต่ำกว่าเท่าไหร่ครับ (ต่ำกว่า+จำนวนเงิน)\nหรือเลือกแสดงทั้งหมดครับ"
	msgAskSearchTerm  = "กรุณาระบุสินค้าที่ต้องการค้นหาครับ (ค้นหา+ชื่อสินค้า)"
	msgSearchFirst    = "กรุณาค้นหาสินค้าก่อนครับ (ค้นหา+ชื่อสินค้า)"
	msgNoProducts     = "ขออภัย ไม่มีรายการสินค้าที่ตรงกับความต้องการของคุณครับ"
	msgNameUnknown    = "ขอโทษค่ะ ฉันไม่ทราบชื่อของคุณ"
	msgNameIsFmt      = "ชื่อของคุณคือ %s ค่ะ"
	msgNameThanksFmt  = "ขอบคุณที่แนะนำตัวค่ะ %s"
	msgNameMissing    = "ไม่สามารถระบุชื่อได้ กรุณาระบุชื่อของคุณค่ะ"
	msgGenerationFail = "เกิดข้อผิดพลาดในการติดต่อ LLaMA"

	suffixKa  = " ค่ะ"
	suffixKrb = "ครับ"
)

// Policy thresholds for similarity matches, exclusive.
const (
	greetingThreshold  = 0.6
	nameQueryThreshold = 0.7
)

var nameQueryExemplars = []string{"ชื่ออะไร", "ผมชื่ออะไร", "ชื่อของฉัน"}

// menuEntry maps a trigger phrase to a prompt and its quick-reply buttons.
type menuEntry struct {
	trigger string
	prompt  string
	options []domain.QuickReplyOption
}

// menuTable is checked in order and the first contained trigger wins.
var menuTable = []menuEntry{
	{
		trigger: "ตัวเลือก",
		prompt:  msgChooseCategory,
		options: []domain.QuickReplyOption{
			{Label: "แบตเตอรี่", Text: kwSearch + " แบตเตอรี่"},
			{Label: "โดรน", Text: kwSearch + " โดรน"},
			{Label: "Accessories", Text: kwSearch + " Accessories"},
		},
	},
	{
		trigger: "สอบถามข้อมูล",
		prompt:  msgChooseCategory,
		options: []domain.QuickReplyOption{
			{Label: "แบตเตอรี่", Text: kwDetails + " Battery"},
			{Label: "โดรน", Text: kwDetails + " Drone"},
			{Label: "Accessories", Text: kwDetails + " Accessories"},
		},
	},
	{
		trigger: kwDetails + " Battery",
		prompt:  msgChooseMore,
		options: detailOptions("แบตเตอรี่1s", "แบตเตอรี่2s", "แบตเตอรี่3s", "แบตเตอรี่4s", "แบตเตอรี่6s"),
	},
	{
		trigger: kwDetails + " Drone",
		prompt:  msgChooseMore,
		options: detailOptions("Betafpv", "GEPRC", "FLYFISH RC", "Happymodel", "iFlight", "Team Black Sheep", "ToolkitRC"),
	},
	{
		trigger: kwDetails + " Accessories",
		prompt:  msgChooseMore,
		options: detailOptions("6s-batt", "กล้อง", "กระดองครอบ", "เฟรม", "บอร์ด", "ตัวรับสัญญาณ",
			"ตัวส่งสัญญาณภาพ", "มอเตอร์", "ใบพัด", "อุปกรณ์ชาร์จ", "เครื่องมือจำเป็น"),
	},
}

func detailOptions(names ...string) []domain.QuickReplyOption {
	out := make([]domain.QuickReplyOption, len(names))
	for i, n := range names {
		out[i] = domain.QuickReplyOption{Label: n, Text: kwDetails + " " + n}
	}
	return out
}

func option(text string) domain.QuickReplyOption {
	return domain.QuickReplyOption{Label: text, Text: text}
}

var (
	searchPromptOptions = []domain.QuickReplyOption{option(kwShowAll)}
	sortMenuOptions     = []domain.QuickReplyOption{option(kwSortAsc), option(kwSortDesc)}
	ceilingOptions      = []domain.QuickReplyOption{option(kwShowAll), option(kwSortMenu)}
	showAllOptions      = []domain.QuickReplyOption{option(kwSortMenu)}
)
