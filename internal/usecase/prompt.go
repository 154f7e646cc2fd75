package usecase

import (
	"fmt"
	"strings"
)

// Trailing politeness particles, longest first so "นะจ้ะ" is not cut to "จ้ะ".
var politeEndings = []string{"นะจ้ะ", "ครับ", "ค่ะ", "น้ะ", "นะ"}

// stripPoliteness removes trailing politeness particles before classification.
func stripPoliteness(text string) string {
	text = strings.TrimSpace(text)
	for {
		trimmed := false
		for _, ending := range politeEndings {
			if strings.HasSuffix(text, ending) && len(text) > len(ending) {
				text = strings.TrimSpace(strings.TrimSuffix(text, ending))
				trimmed = true
				break
			}
		}
		if !trimmed {
			return text
		}
	}
}

func buildGenerationPrompt(userName, utterance string) string {
	var b strings.Builder
	b.WriteString("ผู้ตอบเป็นผู้เชี่ยวชาญเรื่องโดรน ")
	if name := strings.TrimSpace(userName); name != "" {
		fmt.Fprintf(&b, "ผู้ถามชื่อ คุณ%s ", name)
	}
	fmt.Fprintf(&b, "ตอบสั้นๆไม่เกิน 20 คำ เกี่ยวกับ '%s'", normalizePromptInput(utterance))
	return b.String()
}

func normalizePromptInput(s string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
}
