package domain

// QuickReplyOption is a button offered under a reply. Pressing it sends Text
// back as the user's next utterance.
type QuickReplyOption struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Reply is one outbound text message produced by a turn.
type Reply struct {
	Text    string             `json:"text"`
	Options []QuickReplyOption `json:"options,omitempty"`
}

// NewReply builds a Reply from a text and optional quick-reply options.
func NewReply(text string, options ...QuickReplyOption) Reply {
	return Reply{Text: text, Options: options}
}
