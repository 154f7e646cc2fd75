package line

import (
	"encoding/json"
	"fmt"
)

// Webhook is one delivery from the platform; it may batch several events.
type Webhook struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

type Event struct {
	Type            string          `json:"type"`
	Mode            string          `json:"mode"`
	Timestamp       int64           `json:"timestamp"`
	ReplyToken      string          `json:"replyToken"`
	WebhookEventID  string          `json:"webhookEventId"`
	Source          Source          `json:"source"`
	Message         *Message        `json:"message,omitempty"`
	DeliveryContext DeliveryContext `json:"deliveryContext"`
}

type Source struct {
	Type    string `json:"type"`
	UserID  string `json:"userId"`
	GroupID string `json:"groupId,omitempty"`
	RoomID  string `json:"roomId,omitempty"`
}

type Message struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text"`
}

type DeliveryContext struct {
	IsRedelivery bool `json:"isRedelivery"`
}

// TextMessage is a user text message that can be answered.
type TextMessage struct {
	UserID     string
	Text       string
	ReplyToken string
	EventID    string
}

func ParseWebhook(body []byte) (Webhook, error) {
	var wh Webhook
	if err := json.Unmarshal(body, &wh); err != nil {
		return Webhook{}, fmt.Errorf("line: decode webhook: %w", err)
	}
	return wh, nil
}

// TextMessages returns the answerable text message events in delivery order.
// Events without a user id or reply token are skipped.
func (w Webhook) TextMessages() []TextMessage {
	var out []TextMessage
	for _, e := range w.Events {
		if e.Type != "message" || e.Message == nil || e.Message.Type != "text" {
			continue
		}
		if e.Source.UserID == "" || e.ReplyToken == "" {
			continue
		}
		out = append(out, TextMessage{
			UserID:     e.Source.UserID,
			Text:       e.Message.Text,
			ReplyToken: e.ReplyToken,
			EventID:    e.WebhookEventID,
		})
	}
	return out
}
