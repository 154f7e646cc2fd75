package line

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleWebhook = `{
  "destination": "U0000",
  "events": [
    {
      "type": "message",
      "mode": "active",
      "timestamp": 1710000000000,
      "webhookEventId": "01HX",
      "replyToken": "reply-1",
      "source": {"type": "user", "userId": "U111"},
      "message": {"id": "m1", "type": "text", "text": "ค้นหา แบตเตอรี่"},
      "deliveryContext": {"isRedelivery": false}
    },
    {
      "type": "message",
      "replyToken": "reply-2",
      "source": {"type": "user", "userId": "U111"},
      "message": {"id": "m2", "type": "sticker"}
    },
    {
      "type": "follow",
      "replyToken": "reply-3",
      "source": {"type": "user", "userId": "U222"}
    },
    {
      "type": "message",
      "source": {"type": "user", "userId": "U333"},
      "message": {"id": "m4", "type": "text", "text": "no token"}
    }
  ]
}`

func TestParseWebhook_TextMessages(t *testing.T) {
	wh, err := ParseWebhook([]byte(sampleWebhook))
	require.NoError(t, err)
	require.Len(t, wh.Events, 4)

	require.Equal(t, []TextMessage{{
		UserID:     "U111",
		Text:       "ค้นหา แบตเตอรี่",
		ReplyToken: "reply-1",
		EventID:    "01HX",
	}}, wh.TextMessages())
}

func TestParseWebhook_Invalid(t *testing.T) {
	_, err := ParseWebhook([]byte(`not-json`))
	require.Error(t, err)
}

func TestParseWebhook_VerificationPing(t *testing.T) {
	wh, err := ParseWebhook([]byte(`{"destination":"U0","events":[]}`))
	require.NoError(t, err)
	require.Empty(t, wh.TextMessages())
}
