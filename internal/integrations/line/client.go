package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"shop-assistant/internal/domain"
)

// Platform limits for one reply call.
const (
	MaxMessagesPerReply = 5
	MaxQuickReplyItems  = 13
	MaxTextRunes        = 5000
	MaxLabelRunes       = 20

	defaultBaseURL = "https://api.line.me"
)

type replyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []textMessage `json:"messages"`
}

type textMessage struct {
	Type       string      `json:"type"`
	Text       string      `json:"text"`
	QuickReply *quickReply `json:"quickReply,omitempty"`
}

type quickReply struct {
	Items []quickReplyItem `json:"items"`
}

type quickReplyItem struct {
	Type   string        `json:"type"`
	Action messageAction `json:"action"`
}

type messageAction struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// HTTPStatusError captures non-2xx Messaging API responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("line: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client sends replies through the Messaging API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      CredentialSource
	logger     *zap.Logger
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a Client. The channel access token is read from creds on
// every call so rotated tokens are picked up by the source.
func NewClient(creds CredentialSource, opts ...Option) (*Client, error) {
	if creds == nil {
		return nil, errors.New("line: credential source must not be nil")
	}
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		creds:      creds,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func replyURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	return base + "/v2/bot/message/reply"
}

// Reply answers one event. Reply tokens are single-use, so every message of a
// turn goes out in this one call.
func (c *Client) Reply(ctx context.Context, replyToken string, replies []domain.Reply) error {
	if strings.TrimSpace(replyToken) == "" {
		return errors.New("line: reply token is required")
	}
	messages := buildMessages(replies)
	if len(messages) == 0 {
		return nil
	}
	if len(replies) > MaxMessagesPerReply {
		c.logger.Warn("dropping replies over platform limit",
			zap.Int("replies", len(replies)),
			zap.Int("limit", MaxMessagesPerReply),
		)
	}

	creds, err := c.creds.Credentials(ctx)
	if err != nil {
		return fmt.Errorf("line: load access token: %w", err)
	}

	body, err := json.Marshal(replyRequest{ReplyToken: replyToken, Messages: messages})
	if err != nil {
		return fmt.Errorf("line: marshal reply: %w", err)
	}
	url := replyURL(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("line: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+creds.Token)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("line: reply request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return &HTTPStatusError{StatusCode: res.StatusCode, URL: url, Body: string(buf)}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1<<16))
	return nil
}

// buildMessages applies the platform limits: at most five messages, thirteen
// quick-reply items each, and truncated text and labels. Empty texts are skipped.
func buildMessages(replies []domain.Reply) []textMessage {
	var out []textMessage
	for _, r := range replies {
		if len(out) == MaxMessagesPerReply {
			break
		}
		text := truncate(r.Text, MaxTextRunes)
		if strings.TrimSpace(text) == "" {
			continue
		}
		msg := textMessage{Type: "text", Text: text}
		if len(r.Options) > 0 {
			qr := &quickReply{}
			for _, o := range r.Options {
				if len(qr.Items) == MaxQuickReplyItems {
					break
				}
				qr.Items = append(qr.Items, quickReplyItem{
					Type: "action",
					Action: messageAction{
						Type:  "message",
						Label: truncate(o.Label, MaxLabelRunes),
						Text:  o.Text,
					},
				})
			}
			msg.QuickReply = qr
		}
		out = append(out, msg)
	}
	return out
}

func truncate(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes])
}
