package paramstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"shop-assistant/internal/integrations/line"
)

const channelParameter = "line-channel"

// ChannelCredentials loads the LINE channel secret and token from the JSON
// parameter <prefix>/line-channel, {"secret":"...","token":"..."}. A successful
// load is cached for the process lifetime; failures are retried on the next call.
type ChannelCredentials struct {
	getter Getter
	name   string

	mu     sync.RWMutex
	loaded bool
	creds  line.Credentials
}

func NewChannelCredentials(getter Getter, prefix string) (*ChannelCredentials, error) {
	if getter == nil {
		return nil, errors.New("paramstore: getter must not be nil")
	}
	if strings.Trim(strings.TrimSpace(prefix), "/") == "" {
		return nil, errors.New("paramstore: parameter prefix must not be empty")
	}
	return &ChannelCredentials{getter: getter, name: Join(prefix, channelParameter)}, nil
}

func (c *ChannelCredentials) Credentials(ctx context.Context) (line.Credentials, error) {
	c.mu.RLock()
	if c.loaded {
		creds := c.creds
		c.mu.RUnlock()
		return creds, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.creds, nil
	}

	raw, err := c.getter.GetParameter(ctx, c.name)
	if err != nil {
		return line.Credentials{}, fmt.Errorf("paramstore: load channel credentials: %w", err)
	}
	var creds line.Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return line.Credentials{}, fmt.Errorf("paramstore: decode channel credentials: %w", err)
	}
	if strings.TrimSpace(creds.Secret) == "" || strings.TrimSpace(creds.Token) == "" {
		return line.Credentials{}, errors.New("paramstore: channel credentials need secret and token")
	}
	c.creds, c.loaded = creds, true
	return creds, nil
}
