package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"shop-assistant/internal/integrations/line"
)

type flakyGetter struct {
	values map[string]string
	errs   []error
	calls  int
}

func (g *flakyGetter) GetParameter(_ context.Context, name string) (string, error) {
	g.calls++
	if len(g.errs) > 0 {
		err := g.errs[0]
		g.errs = g.errs[1:]
		if err != nil {
			return "", err
		}
	}
	return g.values[name], nil
}

func TestNewChannelCredentials_Validates(t *testing.T) {
	_, err := NewChannelCredentials(nil, "/shop")
	require.Error(t, err)
	_, err = NewChannelCredentials(&flakyGetter{}, " / ")
	require.Error(t, err)
}

func TestChannelCredentials_LoadsOnceAndCaches(t *testing.T) {
	g := &flakyGetter{values: map[string]string{"/shop/line-channel": `{"secret":"s","token":"t"}`}}
	c, err := NewChannelCredentials(g, "/shop/")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		creds, err := c.Credentials(context.Background())
		require.NoError(t, err)
		require.Equal(t, line.Credentials{Secret: "s", Token: "t"}, creds)
	}
	require.Equal(t, 1, g.calls)
}

func TestChannelCredentials_RetriesAfterFailure(t *testing.T) {
	g := &flakyGetter{
		values: map[string]string{"/shop/line-channel": `{"secret":"s","token":"t"}`},
		errs:   []error{errors.New("temporary ssm failure")},
	}
	c, err := NewChannelCredentials(g, "/shop")
	require.NoError(t, err)

	_, err = c.Credentials(context.Background())
	require.Error(t, err)

	creds, err := c.Credentials(context.Background())
	require.NoError(t, err)
	require.Equal(t, "t", creds.Token)
	require.Equal(t, 2, g.calls)
}

func TestChannelCredentials_RejectsBadPayload(t *testing.T) {
	cases := map[string]string{
		"not json":      `nope`,
		"missing token": `{"secret":"s"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			g := &flakyGetter{values: map[string]string{"/shop/line-channel": raw}}
			c, err := NewChannelCredentials(g, "/shop")
			require.NoError(t, err)
			_, err = c.Credentials(context.Background())
			require.Error(t, err)
		})
	}
}
