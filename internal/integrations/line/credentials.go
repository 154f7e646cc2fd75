// Package line talks to the LINE Messaging API: webhook signature checks,
// webhook payload decoding and the reply endpoint.
package line

import (
	"context"
	"errors"
	"strings"
)

// Credentials are the channel secret (webhook signatures) and the channel
// access token (API calls).
type Credentials struct {
	Secret string `json:"secret"`
	Token  string `json:"token"`
}

type CredentialSource interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// StaticCredentials serves fixed credentials, e.g. from the environment.
type StaticCredentials Credentials

func NewStaticCredentials(secret, token string) (StaticCredentials, error) {
	secret, token = strings.TrimSpace(secret), strings.TrimSpace(token)
	if secret == "" || token == "" {
		return StaticCredentials{}, errors.New("line: channel secret and token are required")
	}
	return StaticCredentials{Secret: secret, Token: token}, nil
}

func (s StaticCredentials) Credentials(context.Context) (Credentials, error) {
	return Credentials(s), nil
}
