package line

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// SignatureHeader carries the base64 HMAC-SHA256 of the raw webhook body.
const SignatureHeader = "X-Line-Signature"

var ErrInvalidSignature = errors.New("line: invalid signature")

type Verifier struct {
	creds CredentialSource
}

func NewVerifier(creds CredentialSource) (*Verifier, error) {
	if creds == nil {
		return nil, errors.New("line: credential source must not be nil")
	}
	return &Verifier{creds: creds}, nil
}

// Verify checks signature against the raw body. It returns ErrInvalidSignature
// for a missing or mismatched signature.
func (v *Verifier) Verify(ctx context.Context, body []byte, signature string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return ErrInvalidSignature
	}
	got, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return ErrInvalidSignature
	}
	creds, err := v.creds.Credentials(ctx)
	if err != nil {
		return fmt.Errorf("line: load channel secret: %w", err)
	}
	if !hmac.Equal(got, sign(creds.Secret, body)) {
		return ErrInvalidSignature
	}
	return nil
}

func sign(secret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// Sign returns the header value LINE would send for body.
func Sign(secret string, body []byte) string {
	return base64.StdEncoding.EncodeToString(sign(secret, body))
}
