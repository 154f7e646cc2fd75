package line

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type failingCreds struct{ err error }

func (f failingCreds) Credentials(context.Context) (Credentials, error) {
	return Credentials{}, f.err
}

func newTestVerifier(t *testing.T, secret string) *Verifier {
	t.Helper()
	creds, err := NewStaticCredentials(secret, "token")
	require.NoError(t, err)
	v, err := NewVerifier(creds)
	require.NoError(t, err)
	return v
}

func TestVerify_ValidSignature(t *testing.T) {
	body := []byte(`{"events":[]}`)
	v := newTestVerifier(t, "channel-secret")
	require.NoError(t, v.Verify(context.Background(), body, Sign("channel-secret", body)))
}

func TestVerify_Rejects(t *testing.T) {
	body := []byte(`{"events":[]}`)
	v := newTestVerifier(t, "channel-secret")

	cases := map[string]string{
		"missing":      "",
		"not base64":   "%%%",
		"wrong secret": Sign("other-secret", body),
		"other body":   Sign("channel-secret", []byte(`{}`)),
	}
	for name, sig := range cases {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, v.Verify(context.Background(), body, sig), ErrInvalidSignature)
		})
	}
}

func TestVerify_CredentialFailureIsNotASignatureError(t *testing.T) {
	v, err := NewVerifier(failingCreds{err: errors.New("ssm down")})
	require.NoError(t, err)

	err = v.Verify(context.Background(), []byte(`{}`), Sign("s", []byte(`{}`)))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidSignature)
}

func TestNewStaticCredentials_RequiresBoth(t *testing.T) {
	_, err := NewStaticCredentials("secret", " ")
	require.Error(t, err)
	_, err = NewVerifier(nil)
	require.Error(t, err)
}
