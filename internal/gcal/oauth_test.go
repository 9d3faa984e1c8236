package gcal

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firstone/holidays-google-poly/internal/config"
)

const testClientSecret = `{
  "installed": {
    "client_id": "test-client.apps.googleusercontent.com",
    "client_secret": "shhh",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["urn:ietf:wg:oauth:2.0:oob"]
  }
}`

// memLoader is an in-memory config.Loader for tests.
type memLoader struct {
	creds []byte
	token []byte
}

func (m *memLoader) LoadCredentials() ([]byte, error) { return m.creds, nil }

func (m *memLoader) LoadToken() ([]byte, error) {
	if m.token == nil {
		return nil, errTokenMissing
	}
	return m.token, nil
}

func (m *memLoader) SaveToken(token []byte) error {
	m.token = token
	return nil
}

var errTokenMissing = &url.Error{Op: "open", URL: "token.json"}

var _ config.Loader = (*memLoader)(nil)

func TestAuthURLShape(t *testing.T) {
	authURL, err := AuthURL([]byte(testClientSecret))
	require.NoError(t, err)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", u.Host)

	q := u.Query()
	assert.Equal(t, "test-client.apps.googleusercontent.com", q.Get("client_id"))
	assert.Equal(t, "urn:ietf:wg:oauth:2.0:oob", q.Get("redirect_uri"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.True(t, strings.Contains(q.Get("scope"), "calendar.readonly"))
	assert.Len(t, q.Get("state"), 16)
}

func TestAuthURLDiffersPerCall(t *testing.T) {
	a, err := AuthURL([]byte(testClientSecret))
	require.NoError(t, err)
	b, err := AuthURL([]byte(testClientSecret))
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "state must be random")
}

func TestAuthURLBadCredentials(t *testing.T) {
	_, err := AuthURL([]byte(`{"not": "credentials"}`))
	assert.Error(t, err)
}

func TestNewServiceWithoutToken(t *testing.T) {
	loader := &memLoader{creds: []byte(testClientSecret)}
	_, err := NewService(context.Background(), loader)
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestNewServiceWithStoredToken(t *testing.T) {
	loader := &memLoader{
		creds: []byte(testClientSecret),
		token: []byte(`{"access_token":"abc","refresh_token":"def","token_type":"Bearer","expiry":"2099-01-01T00:00:00Z"}`),
	}
	svc, err := NewService(context.Background(), loader)
	require.NoError(t, err)
	require.NotNil(t, svc)

	// The unexpired token must survive a persist round-trip.
	require.NoError(t, svc.PersistToken(loader))
	assert.Contains(t, string(loader.token), `"access_token":"abc"`)
}

func TestNewServiceBadToken(t *testing.T) {
	loader := &memLoader{
		creds: []byte(testClientSecret),
		token: []byte(`not json`),
	}
	_, err := NewService(context.Background(), loader)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoToken)
}
