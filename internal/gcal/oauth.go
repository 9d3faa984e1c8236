package gcal

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"

	"github.com/firstone/holidays-google-poly/internal/config"
)

// ErrNoToken indicates no OAuth token has been stored yet; the daemon must
// run the authentication flow before it can talk to Google.
var ErrNoToken = errors.New("gcal: no stored token")

// redirectOOB makes Google display the authorization code for the user to
// copy instead of redirecting to a local listener. The daemon typically runs
// headless on a different host than the user's browser.
const redirectOOB = "urn:ietf:wg:oauth:2.0:oob"

// AuthURL builds the URL the user must visit to authorize calendar access.
func AuthURL(credBytes []byte) (string, error) {
	conf, err := google.ConfigFromJSON(credBytes, calendar.CalendarReadonlyScope)
	if err != nil {
		return "", fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	return conf.AuthCodeURL(randomState(16),
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("redirect_uri", redirectOOB),
	), nil
}

// Exchange trades the pasted authorization code for a token and persists it
// through the loader.
func Exchange(ctx context.Context, credBytes []byte, code string, loader config.Loader) (*oauth2.Token, error) {
	conf, err := google.ConfigFromJSON(credBytes, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}

	tok, err := conf.Exchange(ctx, code,
		oauth2.SetAuthURLParam("redirect_uri", redirectOOB),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}

	tokenBytes, err := json.Marshal(tok)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal token: %w", err)
	}
	if err := loader.SaveToken(tokenBytes); err != nil {
		return nil, fmt.Errorf("unable to save token: %w", err)
	}
	return tok, nil
}

// randomState generates a random URL-safe state string of length n.
func randomState(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand failure is unrecoverable
	}
	for i := range b {
		b[i] = letters[int(b[i])%len(letters)]
	}
	return string(b)
}
