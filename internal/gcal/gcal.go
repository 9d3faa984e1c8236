// Package gcal provides read-only access to the Google Calendar API.
//
// It resolves configured calendar names against the account's calendar list
// and lists events inside a day window. Authentication uses the OAuth2
// paste-a-code flow: the daemon surfaces an authentication URL, the user
// enters the resulting code into the configuration, and the exchanged token
// is persisted through the config Loader.
package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/text/unicode/norm"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/firstone/holidays-google-poly/internal/config"
)

// Calendar describes one calendar from the account's calendar list.
type Calendar struct {
	ID       string
	Summary  string
	TimeZone string
}

// API is the surface of the Google Calendar service the poller depends on.
type API interface {
	// Calendars returns the account's calendars keyed by normalized summary.
	Calendars(ctx context.Context) (map[string]Calendar, error)
	// Events lists single events for calendarID in [from, to).
	Events(ctx context.Context, calendarID string, from, to time.Time) ([]*calendar.Event, error)
}

// Service interacts with the Google Calendar API.
type Service struct {
	service *calendar.Service
	tokens  oauth2.TokenSource
}

// NewService builds a Service from the stored client secret and token.
// Returns ErrNoToken when no token has been obtained yet.
func NewService(ctx context.Context, loader config.Loader) (*Service, error) {
	credBytes, err := loader.LoadCredentials()
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	tokenBytes, err := loader.LoadToken()
	if err != nil {
		return nil, ErrNoToken
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenBytes, &tok); err != nil {
		return nil, fmt.Errorf("unmarshalling token: %w", err)
	}

	conf, err := google.ConfigFromJSON(credBytes, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}

	ts := conf.TokenSource(ctx, &tok)
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, ts)))
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}

	return &Service{service: srv, tokens: ts}, nil
}

// Calendars pages through the account's calendar list and returns it keyed
// by normalized summary.
func (g *Service) Calendars(ctx context.Context) (map[string]Calendar, error) {
	out := make(map[string]Calendar)
	pageToken := ""
	for {
		call := g.service.CalendarList.List().Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("listing calendars: %w", err)
		}
		for _, entry := range list.Items {
			out[NormalizeName(entry.Summary)] = Calendar{
				ID:       entry.Id,
				Summary:  entry.Summary,
				TimeZone: entry.TimeZone,
			}
		}
		pageToken = list.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return out, nil
}

// Events lists single (expanded) events for calendarID in [from, to).
func (g *Service) Events(ctx context.Context, calendarID string, from, to time.Time) ([]*calendar.Event, error) {
	events, err := g.service.Events.List(calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("retrieving events: %w", err)
	}
	return events.Items, nil
}

// PersistToken snapshots the current (possibly refreshed) token through the
// loader so the next start does not need to re-authenticate.
func (g *Service) PersistToken(loader config.Loader) error {
	tok, err := g.tokens.Token()
	if err != nil {
		return fmt.Errorf("reading token: %w", err)
	}
	tokenBytes, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("json.Marshal token: %w", err)
	}
	return loader.SaveToken(tokenBytes)
}

// NormalizeName canonicalizes a calendar name for matching. Google can
// return decomposed unicode in summaries; configured names are typed by
// hand, so both sides are NFC-normalized and trimmed.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
