package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/albeorla/task-pri-lite-sub001/internal/capture"
	"github.com/albeorla/task-pri-lite-sub001/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// EventCreator puts an event on a calendar and returns a reference to it.
type EventCreator interface {
	CreateEvent(ctx context.Context, f capture.EventFields) (string, error)
}

// Simulated logs the event instead of creating it.
type Simulated struct {
	Logger *logging.Logger
}

func (s Simulated) CreateEvent(ctx context.Context, f capture.EventFields) (string, error) {
	logger := s.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	logger.Info(ctx, "simulated calendar event",
		zap.String("title", f.Title),
		zap.Time("start", f.Start),
		zap.Time("end", f.End),
	)
	return "simulated", nil
}

// GoogleCalendar creates events through the Calendar v3 API.
type GoogleCalendar struct {
	srv        *calendar.Service
	calendarID string
}

// NewGoogleCalendar wraps an existing service. calendarID "" means "primary".
func NewGoogleCalendar(srv *calendar.Service, calendarID string) *GoogleCalendar {
	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleCalendar{srv: srv, calendarID: calendarID}
}

// DialGoogleCalendar authenticates with an OAuth client credentials file and
// a previously saved token file.
func DialGoogleCalendar(ctx context.Context, credentialsFile, tokenFile, calendarID string) (*GoogleCalendar, error) {
	cfg, err := OAuthConfig(credentialsFile)
	if err != nil {
		return nil, err
	}
	tok, err := LoadToken(tokenFile)
	if err != nil {
		return nil, err
	}
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("unable to create calendar service: %w", err)
	}
	return NewGoogleCalendar(srv, calendarID), nil
}

func (g *GoogleCalendar) CreateEvent(ctx context.Context, f capture.EventFields) (string, error) {
	created, err := g.srv.Events.Insert(g.calendarID, ToCalendarEvent(f)).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if created.HtmlLink != "" {
		return created.HtmlLink, nil
	}
	return created.Id, nil
}

// ToCalendarEvent converts extracted event fields to the API shape.
func ToCalendarEvent(f capture.EventFields) *calendar.Event {
	ev := &calendar.Event{
		Summary:     f.Title,
		Description: f.Description,
		Location:    f.Location,
		Start:       &calendar.EventDateTime{DateTime: f.Start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: f.End.Format(time.RFC3339)},
	}
	for _, a := range f.Attendees {
		if isEmail(a) {
			ev.Attendees = append(ev.Attendees, &calendar.EventAttendee{Email: a})
		}
	}
	return ev
}

func isEmail(s string) bool {
	for i := 1; i < len(s)-1; i++ {
		if s[i] == '@' {
			return true
		}
	}
	return false
}

// OAuthConfig reads a client credentials file for the calendar events scope.
func OAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", credentialsFile, err)
	}
	cfg, err := google.ConfigFromJSON(b, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file: %w", err)
	}
	return cfg, nil
}

// AuthURL returns the consent URL for an offline token.
func AuthURL(cfg *oauth2.Config) string {
	return cfg.AuthCodeURL("taskpri", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// ExchangeAndSave trades an authorization code for a token and stores it.
func ExchangeAndSave(ctx context.Context, cfg *oauth2.Config, code, tokenFile string) error {
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("unable to retrieve token: %w", err)
	}
	return SaveToken(tokenFile, tok)
}

// ErrNoToken is returned when the token file does not exist.
var ErrNoToken = errors.New("no calendar token")

// LoadToken reads an oauth2.Token from a JSON file.
func LoadToken(path string) (*oauth2.Token, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w at %s", ErrNoToken, path)
	}
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(b, tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", path, err)
	}
	return tok, nil
}

// SaveToken writes tok to path with owner-only permissions.
func SaveToken(path string, tok *oauth2.Token) error {
	b, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating token dir: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", path, err)
	}
	return nil
}

var (
	_ EventCreator = Simulated{}
	_ EventCreator = (*GoogleCalendar)(nil)
)
