package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	calendarapi "google.golang.org/api/calendar/v3"

	"github.com/stillpoint-hq/stillpoint/internal/logging"
	"github.com/stillpoint-hq/stillpoint/internal/practice"
	"github.com/stillpoint-hq/stillpoint/internal/storage"
)

// credentialName is the vault key the calendar token lives under.
const credentialName = "google_calendar"

// Event is the slice of a calendar event we care about.
type Event struct {
	ID      string    `json:"id"`
	Summary string    `json:"summary"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Link    string    `json:"link"`
}

// Scheduler puts practice reminders on the user's Google Calendar.
// Tokens are sealed in the credential store between runs.
type Scheduler struct {
	oauth *OAuthClient
	creds *storage.CredentialStore
	log   *logging.Logger
}

func NewScheduler(oauth *OAuthClient, creds *storage.CredentialStore) *Scheduler {
	return &Scheduler{
		oauth: oauth,
		creds: creds,
		log:   logging.WithField("component", "calendar"),
	}
}

// Connected reports whether a calendar token is on file.
func (s *Scheduler) Connected() (bool, error) {
	return s.creds.Exists(credentialName)
}

// Connect runs the OAuth flow and seals the resulting token.
func (s *Scheduler) Connect(ctx context.Context) error {
	if !s.oauth.Configured() {
		return fmt.Errorf("google client credentials not configured")
	}

	token, err := s.oauth.Authorize(ctx)
	if err != nil {
		return err
	}
	return s.storeToken(token)
}

// Disconnect removes the stored token.
func (s *Scheduler) Disconnect() error {
	return s.creds.Delete(credentialName)
}

// SchedulePractice creates a calendar event for the recommended
// practice, with a popup reminder shortly before it starts.
func (s *Scheduler) SchedulePractice(ctx context.Context, rec practice.Recommendation, when time.Time) (*Event, error) {
	token, err := s.loadToken(ctx)
	if err != nil {
		return nil, err
	}

	service, err := s.oauth.Service(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	event := buildPracticeEvent(rec, when)
	created, err := service.Events.Insert("primary", event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.log.Info("practice scheduled as event %s at %s", created.Id, when.Format(time.RFC3339))

	start, _ := time.Parse(time.RFC3339, created.Start.DateTime)
	end, _ := time.Parse(time.RFC3339, created.End.DateTime)
	return &Event{
		ID:      created.Id,
		Summary: created.Summary,
		Start:   start,
		End:     end,
		Link:    created.HtmlLink,
	}, nil
}

// buildPracticeEvent turns a recommendation into a Calendar API event.
func buildPracticeEvent(rec practice.Recommendation, when time.Time) *calendarapi.Event {
	minutes := rec.TotalMinutes
	if minutes <= 0 {
		minutes = 15
	}

	var parts []string
	summary := "Stillpoint practice"
	if rec.Pranayama != nil {
		summary = "Stillpoint: " + rec.Pranayama.Name
		parts = append(parts, "Breathing: "+rec.Pranayama.Name)
	}
	if rec.Asana != nil {
		parts = append(parts, "Movement: "+rec.Asana.Name)
	}
	if rec.Activity.Content != "" {
		parts = append(parts, "Afterwards: "+rec.Activity.Content)
	}

	return &calendarapi.Event{
		Summary:     summary,
		Description: strings.Join(parts, "\n"),
		Start: &calendarapi.EventDateTime{
			DateTime: when.Format(time.RFC3339),
		},
		End: &calendarapi.EventDateTime{
			DateTime: when.Add(time.Duration(minutes) * time.Minute).Format(time.RFC3339),
		},
		Reminders: &calendarapi.EventReminders{
			UseDefault: false,
			Overrides: []*calendarapi.EventReminder{
				{Method: "popup", Minutes: 10},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}
}

// loadToken reads the sealed token and refreshes it when stale.
func (s *Scheduler) loadToken(ctx context.Context) (*oauth2.Token, error) {
	data, err := s.creds.Get(credentialName)
	if err != nil {
		return nil, fmt.Errorf("load calendar token: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("calendar not connected")
	}

	token, err := TokenFromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("decode calendar token: %w", err)
	}

	if !token.Valid() {
		refreshed, err := s.oauth.RefreshToken(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("refresh calendar token: %w", err)
		}
		if refreshed.AccessToken != token.AccessToken {
			if err := s.storeToken(refreshed); err != nil {
				s.log.Warn("failed to persist refreshed token: %v", err)
			}
		}
		token = refreshed
	}

	return token, nil
}

func (s *Scheduler) storeToken(token *oauth2.Token) error {
	data, err := TokenToJSON(token)
	if err != nil {
		return fmt.Errorf("encode calendar token: %w", err)
	}
	var expiry *time.Time
	if !token.Expiry.IsZero() {
		t := token.Expiry.UTC()
		expiry = &t
	}
	return s.creds.Store(credentialName, token.TokenType, data, expiry)
}
