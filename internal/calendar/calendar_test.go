package calendar

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/stillpoint-hq/stillpoint/internal/config"
	"github.com/stillpoint-hq/stillpoint/internal/core"
	"github.com/stillpoint-hq/stillpoint/internal/practice"
)

func testRecommendation() practice.Recommendation {
	return practice.Recommendation{
		Pranayama: &practice.Practice{
			Name:        "Nadi Shodhana (Alternate Nostril Breathing)",
			DurationMin: 7,
		},
		Asana: &practice.Practice{
			Name:        "Child's Pose (Balasana)",
			DurationMin: 5,
		},
		Activity: practice.Activity{
			Content: "Write down three small wins from this week.",
			Type:    "challenge",
			Tone:    core.ToneWarm,
		},
		TotalMinutes: 12,
	}
}

// =============================================================================
// Event Building Tests
// =============================================================================

func TestBuildPracticeEvent(t *testing.T) {
	when := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	event := buildPracticeEvent(testRecommendation(), when)

	if event.Summary != "Stillpoint: Nadi Shodhana (Alternate Nostril Breathing)" {
		t.Errorf("Summary = %q", event.Summary)
	}
	if !strings.Contains(event.Description, "Movement: Child's Pose (Balasana)") {
		t.Errorf("Description missing asana: %q", event.Description)
	}
	if !strings.Contains(event.Description, "Afterwards: Write down three small wins") {
		t.Errorf("Description missing activity: %q", event.Description)
	}

	start, err := time.Parse(time.RFC3339, event.Start.DateTime)
	if err != nil {
		t.Fatalf("parse start: %v", err)
	}
	end, err := time.Parse(time.RFC3339, event.End.DateTime)
	if err != nil {
		t.Fatalf("parse end: %v", err)
	}
	if got := end.Sub(start); got != 12*time.Minute {
		t.Errorf("event duration = %v, want 12m", got)
	}

	if event.Reminders == nil || event.Reminders.UseDefault {
		t.Fatal("event should carry a custom reminder")
	}
	if len(event.Reminders.Overrides) != 1 || event.Reminders.Overrides[0].Method != "popup" {
		t.Errorf("Reminders = %+v, want one popup", event.Reminders.Overrides)
	}
}

func TestBuildPracticeEvent_MinimalRecommendation(t *testing.T) {
	when := time.Now()
	event := buildPracticeEvent(practice.Recommendation{}, when)

	if event.Summary != "Stillpoint practice" {
		t.Errorf("Summary = %q", event.Summary)
	}

	start, _ := time.Parse(time.RFC3339, event.Start.DateTime)
	end, _ := time.Parse(time.RFC3339, event.End.DateTime)
	if end.Sub(start) != 15*time.Minute {
		t.Errorf("zero-minute recommendation should default to 15m, got %v", end.Sub(start))
	}
}

// =============================================================================
// OAuth Tests
// =============================================================================

func TestOAuthClient_Configured(t *testing.T) {
	empty := NewOAuthClient(config.GoogleConfig{})
	if empty.Configured() {
		t.Error("empty config should not report configured")
	}

	full := NewOAuthClient(config.GoogleConfig{ClientID: "id", ClientSecret: "secret"})
	if !full.Configured() {
		t.Error("populated config should report configured")
	}
}

func TestOAuthClient_AuthURL(t *testing.T) {
	client := NewOAuthClient(config.GoogleConfig{ClientID: "my-client", ClientSecret: "s"})

	url := client.AuthURL("state-123")
	if !strings.Contains(url, "client_id=my-client") {
		t.Errorf("AuthURL missing client_id: %s", url)
	}
	if !strings.Contains(url, "state=state-123") {
		t.Errorf("AuthURL missing state: %s", url)
	}
	if !strings.Contains(url, "access_type=offline") {
		t.Errorf("AuthURL should request offline access: %s", url)
	}
}

func TestTokenJSON_RoundTrip(t *testing.T) {
	token := &oauth2.Token{
		AccessToken:  "abc",
		RefreshToken: "def",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour).UTC(),
	}

	data, err := TokenToJSON(token)
	if err != nil {
		t.Fatalf("TokenToJSON() error = %v", err)
	}

	got, err := TokenFromJSON(data)
	if err != nil {
		t.Fatalf("TokenFromJSON() error = %v", err)
	}
	if got.AccessToken != token.AccessToken || got.RefreshToken != token.RefreshToken {
		t.Errorf("round trip mangled token: %+v", got)
	}
}

func TestTokenFromJSON_Invalid(t *testing.T) {
	if _, err := TokenFromJSON([]byte("not json")); err == nil {
		t.Error("TokenFromJSON() should reject garbage")
	}
}

// =============================================================================
// Callback Server Tests
// =============================================================================

func TestCallbackServer_HandleCallback(t *testing.T) {
	s := newCallbackServer(0)

	req := httptest.NewRequest("GET", "/callback?code=auth-code-42", nil)
	w := httptest.NewRecorder()
	s.handleCallback(w, req)

	code, err := s.waitForCode(time.Second)
	if err != nil {
		t.Fatalf("waitForCode() error = %v", err)
	}
	if code != "auth-code-42" {
		t.Errorf("code = %q", code)
	}
	if !strings.Contains(w.Body.String(), "Calendar connected") {
		t.Error("success page should confirm the connection")
	}
}

func TestCallbackServer_HandleError(t *testing.T) {
	s := newCallbackServer(0)

	req := httptest.NewRequest("GET", "/callback?error=access_denied", nil)
	w := httptest.NewRecorder()
	s.handleCallback(w, req)

	if _, err := s.waitForCode(time.Second); err == nil {
		t.Error("waitForCode() should surface the oauth error")
	}
	if w.Code != 400 {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
