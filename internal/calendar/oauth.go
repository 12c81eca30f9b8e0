// Package calendar schedules practice reminders on Google Calendar.
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/stillpoint-hq/stillpoint/internal/config"
)

const callbackPort = 8765

// OAuthClient handles OAuth2 authentication for Google Calendar
type OAuthClient struct {
	config *oauth2.Config
}

// NewOAuthClient creates an OAuth client from the Google section of
// the app configuration.
func NewOAuthClient(cfg config.GoogleConfig) *OAuthClient {
	return &OAuthClient{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  fmt.Sprintf("http://localhost:%d/callback", callbackPort),
			Scopes: []string{
				calendarapi.CalendarEventsScope,
			},
			Endpoint: google.Endpoint,
		},
	}
}

// Configured reports whether client credentials are present.
func (c *OAuthClient) Configured() bool {
	return c.config.ClientID != "" && c.config.ClientSecret != ""
}

// AuthURL returns the URL for user authorization
func (c *OAuthClient) AuthURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExchangeCode exchanges the authorization code for tokens
func (c *OAuthClient) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	return c.config.Exchange(ctx, code)
}

// RefreshToken refreshes an expired token
func (c *OAuthClient) RefreshToken(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	return c.config.TokenSource(ctx, token).Token()
}

// Service creates a Calendar API service from a token
func (c *OAuthClient) Service(ctx context.Context, token *oauth2.Token) (*calendarapi.Service, error) {
	client := c.config.Client(ctx, token)
	return calendarapi.NewService(ctx, option.WithHTTPClient(client))
}

// Authorize performs the complete OAuth flow with a local callback.
// It blocks until the user grants access in a browser or the timeout
// passes.
func (c *OAuthClient) Authorize(ctx context.Context) (*oauth2.Token, error) {
	state := fmt.Sprintf("stillpoint-%d", time.Now().UnixNano())

	server := newCallbackServer(callbackPort)
	if err := server.start(); err != nil {
		return nil, fmt.Errorf("start auth server: %w", err)
	}
	defer server.stop(ctx)

	fmt.Printf("\nOpen this URL in your browser to connect your calendar:\n\n%s\n\n", c.AuthURL(state))
	fmt.Println("Waiting for authorization...")

	code, err := server.waitForCode(5 * time.Minute)
	if err != nil {
		return nil, fmt.Errorf("authorization failed: %w", err)
	}

	token, err := c.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return token, nil
}

// callbackServer receives the OAuth redirect locally
type callbackServer struct {
	server   *http.Server
	codeChan chan string
	errChan  chan error
}

func newCallbackServer(port int) *callbackServer {
	s := &callbackServer{
		codeChan: make(chan string, 1),
		errChan:  make(chan error, 1),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	return s
}

func (s *callbackServer) start() error {
	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.errChan <- err
		}
	}()
	time.Sleep(100 * time.Millisecond)
	return nil
}

func (s *callbackServer) waitForCode(timeout time.Duration) (string, error) {
	select {
	case code := <-s.codeChan:
		return code, nil
	case err := <-s.errChan:
		return "", err
	case <-time.After(timeout):
		return "", fmt.Errorf("no callback received within %v", timeout)
	}
}

func (s *callbackServer) stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *callbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		errMsg := r.URL.Query().Get("error")
		if errMsg == "" {
			errMsg = "unknown error"
		}
		s.errChan <- fmt.Errorf("oauth error: %s", errMsg)
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	s.codeChan <- code

	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>Stillpoint - Calendar Connected</title></head>
<body style="font-family: system-ui; text-align: center; padding-top: 20vh;">
	<h1>Calendar connected</h1>
	<p>Your practice reminders will appear on Google Calendar.</p>
	<p>You can close this window and return to the terminal.</p>
</body>
</html>
`)
}

// TokenToJSON serializes a token for vault storage
func TokenToJSON(token *oauth2.Token) ([]byte, error) {
	return json.Marshal(token)
}

// TokenFromJSON deserializes a stored token
func TokenFromJSON(data []byte) (*oauth2.Token, error) {
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, err
	}
	return &token, nil
}
