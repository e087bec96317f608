// ABOUTME: OAuth client configuration for the Google Calendar integration
// ABOUTME: Builds oauth2.Config from a client_secret file, environment, or an injected secret
package gcal

import (
	"fmt"
	"os"

	"github.com/jaksim/jaksim/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// Scopes requested by the authorization flow: calendar read/write.
var Scopes = []string{calendar.CalendarScope}

// NewOAuthConfig creates the OAuth2 client config from the configured source.
// redirectURL overrides whatever the client document declares.
func NewOAuthConfig(cfg config.GoogleConfig, redirectURL string) (*oauth2.Config, error) {
	var (
		oc  *oauth2.Config
		err error
	)

	switch cfg.ClientSource {
	case config.ClientSourceFile:
		data, readErr := os.ReadFile(cfg.ClientSecretFile)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read client secret file: %w", readErr)
		}
		oc, err = google.ConfigFromJSON(data, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse client secret file %s: %w", cfg.ClientSecretFile, err)
		}

	case config.ClientSourceSecret:
		doc := os.Getenv(cfg.ClientSecretEnv)
		if doc == "" {
			return nil, fmt.Errorf("client secret not provided: environment variable %s is empty", cfg.ClientSecretEnv)
		}
		oc, err = google.ConfigFromJSON([]byte(doc), Scopes...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse client secret from %s: %w", cfg.ClientSecretEnv, err)
		}

	case config.ClientSourceEnv:
		oc = &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       Scopes,
		}

	default:
		return nil, fmt.Errorf("unknown client source %q", cfg.ClientSource)
	}

	if oc.ClientID == "" || oc.ClientSecret == "" {
		return nil, fmt.Errorf("google OAuth client not configured (source %q). Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET or provide a client secret file", cfg.ClientSource)
	}
	if redirectURL != "" {
		oc.RedirectURL = redirectURL
	}

	return oc, nil
}
