package config

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
)

// Environment variables recognized by the credential loader and settings.
const (
	// EnvCredentialsJSON holds the full Google client secrets document.
	// Takes priority over the credentials file.
	EnvCredentialsJSON = "GOOGLE_CREDENTIALS_JSON"

	// EnvCredentialsFile points at a client secrets file on disk, read
	// when EnvCredentialsJSON is not set.
	EnvCredentialsFile = "GOOGLE_CREDENTIALS_FILE"

	EnvAddr     = "CALBRIDGE_ADDR"
	EnvBaseURL  = "CALBRIDGE_BASE_URL"
	EnvTimeZone = "CALBRIDGE_TIMEZONE"
)

const (
	// DefaultCredentialsFile is the fallback client secrets path.
	DefaultCredentialsFile = "credentials.json"

	// DefaultTimeZone is attached to event times when the caller omits one.
	DefaultTimeZone = "America/Sao_Paulo"

	// DefaultAddr is the HTTP listen address.
	DefaultAddr = ":8080"
)

// ErrNoCredentials indicates that the Google OAuth client configuration
// could not be loaded from either the environment or the filesystem.
var ErrNoCredentials = errors.New("google credentials not configured")

// Scopes are the OAuth scopes requested during authorization.
var Scopes = []string{
	calendar.CalendarScope,
	calendar.CalendarEventsScope,
}

// LoadClientSecrets resolves the OAuth client configuration from exactly one
// of two sources, in priority order: the GOOGLE_CREDENTIALS_JSON environment
// variable, then the client secrets file. The JSON is the standard Google
// client secrets document ("web" or "installed" key); the first entry of
// redirect_uris becomes the redirect URL.
func LoadClientSecrets() (*oauth2.Config, error) {
	data, source, err := readClientSecrets()
	if err != nil {
		return nil, err
	}

	conf, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: parse client secrets from %s: %v", ErrNoCredentials, source, err)
	}

	return conf, nil
}

func readClientSecrets() ([]byte, string, error) {
	if raw := os.Getenv(EnvCredentialsJSON); raw != "" {
		return []byte(raw), EnvCredentialsJSON, nil
	}

	path := os.Getenv(EnvCredentialsFile)
	if path == "" {
		path = DefaultCredentialsFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: set %s or provide %s: %v", ErrNoCredentials, EnvCredentialsJSON, path, err)
	}

	return data, path, nil
}

// Settings holds the server configuration that is not part of the OAuth
// client secrets.
type Settings struct {
	// Addr is the HTTP listen address.
	Addr string

	// BaseURL is the externally reachable URL of the server, used to build
	// the OAuth redirect URI and links in generated pages.
	BaseURL string

	// TimeZone is the default event time zone applied when the caller
	// omits one.
	TimeZone string
}

// LoadSettings reads server settings from the environment, falling back to
// defaults. Flags may override the returned values.
func LoadSettings() Settings {
	return Settings{
		Addr:     getenvDefault(EnvAddr, DefaultAddr),
		BaseURL:  os.Getenv(EnvBaseURL),
		TimeZone: getenvDefault(EnvTimeZone, DefaultTimeZone),
	}
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
