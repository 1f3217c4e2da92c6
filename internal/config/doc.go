// Package config loads the Google OAuth client secrets and the server
// settings.
//
// The client secrets are resolved from exactly one of two sources, in
// priority order: the GOOGLE_CREDENTIALS_JSON environment variable holding
// the full client secrets document, or a local client secrets file
// (GOOGLE_CREDENTIALS_FILE, default "credentials.json"). Loading is a pure
// read with no side effects.
package config
