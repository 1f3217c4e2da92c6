package auth

import "errors"

var (
	// ErrNotAuthenticated is returned when no credential has been stored
	// yet. The caller must complete the authorization flow first.
	ErrNotAuthenticated = errors.New("not authenticated: no credential stored")

	// ErrTokenExpired is returned when the stored credential expired and
	// the refresh attempt failed. The credential slot is cleared; the
	// caller must re-authenticate from scratch.
	ErrTokenExpired = errors.New("token expired: refresh failed, re-authentication required")

	// ErrExchange is returned when the authorization code exchange fails,
	// typically because the code is invalid, already used, or the redirect
	// URI does not match the one used to generate the authorization URL.
	ErrExchange = errors.New("authorization code exchange failed")
)
