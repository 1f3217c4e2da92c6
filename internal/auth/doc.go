// Package auth manages the OAuth2 credential lifecycle for the single
// identity this process serves: building the authorization URL, exchanging
// the authorization code, and refreshing the access token on expiry.
//
// The credential lives only in memory. A failed refresh clears it entirely
// rather than retrying, so callers always re-authenticate from a known
// state.
package auth
