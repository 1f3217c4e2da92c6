// Package logging provides structured logging utilities for the calbridge
// application.
//
// This package centralizes logging patterns to ensure consistent, structured
// logging throughout the codebase using the standard library's slog package.
// Attribute helpers keep key names uniform, and tokens are never logged
// directly; use SanitizeToken for anything credential-shaped.
package logging
