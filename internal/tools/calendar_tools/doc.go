// Package calendar_tools exposes the calendar and authentication tools over
// the Model Context Protocol. Tool schemas mirror the shared catalog; the
// handlers delegate to the dispatcher and render its text output.
package calendar_tools
