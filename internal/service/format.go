package service

import (
	"fmt"
	"strings"

	"github.com/calbridge/calbridge/internal/calendar"
)

// formatEventList renders a listing for human consumption. An empty listing
// gets an explicit "no events" line so it cannot be mistaken for a failure.
func formatEventList(events []calendar.Event) string {
	if len(events) == 0 {
		return "No events found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d events:\n\n", len(events))
	for i, event := range events {
		fmt.Fprintf(&b, "%d. %s\n", i+1, event.Summary)
		fmt.Fprintf(&b, "   ID: %s\n", event.ID)
		fmt.Fprintf(&b, "   Start: %s\n", event.Start)
		fmt.Fprintf(&b, "   End: %s\n", event.End)
		if event.Location != "" {
			fmt.Fprintf(&b, "   Location: %s\n", event.Location)
		}
		if len(event.Attendees) > 0 {
			fmt.Fprintf(&b, "   Attendees: %d\n", len(event.Attendees))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// formatEvent renders a single event under a leading action line, e.g.
// "Successfully created event: Standup".
func formatEvent(action string, event *calendar.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", action, event.Summary)
	fmt.Fprintf(&b, "ID: %s\n", event.ID)
	fmt.Fprintf(&b, "Start: %s\n", event.Start)
	fmt.Fprintf(&b, "End: %s\n", event.End)
	if event.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", event.Description)
	}
	if event.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", event.Location)
	}
	if len(event.Attendees) > 0 {
		fmt.Fprintf(&b, "Attendees: %s\n", strings.Join(event.Attendees, ", "))
	}
	if event.HTMLLink != "" {
		fmt.Fprintf(&b, "Link: %s\n", event.HTMLLink)
	}
	return b.String()
}
