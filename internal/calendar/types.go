package calendar

import (
	calendar "google.golang.org/api/calendar/v3"
)

// Event is the minimal projection of a Google Calendar event exchanged with
// callers. Start and End are RFC3339 instants (or a bare date for all-day
// events, passed through as-is).
type Event struct {
	ID          string   `json:"id"`
	Summary     string   `json:"summary"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Attendees   []string `json:"attendees,omitempty"`
	HTMLLink    string   `json:"htmlLink,omitempty"`
	Status      string   `json:"status,omitempty"`
}

// EventInput carries the fields accepted when creating an event. Start and
// End are RFC3339 instants; TimeZone falls back to the client default when
// empty.
type EventInput struct {
	Summary     string
	Description string
	Location    string
	Start       string
	End         string
	TimeZone    string
	Attendees   []string
}

// EventPatch carries the optional fields of an update. A nil field means
// "keep the stored value"; see mergeEvent. This keeps the partial-update
// rule explicit instead of relying on zero values, so an empty string can
// still clear a field intentionally.
type EventPatch struct {
	Summary     *string
	Description *string
	Location    *string
	Start       *string
	End         *string
	TimeZone    *string
	Attendees   *[]string
}

// toEvent converts an upstream event into the minimal projection.
func toEvent(ev *calendar.Event) Event {
	if ev == nil {
		return Event{}
	}

	out := Event{
		ID:          ev.Id,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		HTMLLink:    ev.HtmlLink,
		Status:      ev.Status,
	}

	if ev.Start != nil {
		out.Start = eventTime(ev.Start)
	}
	if ev.End != nil {
		out.End = eventTime(ev.End)
	}

	for _, att := range ev.Attendees {
		out.Attendees = append(out.Attendees, att.Email)
	}

	return out
}

func eventTime(dt *calendar.EventDateTime) string {
	if dt.DateTime != "" {
		return dt.DateTime
	}
	return dt.Date
}

// eventDateTime builds an upstream start/end object from an RFC3339 instant
// and a time zone.
func eventDateTime(value, timeZone string) *calendar.EventDateTime {
	return &calendar.EventDateTime{
		DateTime: value,
		TimeZone: timeZone,
	}
}

// toAttendees maps attendee emails into the upstream representation.
func toAttendees(emails []string) []*calendar.EventAttendee {
	if len(emails) == 0 {
		return nil
	}
	attendees := make([]*calendar.EventAttendee, 0, len(emails))
	for _, email := range emails {
		attendees = append(attendees, &calendar.EventAttendee{Email: email})
	}
	return attendees
}

// mergeEvent applies a patch onto a fetched event in place. Every field the
// patch leaves nil keeps its stored value; an update is a merge, not a
// replace. defaultTimeZone is used when a time changes without a time zone.
func mergeEvent(existing *calendar.Event, patch EventPatch, defaultTimeZone string) {
	if patch.Summary != nil {
		existing.Summary = *patch.Summary
	}
	if patch.Description != nil {
		existing.Description = *patch.Description
	}
	if patch.Location != nil {
		existing.Location = *patch.Location
	}

	timeZone := defaultTimeZone
	if patch.TimeZone != nil {
		timeZone = *patch.TimeZone
	} else if existing.Start != nil && existing.Start.TimeZone != "" {
		timeZone = existing.Start.TimeZone
	}

	if patch.Start != nil {
		existing.Start = eventDateTime(*patch.Start, timeZone)
	}
	if patch.End != nil {
		existing.End = eventDateTime(*patch.End, timeZone)
	}

	if patch.Attendees != nil {
		existing.Attendees = toAttendees(*patch.Attendees)
	}
}
