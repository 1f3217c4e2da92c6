package service

// Tool names. Every transport exposes the same six tools under these names.
const (
	ToolGetAuthURL    = "get_auth_url"
	ToolGetAuthStatus = "get_auth_status"
	ToolListEvents    = "list_events"
	ToolCreateEvent   = "create_event"
	ToolUpdateEvent   = "update_event"
	ToolDeleteEvent   = "delete_event"
)

// Definition describes one tool in the shared catalog. Parameters is a JSON
// Schema object, the shape OpenAI-style tool calling and the REST /tools/list
// endpoint both expect.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Catalog returns the definitions of all available tools. The slice is
// rebuilt on each call so callers may modify it freely.
func Catalog() []Definition {
	return []Definition{
		{
			Name:        ToolGetAuthURL,
			Description: "Get the Google OAuth authorization URL to grant calendar access",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        ToolGetAuthStatus,
			Description: "Check whether the server currently holds valid Google Calendar credentials",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        ToolListEvents,
			Description: "List upcoming calendar events within a time range",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"timeMin": map[string]any{
						"type":        "string",
						"description": "Start of the time range (RFC3339, e.g. '2025-01-01T00:00:00Z'). Defaults to now.",
					},
					"timeMax": map[string]any{
						"type":        "string",
						"description": "End of the time range (RFC3339). Unbounded when omitted.",
					},
					"maxResults": map[string]any{
						"type":        "integer",
						"description": "Maximum number of events to return (1-50, default 10)",
					},
				},
			},
		},
		{
			Name:        ToolCreateEvent,
			Description: "Create a new calendar event",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"summary": map[string]any{
						"type":        "string",
						"description": "Event title",
					},
					"start": map[string]any{
						"type":        "string",
						"description": "Start time (RFC3339, e.g. '2025-01-15T14:00:00Z')",
					},
					"end": map[string]any{
						"type":        "string",
						"description": "End time (RFC3339)",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "Event description",
					},
					"location": map[string]any{
						"type":        "string",
						"description": "Event location",
					},
					"timeZone": map[string]any{
						"type":        "string",
						"description": "Time zone (e.g. 'America/Sao_Paulo'). Defaults to the configured zone.",
					},
					"attendees": map[string]any{
						"type":        "string",
						"description": "Comma-separated list of attendee email addresses",
					},
				},
				"required": []string{"summary", "start", "end"},
			},
		},
		{
			Name:        ToolUpdateEvent,
			Description: "Update an existing calendar event; omitted fields keep their current values",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"eventId": map[string]any{
						"type":        "string",
						"description": "The ID of the event to update",
					},
					"summary": map[string]any{
						"type":        "string",
						"description": "New event title",
					},
					"start": map[string]any{
						"type":        "string",
						"description": "New start time (RFC3339)",
					},
					"end": map[string]any{
						"type":        "string",
						"description": "New end time (RFC3339)",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "New event description",
					},
					"location": map[string]any{
						"type":        "string",
						"description": "New event location",
					},
					"timeZone": map[string]any{
						"type":        "string",
						"description": "New time zone",
					},
					"attendees": map[string]any{
						"type":        "string",
						"description": "New comma-separated list of attendee email addresses",
					},
				},
				"required": []string{"eventId"},
			},
		},
		{
			Name:        ToolDeleteEvent,
			Description: "Delete a calendar event",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"eventId": map[string]any{
						"type":        "string",
						"description": "The ID of the event to delete",
					},
				},
				"required": []string{"eventId"},
			},
		},
	}
}
