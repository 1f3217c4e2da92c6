package calendar_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/calbridge/calbridge/internal/service"
)

// RegisterCalendarTools registers all calendar and authentication tools with
// the MCP server. The handlers are thin: they hand the raw argument object
// to the dispatcher and render its outcome, so tool behavior stays identical
// across transports.
func RegisterCalendarTools(s *mcpserver.MCPServer, dispatcher *service.Dispatcher) error {
	getAuthURLTool := mcp.NewTool(service.ToolGetAuthURL,
		mcp.WithDescription("Get the Google OAuth authorization URL to grant calendar access"),
	)
	s.AddTool(getAuthURLTool, dispatchHandler(dispatcher, service.ToolGetAuthURL))

	getAuthStatusTool := mcp.NewTool(service.ToolGetAuthStatus,
		mcp.WithDescription("Check whether the server currently holds valid Google Calendar credentials"),
	)
	s.AddTool(getAuthStatusTool, dispatchHandler(dispatcher, service.ToolGetAuthStatus))

	listEventsTool := mcp.NewTool(service.ToolListEvents,
		mcp.WithDescription("List upcoming calendar events within a time range"),
		mcp.WithString("timeMin",
			mcp.Description("Start of the time range (RFC3339, e.g. '2025-01-01T00:00:00Z'). Defaults to now."),
		),
		mcp.WithString("timeMax",
			mcp.Description("End of the time range (RFC3339). Unbounded when omitted."),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of events to return (1-50, default 10)"),
		),
	)
	s.AddTool(listEventsTool, dispatchHandler(dispatcher, service.ToolListEvents))

	createEventTool := mcp.NewTool(service.ToolCreateEvent,
		mcp.WithDescription("Create a new calendar event"),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Event title"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start time (RFC3339, e.g. '2025-01-15T14:00:00Z')"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("End time (RFC3339)"),
		),
		mcp.WithString("description",
			mcp.Description("Event description"),
		),
		mcp.WithString("location",
			mcp.Description("Event location"),
		),
		mcp.WithString("timeZone",
			mcp.Description("Time zone (e.g. 'America/Sao_Paulo'). Defaults to the configured zone."),
		),
		mcp.WithString("attendees",
			mcp.Description("Comma-separated list of attendee email addresses"),
		),
	)
	s.AddTool(createEventTool, dispatchHandler(dispatcher, service.ToolCreateEvent))

	updateEventTool := mcp.NewTool(service.ToolUpdateEvent,
		mcp.WithDescription("Update an existing calendar event; omitted fields keep their current values"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to update"),
		),
		mcp.WithString("summary",
			mcp.Description("New event title"),
		),
		mcp.WithString("start",
			mcp.Description("New start time (RFC3339)"),
		),
		mcp.WithString("end",
			mcp.Description("New end time (RFC3339)"),
		),
		mcp.WithString("description",
			mcp.Description("New event description"),
		),
		mcp.WithString("location",
			mcp.Description("New event location"),
		),
		mcp.WithString("timeZone",
			mcp.Description("New time zone"),
		),
		mcp.WithString("attendees",
			mcp.Description("New comma-separated list of attendee email addresses"),
		),
	)
	s.AddTool(updateEventTool, dispatchHandler(dispatcher, service.ToolUpdateEvent))

	deleteEventTool := mcp.NewTool(service.ToolDeleteEvent,
		mcp.WithDescription("Delete a calendar event"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to delete"),
		),
	)
	s.AddTool(deleteEventTool, dispatchHandler(dispatcher, service.ToolDeleteEvent))

	return nil
}

// dispatchHandler adapts one named tool onto the dispatcher. Tool failures
// are reported as tool results, not protocol errors, so agents can read and
// react to them.
func dispatchHandler(dispatcher *service.Dispatcher, name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := dispatcher.Dispatch(ctx, service.ToolRequest{
			Name:      name,
			Arguments: request.GetArguments(),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(res.Text), nil
	}
}
