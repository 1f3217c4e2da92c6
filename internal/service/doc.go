// Package service holds the transport-neutral tool dispatcher.
//
// Every transport (MCP stdio, REST, OpenAI-style tool calling) decodes its
// request into a ToolRequest and hands it to Dispatcher.Dispatch, so the six
// tools behave identically everywhere. Errors keep their concrete types
// (ValidationError, UnknownToolError, the auth sentinels,
// calendar.ErrEventNotFound) for transports to map onto their own status
// vocabulary. Calendar tools check authentication before touching the
// upstream API.
package service
