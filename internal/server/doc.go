// Package server hosts the HTTP face of calbridge and the shared server
// context.
//
// The HTTP surface has three parts: the OAuth endpoints (/auth/url,
// /auth/callback, /auth/status), the REST calendar endpoints
// (/calendar/events...), and the OpenAI-style tool-calling endpoints
// (/tools/list, /tools/call). All calendar traffic funnels through the same
// dispatcher the MCP transport uses. Prometheus metrics are served on a
// separate port by MetricsServer, and health probes live at /healthz and
// /readyz.
package server
