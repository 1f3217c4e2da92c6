// Package calendar provides a thin client for the Google Calendar API
// operating on a single calendar.
//
// Events cross the package boundary as a minimal projection (summary,
// description, location, start, end, attendees, link) rather than the full
// upstream representation. Updates are merges: the client fetches the
// current event and only overwrites the fields the patch names, so a
// partial update never clears anything. Upstream 404s are narrowed to
// ErrEventNotFound; all other upstream errors pass through with their
// message intact.
package calendar
