/*
Package api exposes spec.md §6's six-endpoint HTTP surface over the
monitor supervisor and search service: health, live-monitor status,
start/stop, session listing, and clip search. It is a thin translation
layer - no business logic lives here beyond request parsing and status
code mapping, matching spec.md §7's "Search errors are caught at the
HTTP handler and returned as structured {code, message} bodies" policy.

Routing uses github.com/go-chi/chi/v5 with cartographus's own request-ID
and Prometheus middleware; responses are encoded with
github.com/goccy/go-json, the JSON codec cartographus uses throughout
its API layer. Unlike cartographus's nested {success, data, error, meta}
APIResponse envelope, handlers here write spec.md §6's literal response
shapes directly (e.g. {ok: true}, {status: LiveStatus}) since the
spec pins exact wire formats.
*/
package api
