/*
Package twitch is the platform adapter the monitor supervisor and the
archive-follower depend on: IsLive, GetUserID, GetLatestArchive over
the Twitch Helix API, authenticated with an OAuth2 client_credentials
token that is fetched lazily and refreshed once on a 401.

HelixClient talks to the network; CircuitBreakerClient wraps it with a
gobreaker.CircuitBreaker configured the same way cartographus wraps its
Tautulli client, so a sustained Twitch outage opens the breaker instead
of piling up failing requests, and the monitor supervisor's retry loop
sees fast failures instead of repeated timeouts.
*/
package twitch
