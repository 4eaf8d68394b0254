// Package main is the entry point for the vodhunter server.
//
// vodhunter identifies which live Twitch broadcast a short audio clip
// was recorded from. A monitor supervisor polls Twitch for one
// configured streamer going live, archive-follows the growing VOD,
// embeds audio into fingerprint vectors, and stores them; an HTTP API
// lets a client upload a clip and get back the (streamer, video,
// timestamp) it was recorded from.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: load settings from environment variables and an
//     optional config file (Koanf v2).
//  2. Metadata store: open the DuckDB-backed creators/videos/
//     fingerprints schema.
//  3. Vector store: open the append-only fingerprint matrix.
//  4. Twitch client: a Helix API adapter behind a circuit breaker.
//  5. Media extractor, embedder: the archive-follower's audio pipeline.
//  6. Monitor supervisor: the single-slot live-monitoring FSM.
//  7. Search service: clip preprocessing -> embed -> match -> align.
//  8. HTTP server: the six-endpoint API surface, plus /metrics and
//     /swagger.
//  9. Supervisor tree: the monitor and the HTTP server run as two
//     supervised services under one suture.Supervisor, so either can
//     restart independently of the other.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, an optional config.yaml, and
// built-in defaults. See internal/config for the full schema
// (TWITCH_CLIENT_ID, TWITCH_CLIENT_SECRET, INGEST_CHUNK_SECONDS,
// ALIGN_MIN_VOTE_COUNT, SERVER_PORT, DATA_DIR, and so on).
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: the
// supervisor tree's root context is cancelled, the monitor stops its
// active ingest session and waits for its worker to exit (the wait has
// no timeout), and
// the HTTP server finishes in-flight requests before exiting.
package main
