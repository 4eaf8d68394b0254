// Command ingest runs a single archive-follow ingest session for one
// streamer outside the HTTP server, for operators who want to
// backfill or debug ingest without starting the whole service. It is
// the Go analogue of original_source/runners/run_live_ingest.py.
//
// Usage:
//
//	ingest -streamer=<name>
//
// The session runs until the archive finishes (the streamer goes
// offline and stops growing) or the process receives SIGINT/SIGTERM,
// at which point it stops the follower and exits cleanly.
package main
