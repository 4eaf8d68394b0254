/*
Package supervisor provides process supervision using suture v4.

This package implements a hierarchical supervisor tree that manages the
lifecycle of the process's two long-running services: the monitor
supervisor and the HTTP server. It provides Erlang/OTP-style supervision
with automatic restart, failure isolation, and graceful shutdown.

# Overview

The supervisor tree organizes services into two layers for failure
isolation:

	RootSupervisor ("vodhunter")
	├── IngestSupervisor ("ingest-layer")
	│   └── MonitorSupervisor
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

This hierarchy ensures that a crash while ingesting a VOD doesn't take
down the HTTP API's ability to serve search requests, and vice versa.

# Key Features

Automatic Restart:
  - Crashed services are automatically restarted
  - Exponential backoff prevents restart storms
  - Configurable failure thresholds and decay rates

Graceful Shutdown:
  - Context cancellation triggers orderly shutdown
  - Configurable shutdown timeout per service
  - UnstoppedServiceReport for debugging hangs

Structured Logging:
  - Integration with slog for structured events
  - Logs service starts, stops, failures, and restarts
  - Event hooks via the sutureslog adapter

# Usage Example

Basic setup in main.go:

	import (
	    "log/slog"
	    "github.com/manofshad/vodhunter-go/internal/supervisor"
	)

	func main() {
	    logger := slog.Default()
	    config := supervisor.DefaultTreeConfig()

	    tree, err := supervisor.NewSupervisorTree(logger, config)
	    if err != nil {
	        log.Fatal(err)
	    }

	    tree.AddIngestService(monitorSupervisor)
	    tree.AddAPIService(httpServerService)

	    ctx := context.Background()
	    if err := tree.Serve(ctx); err != nil {
	        log.Printf("Supervisor stopped: %v", err)
	    }
	}

Background operation:

	errChan := tree.ServeBackground(ctx)
	// Do other setup...
	if err := <-errChan; err != nil {
	    log.Printf("Supervisor error: %v", err)
	}

# Configuration

The TreeConfig controls restart behavior:

	config := supervisor.TreeConfig{
	    FailureThreshold: 5.0,          // Failures before backoff
	    FailureDecay:     30.0,         // Seconds for failures to decay
	    FailureBackoff:   15 * time.Second, // Backoff duration
	    ShutdownTimeout:  10 * time.Second, // Per-service shutdown timeout
	}

Default values match suture's production-ready defaults.

# Failure Handling

The supervisor uses a failure counter with exponential decay:

 1. Each service failure increments the counter
 2. Counter decays exponentially over time (FailureDecay seconds)
 3. When counter exceeds FailureThreshold, supervisor enters backoff
 4. During backoff, restarts are delayed by FailureBackoff duration

# Service Interface

All services must implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return behavior:
  - Return suture.ErrDoNotRestart: service finished, will not be restarted
  - Return nil or any other error: service ended, will be restarted
  - Context canceled: shutdown requested, return promptly

# What Is NOT Supervised

DuckDB and the vector store are intentionally not supervised: they are
embedded, not long-running services. The Twitch Helix client and media
extractor are not supervised by suture either: the monitor supervisor's
worker records their failures in its status (state error, last error)
and retries after MonitorRetryBackoff, while its Serve only returns when
the tree shuts down.

# Debugging Shutdown Issues

If services don't stop within the timeout:

	report, err := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    log.Printf("Service didn't stop: %v", svc)
	}

# Thread Safety

The SupervisorTree is safe for concurrent use: services can be added
from any goroutine, and remove operations are synchronized.

# See Also

  - internal/monitor: the MonitorSupervisor added to the ingest layer
  - github.com/thejerf/suture/v4: underlying library
*/
package supervisor
