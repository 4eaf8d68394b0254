package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// httpServer matches *http.Server's lifecycle methods, letting
// httpServerService be tested against a fake.
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// httpServerService wraps an HTTP server as a suture.Service: it
// starts ListenAndServe in a goroutine, then waits for either context
// cancellation (graceful Shutdown) or a server error.
type httpServerService struct {
	server          httpServer
	shutdownTimeout time.Duration
}

func newHTTPServerService(server httpServer, shutdownTimeout time.Duration) *httpServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &httpServerService{server: server, shutdownTimeout: shutdownTimeout}
}

func (h *httpServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (h *httpServerService) String() string {
	return "api-http-server"
}
