package twitch

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/manofshad/vodhunter-go/internal/metrics"
)

// CircuitBreakerClient wraps a Client with a gobreaker.CircuitBreaker,
// configured the same way cartographus wraps its Tautulli client:
// opens at a >=60% failure rate once at least 10 requests have been
// seen, stays open for 2 minutes before probing again.
type CircuitBreakerClient struct {
	client Client
	cb     *gobreaker.CircuitBreaker[any]
	name   string
}

// NewCircuitBreakerClient wraps client with breaker protection.
func NewCircuitBreakerClient(client Client) *CircuitBreakerClient {
	const name = "twitch-helix"
	metrics.SetCircuitBreakerState(name, "closed")

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(_ string, _, to gobreaker.State) {
			metrics.SetCircuitBreakerState(name, stateName(to))
		},
	})

	return &CircuitBreakerClient{client: client, cb: cb, name: name}
}

func stateName(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func execute[T any](cb *CircuitBreakerClient, operation string, fn func() (T, error)) (T, error) {
	start := time.Now()
	result, err := cb.cb.Execute(func() (any, error) {
		return fn()
	})
	metrics.RecordExternalCall(cb.name, operation, time.Since(start))
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

func (cb *CircuitBreakerClient) IsLive(ctx context.Context, user string) (bool, error) {
	return execute(cb, "is_live", func() (bool, error) { return cb.client.IsLive(ctx, user) })
}

func (cb *CircuitBreakerClient) GetUserID(ctx context.Context, user string) (string, error) {
	return execute(cb, "get_user_id", func() (string, error) { return cb.client.GetUserID(ctx, user) })
}

func (cb *CircuitBreakerClient) GetLatestArchive(ctx context.Context, userID string) (*Archive, error) {
	return execute(cb, "get_latest_archive", func() (*Archive, error) { return cb.client.GetLatestArchive(ctx, userID) })
}
