package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/farm-weather/internal/metrics"
)

var (
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errUnexpected    = errors.New("unexpected status code")
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errShortForecast = errors.New("incomplete daily forecast")
)

// newCircuitBreaker trips after consecutive failures so a dead provider costs
// one fast failure per request instead of a full timeout.
func newCircuitBreaker(name string, m *metrics.Metrics) *gobreaker.CircuitBreaker {
	m.SetCircuitState(name, float64(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			m.SetCircuitState(name, float64(to))
		},
	})
}

// doRequest executes a single attempt through the circuit breaker. Non-2xx
// responses are errors and their bodies are drained and closed.
func doRequest(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
) (*http.Response, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}

	req, err := buildRequest(ctx)
	if err != nil {
		return nil, err
	}

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				return nil, errRateLimited
			case resp.StatusCode >= 500:
				return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
			default:
				return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
			}
		}

		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}
