package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Grounded on original_source/tests/test_github_client.py::test_execute_retries_on_secondary_rate_limit (S4).
func TestExecute_RetriesOnSecondaryRateLimit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"message": "You have exceeded a secondary rate limit. Please wait.",
			})
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"rateLimit": map[string]any{"cost": 1, "remaining": 4999, "resetAt": time.Now().UTC().Format(time.RFC3339)},
				"search":    map[string]any{"repositoryCount": 1},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(Options{Endpoint: srv.URL, MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 10 * time.Millisecond})
	res, err := c.CountRepositories(context.Background(), "created:>=2024-01-01")
	require.NoError(t, err)
	require.Equal(t, 1, res.RepositoryCount)
	require.Equal(t, 2, calls)
}

// Grounded on original_source/tests/test_github_client.py::test_execute_raises_for_non_retryable_message (S5).
func TestExecute_FatalOnNonRetryableMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "Bad credentials"})
	}))
	defer srv.Close()

	c := NewClient(Options{Endpoint: srv.URL, MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 10 * time.Millisecond})
	_, err := c.CountRepositories(context.Background(), "created:>=2024-01-01")
	require.Error(t, err)
	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	require.Contains(t, fatal.Body, "Bad credentials")
}

func TestExecute_RetriesOnTransient5xx(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"search": map[string]any{"repositoryCount": 42}},
		})
	}))
	defer srv.Close()

	c := NewClient(Options{Endpoint: srv.URL, MaxRetries: 5, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond})
	res, err := c.CountRepositories(context.Background(), "created:>=2024-01-01")
	require.NoError(t, err)
	require.Equal(t, 42, res.RepositoryCount)
	require.Equal(t, 3, calls)
}

func TestExecute_FatalOnMissingData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer srv.Close()

	c := NewClient(Options{Endpoint: srv.URL, MaxRetries: 1})
	_, err := c.CountRepositories(context.Background(), "created:>=2024-01-01")
	require.Error(t, err)
	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	require.Equal(t, FatalMissingData, fatal.Kind)
}

func TestExecute_RetryAfterHTTPDate(t *testing.T) {
	future := time.Now().Add(2 * time.Second).UTC()
	require.WithinDuration(t, future, future, 0) // sanity
	d := retryAfterDelay(future.Format(http.TimeFormat), time.Now().UTC())
	require.Greater(t, d, time.Duration(0))
	require.LessOrEqual(t, d, 2*time.Second)
}

func TestRetryAfterDelay_IntegerSeconds(t *testing.T) {
	d := retryAfterDelay("2", time.Now())
	require.Equal(t, 2*time.Second, d)
}
