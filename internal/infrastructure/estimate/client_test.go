package estimate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bodybest/backend/internal/domain"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		Timeout:        2 * time.Second,
		RequestsPerMin: 6000,
	}, zap.NewNop())
}

func TestEstimate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/estimate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req estimateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "шопска салата", req.Food)
		assert.Equal(t, "1 порция", req.Quantity)

		json.NewEncoder(w).Encode(estimateResponse{
			Calories: 210, Protein: 7.5, Carbs: 10, Fat: 16, Fiber: 3.2,
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	profile, err := client.Estimate(context.Background(), "шопска салата", "1 порция")

	require.NoError(t, err)
	assert.Equal(t, 210.0, profile.Calories)
	assert.Equal(t, 7.5, profile.Protein)
	assert.Equal(t, 3.2, profile.Fiber)
}

func TestEstimate_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Estimate(context.Background(), "храна", "100")

	assert.ErrorIs(t, err, domain.ErrEstimateFailure)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestEstimate_ServerErrorRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(estimateResponse{Calories: 120})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	profile, err := client.Estimate(context.Background(), "храна", "100")

	require.NoError(t, err)
	assert.Equal(t, 120.0, profile.Calories)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestEstimate_ExhaustsRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Estimate(context.Background(), "храна", "100")

	assert.ErrorIs(t, err, domain.ErrEstimateFailure)
	assert.Equal(t, int32(maxAttempts), atomic.LoadInt32(&calls))
}

func TestEstimate_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Estimate(context.Background(), "храна", "100")

	assert.ErrorIs(t, err, domain.ErrEstimateFailure)
}

func TestEstimate_RejectsNegativeValues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(estimateResponse{Calories: 100, Protein: -5})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Estimate(context.Background(), "храна", "100")

	assert.ErrorIs(t, err, domain.ErrEstimateFailure)
	assert.Contains(t, err.Error(), "protein")
}

func TestEstimate_ContextTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Estimate(ctx, "храна", "100")
	assert.Error(t, err)
}

func TestValidateProfile(t *testing.T) {
	profile, err := validateProfile(estimateResponse{Calories: 100, Protein: 5, Carbs: 12, Fat: 3, Fiber: 1})
	require.NoError(t, err)
	assert.Equal(t, 100.0, profile.Calories)

	_, err = validateProfile(estimateResponse{Calories: -1})
	assert.ErrorIs(t, err, domain.ErrEstimateFailure)
}

func TestExponentialBackoff(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, exponentialBackoff(1))
	assert.Equal(t, time.Second, exponentialBackoff(2))
	assert.Equal(t, 2*time.Second, exponentialBackoff(3))
}
