package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeModelServer(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		vec := make([]float32, dims)
		for i := range vec {
			vec[i] = 1.0
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(embedResponse{Embedding: vec})
	}))
}

func TestNewLocalEmbedderDiscoversDimensionsFromServer(t *testing.T) {
	srv := fakeModelServer(t, 16)
	defer srv.Close()

	e, err := NewLocalEmbedder(context.Background(), LocalConfig{Host: srv.URL, Model: "test-model"})
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, 16, e.Dimensions())
	assert.Equal(t, "test-model", e.ModelName())
}

func TestNewLocalEmbedderFailsWhenServerUnreachable(t *testing.T) {
	_, err := NewLocalEmbedder(context.Background(), LocalConfig{
		Host:           "http://127.0.0.1:1",
		ConnectTimeout: 200 * time.Millisecond,
		MaxRetries:     1,
	})
	assert.Error(t, err)
}

func TestLocalEmbedderSkipHealthCheckDefersConnection(t *testing.T) {
	e, err := NewLocalEmbedder(context.Background(), LocalConfig{
		Host:            "http://127.0.0.1:1",
		SkipHealthCheck: true,
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultDimensions, e.Dimensions())
}

func TestLocalEmbedderEmbedReturnsNormalizedVector(t *testing.T) {
	srv := fakeModelServer(t, 4)
	defer srv.Close()

	e, err := NewLocalEmbedder(context.Background(), LocalConfig{Host: srv.URL})
	require.NoError(t, err)
	defer e.Close()

	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)

	var sumSquares float64
	for _, f := range vec {
		sumSquares += float64(f) * float64(f)
	}
	assert.InDelta(t, 1.0, sumSquares, 0.001)
}

func TestLocalEmbedderEmbedEmptyTextYieldsZeroVector(t *testing.T) {
	srv := fakeModelServer(t, 8)
	defer srv.Close()

	e, err := NewLocalEmbedder(context.Background(), LocalConfig{Host: srv.URL})
	require.NoError(t, err)
	defer e.Close()

	vec, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	assert.Len(t, vec, 8)
	for _, f := range vec {
		assert.Zero(t, f)
	}
}

func TestLocalEmbedderEmbedBatchReturnsOneVectorPerText(t *testing.T) {
	srv := fakeModelServer(t, 4)
	defer srv.Close()

	e, err := NewLocalEmbedder(context.Background(), LocalConfig{Host: srv.URL})
	require.NoError(t, err)
	defer e.Close()

	results, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestLocalEmbedderCloseMarksUnavailable(t *testing.T) {
	e, err := NewLocalEmbedder(context.Background(), LocalConfig{SkipHealthCheck: true})
	require.NoError(t, err)

	require.NoError(t, e.Close())
	assert.False(t, e.Available(context.Background()))

	_, err = e.Embed(context.Background(), "text")
	assert.Error(t, err)
}

func TestLocalEmbedderEventsReportsReadyOnSuccess(t *testing.T) {
	srv := fakeModelServer(t, 4)
	defer srv.Close()

	e, err := NewLocalEmbedder(context.Background(), LocalConfig{Host: srv.URL})
	require.NoError(t, err)
	defer e.Close()

	var last ProgressEvent
	draining := true
	for draining {
		select {
		case evt := <-e.Events():
			last = evt
		default:
			draining = false
		}
	}
	assert.Equal(t, StateReady, last.State)
}
