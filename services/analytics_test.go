package services

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

func TestAnalyticsClientSuccess(t *testing.T) {
	var got analyzeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/analyze", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer": 42}`))
	}))
	defer srv.Close()

	out := NewAnalyticsClient(srv.URL+"/", time.Second).Ask(context.Background(), "acme.myshopify.com", "What were sales last week?", "shpat_1")

	require.True(t, out.Success, out.Error)
	assert.JSONEq(t, `{"answer": 42}`, string(out.Payload))
	assert.Equal(t, analyzeRequest{StoreID: "acme.myshopify.com", Question: "What were sales last week?", AccessToken: "shpat_1"}, got)
}

func TestAnalyticsClientOmitsEmptyToken(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	out := NewAnalyticsClient(srv.URL, time.Second).Ask(context.Background(), "acme.myshopify.com", "q", "")
	require.True(t, out.Success)
	assert.NotContains(t, body, "access_token")
}

func TestAnalyticsClientPeerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"gemini quota exceeded"}`))
	}))
	defer srv.Close()

	out := NewAnalyticsClient(srv.URL, time.Second).Ask(context.Background(), "acme.myshopify.com", "q", "")
	assert.False(t, out.Success)
	assert.Equal(t, `{"detail":"gemini quota exceeded"}`, out.Error)
}

func TestAnalyticsClientEmptyErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	out := NewAnalyticsClient(srv.URL, time.Second).Ask(context.Background(), "acme.myshopify.com", "q", "")
	assert.False(t, out.Success)
	assert.Equal(t, "503 Service Unavailable", out.Error)
}

func TestAnalyticsClientInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	out := NewAnalyticsClient(srv.URL, time.Second).Ask(context.Background(), "acme.myshopify.com", "q", "")
	assert.False(t, out.Success)
	assert.Equal(t, "invalid response from analytics service", out.Error)
}

func TestAnalyticsClientOffline(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	out := NewAnalyticsClient(addr, time.Second).Ask(context.Background(), "acme.myshopify.com", "q", "")
	assert.False(t, out.Success)
	assert.Equal(t, "service offline", out.Error)
}

func TestAnalyticsClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	out := NewAnalyticsClient(srv.URL, 50*time.Millisecond).Ask(context.Background(), "acme.myshopify.com", "q", "")
	assert.False(t, out.Success)
	assert.Equal(t, "service timed out", out.Error)
}
