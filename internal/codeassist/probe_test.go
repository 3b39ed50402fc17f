package codeassist

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	stokererrors "stoker/internal/errors"
)

func newTestClient() *Client {
	return NewClient(Config{})
}

func TestProbeReturnsFirstHealthyEndpoint(t *testing.T) {
	var downHits, upHits atomic.Int32

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downHits.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer down.Close()

	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upHits.Add(1)
		if r.URL.Path != "/v1internal:loadCodeAssist" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer ya29.token" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		var payload probeRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload.Metadata.PluginType == "" {
			t.Fatal("expected client metadata in health request")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cloudaicompanionProject":"warm-project"}`))
	}))
	defer up.Close()

	client := newTestClient()
	ep, err := client.Probe(context.Background(), "ya29.token", []string{down.URL, up.URL})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}

	if ep.BaseURL != up.URL {
		t.Fatalf("expected second endpoint, got %s", ep.BaseURL)
	}
	if ep.ProjectID != "warm-project" {
		t.Fatalf("unexpected project: %q", ep.ProjectID)
	}
	if ep.Index != 1 {
		t.Fatalf("unexpected index: %d", ep.Index)
	}
	if downHits.Load() != 1 || upHits.Load() != 1 {
		t.Fatalf("each endpoint should be probed exactly once, got %d/%d", downHits.Load(), upHits.Load())
	}
}

func TestProbeProjectFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	ep, err := newTestClient().Probe(context.Background(), "t", []string{server.URL})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if ep.ProjectID != defaultProjectID {
		t.Fatalf("expected fallback project, got %q", ep.ProjectID)
	}
}

func TestProbeProjectObjectForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cloudaicompanionProject":{"id":"proj-42"}}`))
	}))
	defer server.Close()

	ep, err := newTestClient().Probe(context.Background(), "t", []string{server.URL})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if ep.ProjectID != "proj-42" {
		t.Fatalf("unexpected project: %q", ep.ProjectID)
	}
}

func TestProbeMalformedBodyAdvances(t *testing.T) {
	malformed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer malformed.Close()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"cloudaicompanionProject":"p"}`))
	}))
	defer healthy.Close()

	ep, err := newTestClient().Probe(context.Background(), "t", []string{malformed.URL, healthy.URL})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if ep.BaseURL != healthy.URL {
		t.Fatalf("expected malformed endpoint to be skipped, got %s", ep.BaseURL)
	}
}

func TestProbeExhaustion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient().Probe(context.Background(), "t", []string{server.URL, "http://127.0.0.1:1"})
	if !errors.Is(err, stokererrors.ErrNoWorkingEndpoint) {
		t.Fatalf("expected ErrNoWorkingEndpoint, got %v", err)
	}
}
