package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCircuitBreakerFetchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("test content"))
	}))
	defer server.Close()

	cbf := NewCircuitBreakerFetcher(NewFetcher(), 5)
	resp, err := cbf.Fetch(context.Background(), server.URL+"/repodata.json")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "test content" {
		t.Errorf("body = %q, want test content", string(body))
	}
}

func TestCircuitBreakerTrips(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := NewFetcher(WithMaxRetries(0), WithBaseDelay(time.Millisecond))
	cbf := NewCircuitBreakerFetcher(fetcher, 2)
	ctx := context.Background()

	// Two consecutive failures trip the breaker
	for i := 0; i < 2; i++ {
		if _, err := cbf.Fetch(ctx, server.URL+"/repodata.json"); err == nil {
			t.Fatalf("attempt %d succeeded, want failure", i)
		}
	}

	_, err := cbf.Fetch(ctx, server.URL+"/repodata.json")
	if err == nil {
		t.Fatal("expected circuit open error")
	}
	if !strings.Contains(err.Error(), "circuit open") {
		t.Errorf("error = %v, want circuit open", err)
	}
	if !errors.Is(err, ErrUpstreamDown) {
		t.Errorf("error = %v, want ErrUpstreamDown", err)
	}
}

func TestCircuitBreakerFetchBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer server.Close()

	cbf := NewCircuitBreakerFetcher(NewFetcher(), 5)
	data, err := cbf.FetchBytes(context.Background(), server.URL+"/file")
	if err != nil {
		t.Fatalf("FetchBytes failed: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("FetchBytes = %q, want payload", string(data))
	}
}

func TestCircuitBreakerSeparateHosts(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer good.Close()

	fetcher := NewFetcher(WithMaxRetries(0), WithBaseDelay(time.Millisecond))
	cbf := NewCircuitBreakerFetcher(fetcher, 1)
	ctx := context.Background()

	// Trip the breaker for the failing host
	_, _ = cbf.Fetch(ctx, bad.URL+"/x")
	if _, err := cbf.Fetch(ctx, bad.URL+"/x"); err == nil || !strings.Contains(err.Error(), "circuit open") {
		t.Fatalf("expected circuit open for bad host, got %v", err)
	}

	// The good host is unaffected
	resp, err := cbf.Fetch(ctx, good.URL+"/y")
	if err != nil {
		t.Fatalf("good host failed: %v", err)
	}
	_ = resp.Body.Close()
}
