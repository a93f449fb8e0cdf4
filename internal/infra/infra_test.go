package infra

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllowsUpToBurst(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("Wait %d: %v", i, err)
		}
	}
}

func TestRateLimiterBlocksWhenExhausted(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	ctx := context.Background()

	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)
	ctx := context.Background()

	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := rl.Wait(ctx); err != nil {
		t.Errorf("Wait after refill window: %v", err)
	}
}

func TestUpstreamErrorMessage(t *testing.T) {
	err := &UpstreamError{Service: "market", Status: 429, Body: []byte("slow down")}
	want := "market: upstream status 429"
	if err.Error() != want {
		t.Errorf("Error(): got %q, want %q", err.Error(), want)
	}
}

func TestDoGetReturnsNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	body, status, err := DoGet(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("DoGet: a non-2xx status is not an error: %v", err)
	}
	if status != http.StatusBadGateway {
		t.Errorf("status: got %d, want 502", status)
	}
	if string(body) != "nope\n" {
		t.Errorf("body: got %q", body)
	}
}

func TestDoPostSendsJSONHeaders(t *testing.T) {
	var contentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	_, status, err := DoPost(context.Background(), srv.Client(), srv.URL, []byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("DoPost: %v", err)
	}
	if status != http.StatusCreated {
		t.Errorf("status: got %d, want 201", status)
	}
	if contentType != "application/json" {
		t.Errorf("Content-Type: got %q", contentType)
	}
	if string(gotBody) != `{"a":1}` {
		t.Errorf("body: got %s", gotBody)
	}
}

func TestDoGetContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, _, err := DoGet(ctx, srv.Client(), srv.URL); err == nil {
		t.Error("expected error from cancelled context")
	}
}
