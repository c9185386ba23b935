package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestIconCacheResolve(t *testing.T) {
	var requests int32
	iconBytes := []byte("\x89PNG fake image data")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		if r.URL.Path != "/icons/01-s.png" {
			t.Errorf("Unexpected icon path: %q", r.URL.Path)
		}
		w.Write(iconBytes)
	}))
	defer server.Close()

	cache := NewIconCache()
	cache.urlTemplate = server.URL + "/icons/%s-s.png"

	ctx := context.Background()
	first := cache.Resolve(ctx, "01")
	if !bytes.Equal(first, iconBytes) {
		t.Errorf("Resolve returned %q, want image bytes", first)
	}

	// Repeat lookups are served from the cache, including the padded form.
	second := cache.Resolve(ctx, "01")
	third := cache.Resolve(ctx, "1")
	if !bytes.Equal(second, iconBytes) || !bytes.Equal(third, iconBytes) {
		t.Error("Expected cached bytes on repeat lookups")
	}

	if n := atomic.LoadInt32(&requests); n != 1 {
		t.Errorf("Expected exactly one fetch, got %d", n)
	}
}

func TestIconCacheMemoizesFailure(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cache := NewIconCache()
	cache.urlTemplate = server.URL + "/icons/%s-s.png"

	ctx := context.Background()
	if data := cache.Resolve(ctx, "44"); data != nil {
		t.Errorf("Expected nil for failed fetch, got %d bytes", len(data))
	}
	if data := cache.Resolve(ctx, "44"); data != nil {
		t.Errorf("Expected nil on repeat lookup, got %d bytes", len(data))
	}

	if n := atomic.LoadInt32(&requests); n != 1 {
		t.Errorf("Expected the failure to be memoized after one fetch, got %d", n)
	}
}

func TestIconCacheEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cache := NewIconCache()
	cache.urlTemplate = server.URL + "/icons/%s-s.png"

	if data := cache.Resolve(context.Background(), "07"); data != nil {
		t.Errorf("Expected nil for empty body, got %d bytes", len(data))
	}
}

func TestIconCacheEmptyCode(t *testing.T) {
	cache := NewIconCache()
	if data := cache.Resolve(context.Background(), ""); data != nil {
		t.Errorf("Expected nil for empty code, got %d bytes", len(data))
	}
}

func TestPadIconCode(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"1", "01"},
		{"7", "07"},
		{"12", "12"},
		{"44", "44"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := PadIconCode(tt.in); got != tt.expected {
			t.Errorf("PadIconCode(%q) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}
