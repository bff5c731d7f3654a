package search

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func newFastFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
		logger: newTestLogger(),
	}
}

func TestFetchSuccessTrimsExcerpt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html><body><p>Hello world, this is a page.</p></body></html>"))
	}))
	defer srv.Close()

	page := newFastFetcher(time.Second).Fetch(context.Background(), srv.URL)
	if page.Source != srv.URL {
		t.Errorf("Source = %q, want %q", page.Source, srv.URL)
	}
	// Only the excerpt window survives.
	if page.Content != "He" {
		t.Errorf("Content = %q, want %q", page.Content, "He")
	}
}

func TestFetchSkipsScriptAndStyle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><head><style>.x{color:red}</style></head>` +
			`<body><script>var hidden = 1;</script><p>Visible</p></body></html>`))
	}))
	defer srv.Close()

	page := newFastFetcher(time.Second).Fetch(context.Background(), srv.URL)
	if page.Content != "Vi" {
		t.Errorf("Content = %q, want visible text only", page.Content)
	}
}

func TestFetchGarbledPageYieldsEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html><body><p>日本語のテキストだけのページです</p></body></html>"))
	}))
	defer srv.Close()

	page := newFastFetcher(time.Second).Fetch(context.Background(), srv.URL)
	if page.Content != "" {
		t.Errorf("Content = %q, want empty for garbled page", page.Content)
	}
	if page.Source != srv.URL {
		t.Errorf("Source = %q, want URL preserved", page.Source)
	}
}

func TestFetchTimeoutDoesNotRaise(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("<p>late</p>"))
	}))
	defer srv.Close()

	page := newFastFetcher(20 * time.Millisecond).Fetch(context.Background(), srv.URL)
	if page.Content != "" {
		t.Errorf("Content = %q, want empty on timeout", page.Content)
	}
	if page.Source != srv.URL {
		t.Errorf("Source = %q, want URL preserved", page.Source)
	}
}

func TestFetchHTTPErrorYieldsEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	page := newFastFetcher(time.Second).Fetch(context.Background(), srv.URL)
	if page.Content != "" {
		t.Errorf("Content = %q, want empty on HTTP 404", page.Content)
	}
}

func TestFetchUnreachableHost(t *testing.T) {
	page := newFastFetcher(50 * time.Millisecond).Fetch(context.Background(), "http://127.0.0.1:1/none")
	if page.Content != "" || page.Source != "http://127.0.0.1:1/none" {
		t.Errorf("got %+v, want empty content with source preserved", page)
	}
}

func TestTrimExcerpt(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"a", "a"},
		{"abcdef", "ab"},
		{". and more", "."}, // boundary inside the window
		{"日本語テキスト", "日本"},
	}
	for _, tt := range tests {
		if got := trimExcerpt(tt.in); got != tt.want {
			t.Errorf("trimExcerpt(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractTextJoinsWithSingleSpaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<div><h1>  One  </h1><p>Two</p><span>Three</span></div>"))
	}))
	defer srv.Close()

	// Bypass trimming by checking the garble/trim pipeline indirectly: a
	// page whose first two characters depend on joined order.
	page := newFastFetcher(time.Second).Fetch(context.Background(), srv.URL)
	if !strings.HasPrefix("One Two Three", page.Content) || page.Content == "" {
		t.Errorf("Content = %q, want prefix of %q", page.Content, "One Two Three")
	}
}
