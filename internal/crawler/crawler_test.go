package crawler

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagecontent/internal/config"
)

func TestFetchHTML(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "pagecontent")
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(200)
		_, _ = w.Write([]byte("<html><title>x</title></html>"))
	}))
	defer ts.Close()

	client := NewHTTPClient(5*time.Second, 2*time.Second, 1024)
	resp, err := client.Fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html><title>x</title></html>", string(resp.Body))
	assert.Equal(t, ts.URL, resp.FinalURL)
	assert.Equal(t, "text/html", resp.ContentType)
	assert.Greater(t, resp.Elapsed, time.Duration(0))
}

func TestFetchFollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<p>moved</p>"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	resp, err := NewHTTPClient(5*time.Second, 2*time.Second, 1024).Fetch(context.Background(), ts.URL+"/old")
	require.NoError(t, err)
	assert.Equal(t, ts.URL+"/new", resp.FinalURL)
}

func TestRejectNonHTML(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(200)
		w.Write([]byte("{}"))
	}))
	defer ts.Close()

	client := NewHTTPClient(5*time.Second, 2*time.Second, 1024)
	_, err := client.Fetch(context.Background(), ts.URL)
	assert.ErrorIs(t, err, ErrNonHTML)
}

func TestStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	_, err := NewHTTPClient(5*time.Second, 2*time.Second, 1024).Fetch(context.Background(), ts.URL)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestInvalidURL(t *testing.T) {
	client := NewHTTPClient(time.Second, time.Second, 1024)
	for _, u := range []string{"", "example.com/x", "ftp://example.com/x", "http://"} {
		_, err := client.Fetch(context.Background(), u)
		assert.ErrorIs(t, err, ErrInvalidURL, u)
	}
}

func TestGzipAndSizeCap(t *testing.T) {
	page := "<html><body>" + strings.Repeat("a", 4096) + "</body></html>"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		_, _ = gz.Write([]byte(page))
		_ = gz.Close()
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(buf.Bytes())
	}))
	defer ts.Close()

	resp, err := NewHTTPClient(5*time.Second, 2*time.Second, 100).Fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Len(t, resp.Body, 100)
	assert.True(t, strings.HasPrefix(string(resp.Body), "<html><body>aaa"))
}

func TestFromConfigRateLimitsPerHost(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	cfg := config.Default().Fetch
	cfg.RatePerDomain = 0.5
	cfg.UserAgent = "custom-agent"
	client := FromConfig(cfg)
	assert.Equal(t, "custom-agent", client.userAgent)

	_, err := client.Fetch(context.Background(), ts.URL)
	require.NoError(t, err)

	// the bucket is empty for two seconds, so a short deadline expires
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Fetch(ctx, ts.URL)
	require.Error(t, err)
}
