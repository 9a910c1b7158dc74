package crawler

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"pagecontent/internal/config"
)

var (
	ErrInvalidURL = errors.New("invalid url")
	ErrNonHTML    = errors.New("non-html content")
)

// StatusError reports a response outside the 2xx/3xx range.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("http status %d", e.Code) }

// Response is a successfully fetched HTML page.
type Response struct {
	Body        []byte
	FinalURL    string
	ContentType string
	Elapsed     time.Duration
}

type HTTPClient struct {
	client    *http.Client
	sizeCap   int64
	userAgent string
	limiter   *hostLimiter
}

func NewHTTPClient(timeout, dialTimeout time.Duration, sizeCap int64) *HTTPClient {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		sizeCap:   sizeCap,
		userAgent: "pagecontent/1.0 (+https://example.com)",
	}
}

// FromConfig builds a client from the fetch section of the configuration.
func FromConfig(c config.Fetch) *HTTPClient {
	h := NewHTTPClient(c.Timeout, c.DialTimeout, c.MaxBodyBytes)
	if c.UserAgent != "" {
		h.userAgent = c.UserAgent
	}
	if c.RatePerDomain > 0 {
		h.limiter = newHostLimiter(c.RatePerDomain)
	}
	return h
}

// Fetch downloads rawURL. Any transport error, non-success status or non-HTML
// content type is returned as an error.
func (h *HTTPClient) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	start := time.Now()
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx, u.Hostname()); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if !strings.Contains(mediaType, "text/html") && !strings.Contains(mediaType, "application/xhtml+xml") && mediaType != "" {
		// still allow if empty (some servers omit), otherwise reject non-html
		return nil, fmt.Errorf("%w: %s", ErrNonHTML, mediaType)
	}

	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		body = gz
	}

	// enforce a size cap
	data, err := io.ReadAll(io.LimitReader(body, h.sizeCap))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{
		Body:        data,
		FinalURL:    resp.Request.URL.String(),
		ContentType: contentType,
		Elapsed:     time.Since(start),
	}, nil
}

// hostLimiter keeps one token bucket per host.
type hostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

func newHostLimiter(rps float64) *hostLimiter {
	return &hostLimiter{limiters: make(map[string]*rate.Limiter), rps: rps}
}

func (l *hostLimiter) Wait(ctx context.Context, host string) error {
	l.mu.Lock()
	lim, ok := l.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(l.rps), 1)
		l.limiters[host] = lim
	}
	l.mu.Unlock()
	return lim.Wait(ctx)
}
