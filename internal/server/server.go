package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pagecontent/internal/backend"
	"pagecontent/internal/crawler"
	"pagecontent/internal/ioformats"
	"pagecontent/internal/models"
	"pagecontent/pkg/logger"
)

type Pipeline interface {
	FetchAndExtract(ctx context.Context, rawURL string) (models.PageContent, error)
	ExtractHTML(html, rawURL string) (models.PageContent, error)
	Batch(ctx context.Context, urls []string, concurrency int) []models.BatchItem
	Stream(ctx context.Context, urls []string, concurrency int, emit func(models.BatchItem))
}

type Backend interface {
	Summarize(ctx context.Context, page models.PageContent) (backend.Summary, error)
	Analyze(ctx context.Context, page models.PageContent) (backend.Analysis, error)
	Compare(ctx context.Context, page models.PageContent) (backend.Comparison, error)
	Chat(ctx context.Context, page models.PageContent, messages []backend.ChatMessage) (backend.ChatMessage, error)
	Health(ctx context.Context) (backend.Health, error)
}

type Options struct {
	BatchConcurrency int
	RequestTimeout   time.Duration
}

type Server struct {
	pipe    Pipeline
	backend Backend
	log     *logger.Logger
	opts    Options
}

type urlReq struct {
	URL string `json:"url"`
}

type htmlReq struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

type batchReq struct {
	URLs []string `json:"urls"`
}

type chatReq struct {
	URL      string                `json:"url"`
	Messages []backend.ChatMessage `json:"messages"`
}

func New(p Pipeline, b Backend, l *logger.Logger, opts Options) *Server {
	if l == nil {
		l = logger.Nop()
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = 10
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 25 * time.Second
	}
	return &Server{pipe: p, backend: b, log: l, opts: opts}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequest)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/backend", s.handleBackendHealth)
	r.Route("/extract", func(r chi.Router) {
		r.Post("/", s.handleExtract)
		r.Post("/html", s.handleExtractHTML)
		r.Post("/batch", s.handleBatch)
		r.Post("/upload", s.handleUpload)
	})
	r.Post("/summarize", s.handleSummarize)
	r.Post("/analyze", s.handleAnalyze)
	r.Post("/compare", s.handleCompare)
	r.Post("/chat", s.handleChat)
	return r
}

// POST /extract  { "url": "https://..." }
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req urlReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	pc, ok := s.fetchPage(w, r, req.URL)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, pc)
}

// POST /extract/html  { "url": "https://...", "html": "<html>..." }
func (s *Server) handleExtractHTML(w http.ResponseWriter, r *http.Request) {
	var req htmlReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	pc, err := s.pipe.ExtractHTML(req.HTML, req.URL)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pc)
}

// POST /extract/batch  { "urls": ["https://...", "..."] }
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.URLs) == 0 {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	writeJSON(w, http.StatusOK, s.pipe.Batch(r.Context(), req.URLs, s.opts.BatchConcurrency))
}

// POST /extract/upload (multipart file=...) -> NDJSON stream
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "multipart parse error")
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file part 'file' required")
		return
	}
	defer f.Close()

	urls, err := ioformats.Decode(f, ioformats.FormatFor(hdr.Filename))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)
	var mu sync.Mutex
	s.pipe.Stream(r.Context(), urls, s.opts.BatchConcurrency, func(it models.BatchItem) {
		mu.Lock()
		defer mu.Unlock()
		if err := enc.Encode(it); err != nil {
			s.log.Warnf("upload stream: %v", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	})
}

// POST /summarize  { "url": "https://..." }
func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req urlReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	pc, ok := s.fetchPage(w, r, req.URL)
	if !ok {
		return
	}
	summary, err := s.backend.Summarize(r.Context(), pc)
	if err != nil {
		s.backendError(w, "summarize "+req.URL, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"page": pc, "summary": summary})
}

// POST /analyze  { "url": "https://..." }
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req urlReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	pc, ok := s.fetchPage(w, r, req.URL)
	if !ok {
		return
	}
	analysis, err := s.backend.Analyze(r.Context(), pc)
	if err != nil {
		s.backendError(w, "analyze "+req.URL, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"page": pc, "analysis": analysis})
}

// POST /compare  { "url": "https://..." }  (must be a product page)
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req urlReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	pc, ok := s.fetchPage(w, r, req.URL)
	if !ok {
		return
	}
	comparison, err := s.backend.Compare(r.Context(), pc)
	if err != nil {
		s.backendError(w, "compare "+req.URL, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"page": pc, "comparison": comparison})
}

// POST /chat  { "url": "https://...", "messages": [{"role": "user", "content": "..."}] }
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" || len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	pc, ok := s.fetchPage(w, r, req.URL)
	if !ok {
		return
	}
	reply, err := s.backend.Chat(r.Context(), pc, req.Messages)
	if err != nil {
		s.backendError(w, "chat "+req.URL, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": reply})
}

// GET /health/backend
func (s *Server) handleBackendHealth(w http.ResponseWriter, r *http.Request) {
	h, err := s.backend.Health(r.Context())
	if err != nil {
		s.backendError(w, "backend health", err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

// fetchPage fetches and extracts rawURL within RequestTimeout. On failure the
// error response is already written.
func (s *Server) fetchPage(w http.ResponseWriter, r *http.Request, rawURL string) (models.PageContent, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	pc, err := s.pipe.FetchAndExtract(ctx, rawURL)
	if err != nil {
		writeError(w, fetchStatus(err), err.Error())
		return models.PageContent{}, false
	}
	return pc, true
}

func (s *Server) backendError(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, backend.ErrNoProduct) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.log.Errorf("%s: %v", what, err)
	writeError(w, http.StatusBadGateway, err.Error())
}

func fetchStatus(err error) int {
	switch {
	case errors.Is(err, crawler.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, crawler.ErrNonHTML):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Infof("%s %s %d %s id=%s", r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context()))
	})
}
