// Package backend is the client for the AI service that consumes extracted
// pages: summarization, analysis, product comparison and chat.
//
// Every POST endpoint lives under /api and answers {"success": bool,
// "data": {...}}; the client unwraps data. Failures come back as FastAPI
// style {"detail": {"message", "code"}} bodies and surface as *APIError.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"pagecontent/internal/config"
	"pagecontent/internal/models"
)

var (
	// ErrNoProduct is returned by Compare for pages without product facts.
	ErrNoProduct = errors.New("no product information found on this page")
	// ErrNoData means a 2xx answer without the data envelope.
	ErrNoData = errors.New("no data in response")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Code    string
	Message string
	Body    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Body
	}
	if e.Code != "" {
		return fmt.Sprintf("backend status %d (%s): %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("backend status %d: %s", e.Status, msg)
}

// ChatMessage is one turn of a conversation. Role is user, assistant or system.
type ChatMessage struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type Summary struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
	Sentiment string   `json:"sentiment,omitempty"`
	Topics    []string `json:"topics"`
}

// Analysis is a Summary plus named entities and suggested follow-up questions.
type Analysis struct {
	Summary
	Entities  []string `json:"entities"`
	Questions []string `json:"questions"`
}

type Alternative struct {
	Name     string   `json:"name"`
	Price    *float64 `json:"price"`
	Currency string   `json:"currency"`
	URL      string   `json:"url"`
	Image    string   `json:"image,omitempty"`
	Rating   *float64 `json:"rating"`
	Source   string   `json:"source"`
}

type ProsCons struct {
	Pros []string `json:"pros"`
	Cons []string `json:"cons"`
}

type AlternativeProsCons struct {
	Name string `json:"name"`
	ProsCons
}

type ProsConsAnalysis struct {
	Current      ProsCons              `json:"current"`
	Alternatives []AlternativeProsCons `json:"alternatives"`
}

type Comparison struct {
	CurrentProduct *models.ProductInfo `json:"current_product"`
	Alternatives   []Alternative       `json:"alternatives"`
	Verdict        string              `json:"verdict"`
	ProsCons       ProsConsAnalysis    `json:"pros_cons_analysis"`
	Recommendation string              `json:"recommendation,omitempty"`
}

type Health struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	LLMStatus string `json:"llm_status"`
}

type Client struct {
	baseURL string
	http    *http.Client
	now     func() time.Time
}

// New returns a client for the service at baseURL, e.g. http://localhost:8000.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

func FromConfig(c config.Backend) *Client { return New(c.BaseURL, c.Timeout) }

// Summarize posts {"content": page} to /api/summarize.
func (c *Client) Summarize(ctx context.Context, page models.PageContent) (Summary, error) {
	var out Summary
	err := c.post(ctx, "/api/summarize", map[string]any{"content": page}, &out)
	return out, err
}

// Analyze posts {"content": page} to /api/analyze.
func (c *Client) Analyze(ctx context.Context, page models.PageContent) (Analysis, error) {
	var out Analysis
	err := c.post(ctx, "/api/analyze", map[string]any{"content": page}, &out)
	return out, err
}

// Compare asks for alternatives to the product on page. Pages without a
// product record are rejected before any request is made.
func (c *Client) Compare(ctx context.Context, page models.PageContent) (Comparison, error) {
	var out Comparison
	if page.Product == nil {
		return out, ErrNoProduct
	}
	err := c.post(ctx, "/api/compare", map[string]any{"url": page.URL, "content": page}, &out)
	return out, err
}

// Chat sends the conversation with page as context and returns the
// assistant's reply. Messages missing an id or timestamp get one.
func (c *Client) Chat(ctx context.Context, page models.PageContent, messages []ChatMessage) (ChatMessage, error) {
	if len(messages) == 0 {
		return ChatMessage{}, errors.New("chat needs at least one message")
	}
	msgs := make([]ChatMessage, len(messages))
	for i, m := range messages {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		if m.Timestamp == "" {
			m.Timestamp = c.now().UTC().Format(time.RFC3339)
		}
		msgs[i] = m
	}

	var out struct {
		Message *ChatMessage `json:"message"`
	}
	if err := c.post(ctx, "/api/chat", map[string]any{"messages": msgs, "context": page}, &out); err != nil {
		return ChatMessage{}, err
	}
	if out.Message == nil {
		return ChatMessage{}, errors.New("no message in response")
	}
	reply := *out.Message
	reply.Role = "assistant"
	return reply, nil
}

// Health reads GET /health, which is not wrapped in the data envelope.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return out, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.do(req, "/health")
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode /health response: %w", err)
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%s: %w", path, ErrNoData)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", path, err)
	}
	return nil
}

// do sends req and turns any non-2xx answer into an *APIError.
func (c *Client) do(req *http.Request, path string) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return nil, apiError(resp.StatusCode, raw)
}

// apiError reads FastAPI error bodies: detail is either {"message","code"}
// or a plain string. Anything else is kept verbatim.
func apiError(status int, raw []byte) *APIError {
	e := &APIError{Status: status, Body: strings.TrimSpace(string(raw))}
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(raw, &body) != nil || len(body.Detail) == 0 {
		return e
	}
	var detail struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if json.Unmarshal(body.Detail, &detail) == nil {
		e.Message, e.Code = detail.Message, detail.Code
		return e
	}
	var msg string
	if json.Unmarshal(body.Detail, &msg) == nil {
		e.Message = msg
	}
	return e
}
