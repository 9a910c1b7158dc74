package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagecontent/internal/models"
)

func page(u string) models.PageContent {
	return models.PageContent{URL: u, Title: "T", PageType: models.PageTypeOther}
}

func productPage(u string) models.PageContent {
	price := 19.99
	p := page(u)
	p.PageType = models.PageTypeProduct
	p.Product = &models.ProductInfo{Name: "Kettle", Price: &price, Currency: "USD", Images: []string{}, Availability: "Unknown"}
	return p
}

func TestSummarizeUnwrapsData(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/summarize", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string]map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "https://a.example", in["content"]["url"])
		assert.Equal(t, "other", in["content"]["page_type"])
		assert.Contains(t, in["content"], "text")
		_, _ = w.Write([]byte(`{"success":true,"data":{"summary":"short","key_points":["a","b"],"sentiment":"neutral","topics":["x"]}}`))
	}))
	defer ts.Close()

	got, err := New(ts.URL+"/", time.Second).Summarize(context.Background(), page("https://a.example"))
	require.NoError(t, err)
	assert.Equal(t, Summary{Summary: "short", KeyPoints: []string{"a", "b"}, Sentiment: "neutral", Topics: []string{"x"}}, got)
}

func TestSummarizeWithoutDataEnvelope(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"summary":"top level"}`))
	}))
	defer ts.Close()

	_, err := New(ts.URL, time.Second).Summarize(context.Background(), page("a"))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestAnalyze(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/analyze", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"data":{"summary":"s","key_points":[],"topics":[],"entities":["ACME"],"questions":["why?"]}}`))
	}))
	defer ts.Close()

	got, err := New(ts.URL, time.Second).Analyze(context.Background(), page("a"))
	require.NoError(t, err)
	assert.Equal(t, "s", got.Summary.Summary)
	assert.Equal(t, []string{"ACME"}, got.Entities)
	assert.Equal(t, []string{"why?"}, got.Questions)
}

func TestCompareSendsOneProduct(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/compare", r.URL.Path)
		var in struct {
			URL     string             `json:"url"`
			Content models.PageContent `json:"content"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "https://shop.example/dp/1", in.URL)
		require.NotNil(t, in.Content.Product)
		assert.Equal(t, "Kettle", in.Content.Product.Name)
		_, _ = w.Write([]byte(`{"success":true,"data":{
			"current_product":{"name":"Kettle","price":19.99,"currency":"USD"},
			"alternatives":[{"name":"Other Kettle","price":15,"currency":"USD","url":"https://b.example","image":null,"rating":4.1,"source":"b.example"}],
			"verdict":"Other Kettle is cheaper",
			"pros_cons_analysis":{"current":{"pros":["fast"],"cons":[]},"alternatives":[{"name":"Other Kettle","pros":["cheap"],"cons":["slow"]}]},
			"recommendation":null}}`))
	}))
	defer ts.Close()

	got, err := New(ts.URL, time.Second).Compare(context.Background(), productPage("https://shop.example/dp/1"))
	require.NoError(t, err)
	assert.Equal(t, "Other Kettle is cheaper", got.Verdict)
	require.Len(t, got.Alternatives, 1)
	assert.Equal(t, "b.example", got.Alternatives[0].Source)
	assert.InDelta(t, 15.0, *got.Alternatives[0].Price, 1e-9)
	assert.Equal(t, []string{"fast"}, got.ProsCons.Current.Pros)
	assert.Equal(t, "cheap", got.ProsCons.Alternatives[0].Pros[0])
	require.NotNil(t, got.CurrentProduct)
	assert.Equal(t, "Kettle", got.CurrentProduct.Name)
}

func TestCompareRequiresProduct(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer ts.Close()

	_, err := New(ts.URL, time.Second).Compare(context.Background(), page("https://a.example"))
	assert.ErrorIs(t, err, ErrNoProduct)
	assert.False(t, called)
}

func TestChatSendsMessagesAndContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var in struct {
			Messages []ChatMessage      `json:"messages"`
			Context  models.PageContent `json:"context"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		require.Len(t, in.Messages, 2)
		assert.Equal(t, "m1", in.Messages[0].ID)
		assert.NotEmpty(t, in.Messages[1].ID)
		assert.Equal(t, "2024-06-01T06:30:00Z", in.Messages[1].Timestamp)
		assert.Equal(t, "price?", in.Messages[1].Content)
		assert.Equal(t, "https://a.example", in.Context.URL)
		_, _ = w.Write([]byte(`{"success":true,"data":{"message":{"id":"r1","role":"assistant","content":"$5","timestamp":"2024-06-01T06:30:01"}}}`))
	}))
	defer ts.Close()

	c := New(ts.URL, time.Second)
	c.now = func() time.Time { return time.Date(2024, 6, 1, 8, 30, 0, 0, time.FixedZone("CEST", 2*3600)) }
	got, err := c.Chat(context.Background(), page("https://a.example"), []ChatMessage{
		{ID: "m1", Role: "user", Content: "hi", Timestamp: "2024-06-01T06:29:00Z"},
		{Role: "user", Content: "price?"},
	})
	require.NoError(t, err)
	assert.Equal(t, ChatMessage{ID: "r1", Role: "assistant", Content: "$5", Timestamp: "2024-06-01T06:30:01"}, got)
}

func TestChatNeedsMessages(t *testing.T) {
	_, err := New("http://127.0.0.1:1", time.Second).Chat(context.Background(), page("a"), nil)
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"healthy","version":"1.0.0","llm_status":"online"}`))
	}))
	defer ts.Close()

	got, err := New(ts.URL, time.Second).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Health{Status: "healthy", Version: "1.0.0", LLMStatus: "online"}, got)
}

func TestAPIErrorDetail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":{"message":"model overloaded","code":"SUMMARIZATION_ERROR"}}`))
	}))
	defer ts.Close()

	_, err := New(ts.URL, time.Second).Summarize(context.Background(), page("a"))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "SUMMARIZATION_ERROR", apiErr.Code)
	assert.Equal(t, "model overloaded", apiErr.Message)
	assert.Contains(t, err.Error(), "SUMMARIZATION_ERROR")
}

func TestAPIErrorPlainBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	_, err := New(ts.URL, time.Second).Health(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, "bad gateway", apiErr.Body)
	assert.Empty(t, apiErr.Code)
}
