package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageContentJSONShape(t *testing.T) {
	pc := PageContent{
		URL:         "https://example.com/x",
		Title:       "T",
		PageType:    PageTypeSearch,
		ExtractedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	b, err := json.Marshal(pc)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"url", "title", "description", "text", "page_type", "extracted_at", "product", "article"}, keys)
	assert.Equal(t, "search", m["page_type"])
	assert.Nil(t, m["product"])
	assert.Nil(t, m["article"])
	assert.Equal(t, "2024-05-01T12:00:00Z", m["extracted_at"])
}

func TestProductNullableFields(t *testing.T) {
	b, err := json.Marshal(ProductInfo{Name: "Kettle", Images: []string{}, Availability: "Unknown"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Kettle","price":null,"currency":"","images":[],"description":"",
		"rating":null,"review_count":null,"availability":"Unknown","brand":"","category":""}`, string(b))
}

func TestPageTypeUnmarshal(t *testing.T) {
	var pt PageType
	require.NoError(t, json.Unmarshal([]byte(`"Article"`), &pt))
	assert.Equal(t, PageTypeArticle, pt)
	assert.Error(t, json.Unmarshal([]byte(`"blog"`), &pt))
}
