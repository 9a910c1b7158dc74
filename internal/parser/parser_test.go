package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHTML = `<!doctype html><html lang="en"><head>
<title>Test Page</title>
<style>body { color: red }</style>
<script>var tracking = "do not index";</script>
</head><body>
<h1>Hello</h1>
<noscript>enable js</noscript>
<p>Go is great for network services.</p>
</body></html>`

func TestParseStripsNonContent(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleHTML), "text/html; charset=utf-8")
	require.NoError(t, err)

	assert.Equal(t, "Test Page", doc.Find("title").Text())
	body := doc.Find("body").Text()
	assert.Contains(t, body, "network services")
	assert.NotContains(t, body, "enable js")
	assert.NotContains(t, doc.Text(), "do not index")
	assert.NotContains(t, doc.Text(), "color: red")
}

func TestParseBytesDecodesLatin1(t *testing.T) {
	// "Café" in ISO-8859-1
	raw := []byte("<html><head><title>Caf\xe9</title></head><body></body></html>")
	doc, err := ParseBytes(raw, "text/html; charset=iso-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "Café", doc.Find("title").Text())
}

func TestParseStringToleratesBrokenMarkup(t *testing.T) {
	doc, err := ParseString("<div><p>unclosed <b>bold")
	require.NoError(t, err)
	assert.Equal(t, "unclosed bold", strings.TrimSpace(doc.Find("body").Text()))
}
