package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyword_EmptyKeyword(t *testing.T) {
	a := New()

	for _, kw := range []string{"", "   "} {
		m := a.Keyword("<p>Some content about seo tips.</p>", kw)
		assert.Equal(t, KeywordMetrics{}, m)
		assert.Zero(t, m.Density)
	}
}

func TestKeyword_Metrics(t *testing.T) {
	a := New()
	content := "<p>SEO tips are useful. More seo tips here.</p>"

	m := a.Keyword(content, "  SEO Tips ")
	assert.Equal(t, "seo tips", m.Keyword)
	assert.Equal(t, 2, m.Count)
	assert.Equal(t, 25.0, m.Density)
	assert.True(t, m.InFirstParagraph)
	assert.Equal(t, 0, m.InHeadings)
	assert.Equal(t, 100.0, m.Prominence)
}

func TestKeyword_SubstringMatching(t *testing.T) {
	a := New()

	m := a.Keyword("<p>Every category has a cat.</p>", "cat")
	assert.Equal(t, 2, m.Count)
}

func TestKeyword_InHeadings(t *testing.T) {
	a := New()
	content := "<h1>Coffee</h1><h2>Brewing coffee</h2><h3>Storing beans</h3><h2>Coffee gear</h2><p>Text.</p>"

	m := a.Keyword(content, "coffee")
	assert.Equal(t, 2, m.InHeadings)
}

func TestKeyword_Introduction(t *testing.T) {
	a := New()

	t.Run("first paragraph only", func(t *testing.T) {
		content := "<p>An opening paragraph.</p><p>The keyword appears later.</p>"
		assert.False(t, a.Keyword(content, "keyword").InFirstParagraph)
	})

	t.Run("plain text within first words", func(t *testing.T) {
		content := "Plain text mentions the keyword early."
		assert.True(t, a.Keyword(content, "keyword").InFirstParagraph)
	})

	t.Run("plain text past first words", func(t *testing.T) {
		content := strings.Repeat("filler ", introWords) + "keyword"
		assert.False(t, a.Keyword(content, "keyword").InFirstParagraph)
	})
}

func TestKeyword_Prominence(t *testing.T) {
	assert.Equal(t, 0.0, prominence("nothing here", "absent"))
	assert.Equal(t, 100.0, prominence("keyword first", "keyword"))
	assert.Equal(t, 50.0, prominence("abcdkeyw", "keyw"))
}
