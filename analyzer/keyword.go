package analyzer

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/seo-optimizer/contentscore/textmetrics"
)

// introWords is how much of the text counts as the introduction when the
// content has no paragraph tags.
const introWords = 150

// Keyword computes usage metrics for keyword in content. An empty keyword
// yields zero metrics.
func (a *Analyzer) Keyword(content, keyword string) KeywordMetrics {
	return keywordMetrics(textmetrics.Parse(content), keyword)
}

func keywordMetrics(td *textmetrics.Document, keyword string) KeywordMetrics {
	kw := normalizeKeyword(keyword)
	if kw == "" {
		return KeywordMetrics{}
	}

	text := strings.ToLower(td.Text())
	count := strings.Count(text, kw)

	inHeadings := 0
	for _, h := range td.Subheadings() {
		if containsFold(h, kw) {
			inHeadings++
		}
	}

	return KeywordMetrics{
		Keyword:          kw,
		Count:            count,
		Density:          round2(percent(count, max(td.WordCount(), 1))),
		InHeadings:       inHeadings,
		InFirstParagraph: inIntroduction(td, kw),
		Prominence:       prominence(text, kw),
	}
}

// normalizeKeyword trims and lowercases a keyphrase for substring matching
func normalizeKeyword(keyword string) string {
	return strings.ToLower(strings.TrimSpace(keyword))
}

// containsFold reports whether s contains the already lowercased kw.
// Matching is plain substring matching, so "cat" matches "category".
func containsFold(s, kw string) bool {
	return kw != "" && strings.Contains(strings.ToLower(s), kw)
}

// inIntroduction checks the first paragraph, or the first introWords words
// when the content has no paragraph tags
func inIntroduction(td *textmetrics.Document, kw string) bool {
	if td.HasParagraphTags() {
		paragraphs := td.Paragraphs()
		return len(paragraphs) > 0 && containsFold(paragraphs[0], kw)
	}
	words := strings.Fields(td.Text())
	if len(words) > introWords {
		words = words[:introWords]
	}
	return containsFold(strings.Join(words, " "), kw)
}

// prominence scores how early kw first appears in text: 100 at the very
// start, falling towards 0 at the end, 0 when absent
func prominence(text, kw string) float64 {
	idx := strings.Index(text, kw)
	if idx < 0 {
		return 0
	}
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return 0
	}
	offset := utf8.RuneCountInString(text[:idx])
	return round2(math.Max(0, 100-float64(offset)/float64(total)*100))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
