package analyzer

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/seo-optimizer/contentscore/textmetrics"
)

// SEOScore computes the weighted 0-100 SEO score of doc. It is computed
// independently of the SEO findings.
func (a *Analyzer) SEOScore(doc *Document) (*SEOScoreResult, error) {
	d, err := a.resolve(doc)
	if err != nil {
		return nil, err
	}
	return a.seoScore(d, textmetrics.Parse(d.Content)), nil
}

func (a *Analyzer) seoScore(d Document, td *textmetrics.Document) *SEOScoreResult {
	words := td.WordCount()
	b := SEOBreakdown{
		MetaTitle:       lengthScore(d.seoTitle(), 50, 60, 40, 70),
		MetaDescription: lengthScore(d.MetaDescription, 150, 160, 120, 170),
		ContentLength:   contentLengthScore(words),
		Keyword:         keywordScore(d, td),
		Headings:        headingScore(td),
		Images:          imageScore(td.Images()),
		Links:           linkScore(td.Links(a.origin)),
		Readability:     sentenceLengthScore(words, len(td.Sentences())),
	}
	total := b.MetaTitle + b.MetaDescription + b.ContentLength + b.Keyword +
		b.Headings + b.Images + b.Links + b.Readability

	return &SEOScoreResult{ScoreResult: StatusFor(total), Breakdown: b}
}

// lengthScore awards 15 inside the ideal range, 10 inside the acceptable
// range, 5 for any non-empty value
func lengthScore(s string, idealMin, idealMax, okMin, okMax int) int {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	switch {
	case n >= idealMin && n <= idealMax:
		return 15
	case n >= okMin && n <= okMax:
		return 10
	case n > 0:
		return 5
	default:
		return 0
	}
}

func contentLengthScore(words int) int {
	switch {
	case words >= 1000:
		return 10
	case words >= 500:
		return 7
	case words >= 300:
		return 5
	default:
		return 0
	}
}

func keywordScore(d Document, td *textmetrics.Document) int {
	kw := normalizeKeyword(d.FocusKeyword)
	if kw == "" {
		return 0
	}

	score := 0
	if containsFold(d.seoTitle(), kw) {
		score += 5
	}
	if containsFold(d.MetaDescription, kw) {
		score += 5
	}
	switch count := strings.Count(strings.ToLower(td.Text()), kw); {
	case count >= 3 && count <= 10:
		score += 5
	case count > 0:
		score += 2
	}
	for _, h := range td.Headings(1, 2, 3, 4, 5, 6) {
		if containsFold(h, kw) {
			score += 5
			break
		}
	}
	return min(score, 20)
}

func headingScore(td *textmetrics.Document) int {
	score := 0
	if len(td.Headings(1)) == 1 {
		score += 3
	}
	switch h2 := len(td.Headings(2)); {
	case h2 >= 2:
		score += 4
	case h2 == 1:
		score += 2
	}
	if len(td.Headings(3)) > 0 {
		score += 3
	}
	return min(score, 10)
}

func imageScore(images []textmetrics.Image) int {
	if len(images) == 0 {
		return 0
	}
	withAlt := 0
	for _, img := range images {
		if img.HasAlt {
			withAlt++
		}
	}
	pct := percent(withAlt, len(images))
	switch {
	case pct >= 100:
		return 10
	case pct >= 75:
		return 7
	case pct >= 50:
		return 5
	default:
		return 2
	}
}

func linkScore(links []textmetrics.Link) int {
	internal, external := countLinks(links)
	score := 0
	switch {
	case internal >= 2:
		score += 5
	case internal == 1:
		score += 3
	}
	if external > 0 {
		score += 5
	}
	return min(score, 10)
}

// sentenceLengthScore bands the average sentence length. The average is 0
// when there are no sentences.
func sentenceLengthScore(words, sentences int) int {
	avg := 0.0
	if sentences > 0 {
		avg = float64(words) / float64(sentences)
	}
	switch {
	case avg <= 20:
		return 10
	case avg <= 25:
		return 7
	case avg <= 30:
		return 5
	default:
		return 2
	}
}

// ReadabilityStatus bands a Flesch Reading Ease score directly
func ReadabilityStatus(flesch float64) ScoreResult {
	return StatusFor(int(math.Round(flesch)))
}

// StatusFor clamps score to [0,100] and attaches its status band
func StatusFor(score int) ScoreResult {
	score = max(0, min(100, score))
	switch {
	case score >= 80:
		return ScoreResult{Score: score, Status: StatusExcellent, Label: "Excellent", Color: "#22c55e"}
	case score >= 60:
		return ScoreResult{Score: score, Status: StatusGood, Label: "Good", Color: "#84cc16"}
	case score >= 40:
		return ScoreResult{Score: score, Status: StatusNeedsImprovement, Label: "Needs Improvement", Color: "#f59e0b"}
	default:
		return ScoreResult{Score: score, Status: StatusPoor, Label: "Poor", Color: "#ef4444"}
	}
}
