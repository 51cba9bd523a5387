package analyzer

// Verdict is the outcome of a single check
type Verdict string

const (
	VerdictGood    Verdict = "good"
	VerdictProblem Verdict = "problem"
)

// SeverityWarning marks a problem that is advisory rather than blocking
const SeverityWarning = "warning"

// Finding is the result of one check on one named dimension
type Finding struct {
	Dimension string  `json:"dimension"`
	Verdict   Verdict `json:"verdict"`
	Message   string  `json:"message"`
	Severity  string  `json:"severity,omitempty"`
}

// AnalysisResult holds the findings of an analyzer in check order
type AnalysisResult struct {
	Problems []Finding `json:"problems"`
	Good     []Finding `json:"good"`
}

func newAnalysisResult() AnalysisResult {
	return AnalysisResult{Problems: []Finding{}, Good: []Finding{}}
}

func (r *AnalysisResult) good(dimension, message string) {
	r.Good = append(r.Good, Finding{Dimension: dimension, Verdict: VerdictGood, Message: message})
}

func (r *AnalysisResult) problem(dimension, message string) {
	r.Problems = append(r.Problems, Finding{Dimension: dimension, Verdict: VerdictProblem, Message: message})
}

func (r *AnalysisResult) warning(dimension, message string) {
	r.Problems = append(r.Problems, Finding{
		Dimension: dimension,
		Verdict:   VerdictProblem,
		Message:   message,
		Severity:  SeverityWarning,
	})
}

// ReadabilityMetrics is derived from content and never stored as source of truth
type ReadabilityMetrics struct {
	FleschScore float64 `json:"fleschScore"`
	GradeLevel  string  `json:"gradeLevel"`
}

// ReadabilityResult is the output of the readability analyzer
type ReadabilityResult struct {
	AnalysisResult
	ReadabilityMetrics
}

// KeywordMetrics describes how a focus keyphrase is used in content
type KeywordMetrics struct {
	Keyword          string  `json:"keyword"`
	Count            int     `json:"count"`
	Density          float64 `json:"density"`
	InHeadings       int     `json:"inHeadings"`
	InFirstParagraph bool    `json:"inFirstParagraph"`
	Prominence       float64 `json:"prominence"`
}

// Status is the band a 0-100 score falls into
type Status string

const (
	StatusExcellent        Status = "excellent"
	StatusGood             Status = "good"
	StatusNeedsImprovement Status = "needs-improvement"
	StatusPoor             Status = "poor"
)

// ScoreResult is a banded 0-100 score
type ScoreResult struct {
	Score  int    `json:"score"`
	Status Status `json:"status"`
	Label  string `json:"label"`
	Color  string `json:"color"`
}

// SEOBreakdown lists the weighted sub-scores summed into the SEO score
type SEOBreakdown struct {
	MetaTitle       int `json:"metaTitle"`
	MetaDescription int `json:"metaDescription"`
	ContentLength   int `json:"contentLength"`
	Keyword         int `json:"keyword"`
	Headings        int `json:"headings"`
	Images          int `json:"images"`
	Links           int `json:"links"`
	Readability     int `json:"readability"`
}

// SEOScoreResult is the SEO score together with its sub-scores
type SEOScoreResult struct {
	ScoreResult
	Breakdown SEOBreakdown `json:"breakdown"`
}

// Metadata holds the SEO fields stored for a document
type Metadata struct {
	MetaTitle          string `json:"metaTitle"`
	MetaDescription    string `json:"metaDescription"`
	FocusKeyword       string `json:"focusKeyword"`
	CanonicalURL       string `json:"canonicalUrl,omitempty"`
	Robots             string `json:"robots,omitempty"`
	OGTitle            string `json:"ogTitle,omitempty"`
	OGDescription      string `json:"ogDescription,omitempty"`
	TwitterTitle       string `json:"twitterTitle,omitempty"`
	TwitterDescription string `json:"twitterDescription,omitempty"`
}

// Document is the unit of analysis. It is owned by the host; the analyzer only reads it.
type Document struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Metadata
}

// Report bundles every analyzer and scorer output for one document
type Report struct {
	DocumentID       string             `json:"documentId,omitempty"`
	WordCount        int                `json:"wordCount"`
	Keyword          KeywordMetrics     `json:"keyword"`
	SEO              *AnalysisResult    `json:"seo"`
	Readability      *ReadabilityResult `json:"readability"`
	SEOScore         *SEOScoreResult    `json:"seoScore"`
	ReadabilityScore ScoreResult        `json:"readabilityScore"`
}
