// Package analyzer implements the content analysis engine: keyword usage,
// readability checks, SEO checks and the aggregate scores built on them.
//
// The Analyzer holds configuration only. Every call recomputes its findings
// from the input, so one Analyzer can serve any number of goroutines.
package analyzer

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/seo-optimizer/contentscore/textmetrics"
)

// ErrInvalidInput is returned when the host passes structurally invalid input
var ErrInvalidInput = errors.New("invalid input")

// KeywordIndex reports whether a focus keyphrase is already used by another document
type KeywordIndex interface {
	KeywordUsedElsewhere(keyword, excludingID string) (bool, error)
}

// DocumentLookup returns the persisted fields of a document, used to back-fill
// fields the caller left empty. Unknown ids yield a zero Document.
type DocumentLookup interface {
	LookupDocument(id string) (Document, error)
}

// Analyzer runs the content checks
type Analyzer struct {
	origin    string
	keywords  KeywordIndex
	documents DocumentLookup
	log       zerolog.Logger
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithSiteOrigin sets the origin used to classify links as internal
func WithSiteOrigin(origin string) Option {
	return func(a *Analyzer) {
		a.origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	}
}

// WithKeywordIndex sets the lookup used by the previously-used-keyphrase check
func WithKeywordIndex(idx KeywordIndex) Option {
	return func(a *Analyzer) {
		a.keywords = idx
	}
}

// WithDocumentLookup sets the lookup used to back-fill omitted fields
func WithDocumentLookup(l DocumentLookup) Option {
	return func(a *Analyzer) {
		a.documents = l
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Analyzer) {
		a.log = l
	}
}

// New creates a new Analyzer instance
func New(opts ...Option) *Analyzer {
	a := &Analyzer{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SiteOrigin returns the configured site origin
func (a *Analyzer) SiteOrigin() string {
	return a.origin
}

// Analyze runs both analyzers and both scorers over doc
func (a *Analyzer) Analyze(doc *Document) (*Report, error) {
	d, err := a.resolve(doc)
	if err != nil {
		return nil, err
	}
	td := textmetrics.Parse(d.Content)

	seo, err := a.seo(d, td)
	if err != nil {
		return nil, err
	}
	readability := a.readability(td)
	score := a.seoScore(d, td)

	report := &Report{
		DocumentID:       d.ID,
		WordCount:        td.WordCount(),
		Keyword:          keywordMetrics(td, d.FocusKeyword),
		SEO:              seo,
		Readability:      readability,
		SEOScore:         score,
		ReadabilityScore: ReadabilityStatus(readability.FleschScore),
	}

	a.log.Debug().
		Str("document", d.ID).
		Int("words", report.WordCount).
		Int("seo_problems", len(seo.Problems)).
		Int("readability_problems", len(readability.Problems)).
		Int("seo_score", score.Score).
		Float64("flesch", readability.FleschScore).
		Msg("Content analysis completed")

	return report, nil
}

// validate rejects input the engine cannot analyze meaningfully
func validate(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidInput)
	}
	return validateContent(doc.Content)
}

func validateContent(content string) error {
	if !utf8.ValidString(content) {
		return fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidInput)
	}
	return nil
}

// resolve validates doc and returns a copy with omitted fields back-filled
// from the document lookup
func (a *Analyzer) resolve(doc *Document) (Document, error) {
	if err := validate(doc); err != nil {
		return Document{}, err
	}
	d := *doc
	if a.documents == nil || d.ID == "" {
		return d, nil
	}

	stored, err := a.documents.LookupDocument(d.ID)
	if err != nil {
		return Document{}, fmt.Errorf("lookup document %s: %w", d.ID, err)
	}
	fill(&d.Content, stored.Content)
	fill(&d.Title, stored.Title)
	fill(&d.Slug, stored.Slug)
	fill(&d.FocusKeyword, stored.FocusKeyword)
	fill(&d.MetaTitle, stored.MetaTitle)
	fill(&d.MetaDescription, stored.MetaDescription)
	if err := validateContent(d.Content); err != nil {
		return Document{}, err
	}
	return d, nil
}

// seoTitle is the title search engines show: the meta title, or the
// document title when no meta title is set
func (d Document) seoTitle() string {
	if strings.TrimSpace(d.MetaTitle) != "" {
		return d.MetaTitle
	}
	return d.Title
}

func fill(dst *string, stored string) {
	if *dst == "" {
		*dst = stored
	}
}

// percent returns part/total*100, or 0 when total is not positive
func percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
