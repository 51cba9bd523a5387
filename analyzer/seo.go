package analyzer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/seo-optimizer/contentscore/textmetrics"
)

// SEO check dimensions. Downstream badges match on these names.
const (
	DimKeyphraseLength        = "Keyphrase length"
	DimKeyphraseInTitle       = "Keyphrase in SEO title"
	DimKeyphraseInDescription = "Keyphrase in meta description"
	DimKeyphraseInSlug        = "Keyphrase in slug"
	DimKeyphraseInIntro       = "Keyphrase in introduction"
	DimKeyphraseDensity       = "Keyphrase density"
	DimMetaDescriptionLength  = "Meta description length"
	DimSEOTitleWidth          = "SEO title width"
	DimTextLength             = "Text length"
	DimSingleTitle            = "Single title"
	DimKeyphraseInSubheading  = "Keyphrase in subheading"
	DimInternalLinks          = "Internal links"
	DimOutboundLinks          = "Outbound links"
	DimCompetingLinks         = "Competing links"
	DimImageAltAttributes     = "Image alt attributes"
	DimKeyphraseInImageAlt    = "Keyphrase in image alt attributes"
	DimPreviouslyUsed         = "Previously used keyphrase"
)

// SEO thresholds
const (
	maxKeyphraseWords     = 4
	minDensity            = 0.5
	maxDensity            = 2.5
	minDescriptionChars   = 120
	maxDescriptionChars   = 160
	minTitleChars         = 50
	maxTitleChars         = 60
	minTextWords          = 300
	minSubheadingMatchPct = 30.0
	maxSubheadingMatchPct = 75.0
)

// SEO runs the SEO checks over doc. Fields left empty are back-filled from
// the document lookup when doc.ID is set. Several checks are skipped entirely
// when their input is missing, for example every keyphrase placement check
// when no focus keyphrase is set.
func (a *Analyzer) SEO(doc *Document) (*AnalysisResult, error) {
	d, err := a.resolve(doc)
	if err != nil {
		return nil, err
	}
	return a.seo(d, textmetrics.Parse(d.Content))
}

func (a *Analyzer) seo(d Document, td *textmetrics.Document) (*AnalysisResult, error) {
	res := newAnalysisResult()
	kw := normalizeKeyword(d.FocusKeyword)
	title := d.seoTitle()
	metrics := keywordMetrics(td, kw)
	links := td.Links(a.origin)
	images := td.Images()

	checkKeyphraseLength(&res, kw)
	if kw != "" {
		checkKeyphraseInTitle(&res, title, kw)
		checkKeyphraseInDescription(&res, d.MetaDescription, kw)
		checkKeyphraseInSlug(&res, d.Slug, kw)
		checkKeyphraseInIntro(&res, metrics.InFirstParagraph)
		checkKeyphraseDensity(&res, metrics)
	}
	checkMetaDescriptionLength(&res, d.MetaDescription)
	checkSEOTitleWidth(&res, title)
	checkTextLength(&res, td.WordCount())
	checkSingleTitle(&res, len(td.Headings(1)))
	if kw != "" {
		checkKeyphraseInSubheadings(&res, td.Subheadings(), kw)
	}
	checkInternalLinks(&res, links)
	checkOutboundLinks(&res, links)
	if kw != "" {
		checkCompetingLinks(&res, links, kw)
	}
	checkImageAlts(&res, images)
	if kw != "" {
		checkKeyphraseInImageAlt(&res, images, kw)
	}
	if err := a.checkPreviouslyUsed(&res, d.ID, strings.TrimSpace(d.FocusKeyword)); err != nil {
		return nil, err
	}
	return &res, nil
}

func checkKeyphraseLength(r *AnalysisResult, kw string) {
	words := len(strings.Fields(kw))
	switch {
	case words == 0:
		r.problem(DimKeyphraseLength,
			"No focus keyphrase was set for this page. Set a keyphrase in order to calculate your SEO score.")
	case words > maxKeyphraseWords:
		r.problem(DimKeyphraseLength, fmt.Sprintf(
			"The keyphrase is %d words long. That's more than the recommended maximum of %d words. Make it shorter!",
			words, maxKeyphraseWords))
	default:
		r.good(DimKeyphraseLength, fmt.Sprintf("Good job! Your keyphrase is %d word(s) long.", words))
	}
}

func checkKeyphraseInTitle(r *AnalysisResult, title, kw string) {
	lower := strings.ToLower(strings.TrimSpace(title))
	switch {
	case strings.HasPrefix(lower, kw):
		r.good(DimKeyphraseInTitle,
			"The exact match of the focus keyphrase appears at the beginning of the SEO title. Good job!")
	case strings.Contains(lower, kw):
		r.good(DimKeyphraseInTitle,
			"The focus keyphrase appears in the SEO title, but not at the beginning. Moving it to the beginning may help.")
	default:
		r.problem(DimKeyphraseInTitle,
			"The focus keyphrase does not appear in the SEO title. Add it to the title.")
	}
}

func checkKeyphraseInDescription(r *AnalysisResult, description, kw string) {
	if containsFold(description, kw) {
		r.good(DimKeyphraseInDescription, "The focus keyphrase appears in the meta description. Well done!")
		return
	}
	r.problem(DimKeyphraseInDescription,
		"The meta description does not contain the focus keyphrase. Fix that!")
}

func checkKeyphraseInSlug(r *AnalysisResult, slug, kw string) {
	if containsFold(strings.ReplaceAll(slug, "-", " "), kw) {
		r.good(DimKeyphraseInSlug, "The focus keyphrase appears in the URL slug. Great work!")
		return
	}
	r.problem(DimKeyphraseInSlug, "The URL slug does not contain the focus keyphrase. Change that!")
}

func checkKeyphraseInIntro(r *AnalysisResult, found bool) {
	if found {
		r.good(DimKeyphraseInIntro, "Your keyphrase appears in the first paragraph of the copy. Well done!")
		return
	}
	r.problem(DimKeyphraseInIntro,
		"Your keyphrase does not appear in the first paragraph. Make sure the topic is clear immediately.")
}

func checkKeyphraseDensity(r *AnalysisResult, m KeywordMetrics) {
	switch {
	case m.Density < minDensity:
		r.problem(DimKeyphraseDensity, fmt.Sprintf(
			"The keyphrase density is %.2f%%, which is too low. The focus keyphrase was found %d time(s). Use more of it!",
			m.Density, m.Count))
	case m.Density > maxDensity:
		r.problem(DimKeyphraseDensity, fmt.Sprintf(
			"The keyphrase density is %.2f%%, which is over the advised maximum of %.1f%%. The focus keyphrase was found %d time(s). Avoid keyword stuffing!",
			m.Density, maxDensity, m.Count))
	default:
		r.good(DimKeyphraseDensity, fmt.Sprintf(
			"The keyphrase density is %.2f%%. The focus keyphrase was found %d time(s). This is great!",
			m.Density, m.Count))
	}
}

func checkMetaDescriptionLength(r *AnalysisResult, description string) {
	n := utf8.RuneCountInString(strings.TrimSpace(description))
	switch {
	case n < minDescriptionChars:
		r.problem(DimMetaDescriptionLength, fmt.Sprintf(
			"The meta description is %d characters long, which is too short. Up to %d characters are available; use at least %d.",
			n, maxDescriptionChars, minDescriptionChars))
	case n > maxDescriptionChars:
		r.problem(DimMetaDescriptionLength, fmt.Sprintf(
			"The meta description is %d characters long, which is over the maximum of %d characters. Shorten it so the entire description is visible.",
			n, maxDescriptionChars))
	default:
		r.good(DimMetaDescriptionLength, fmt.Sprintf(
			"The meta description is %d characters long, which is within the recommended %d-%d characters. Well done!",
			n, minDescriptionChars, maxDescriptionChars))
	}
}

func checkSEOTitleWidth(r *AnalysisResult, title string) {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	switch {
	case n < minTitleChars:
		r.problem(DimSEOTitleWidth, fmt.Sprintf(
			"The SEO title is %d characters long, which is too short. Use the space to add keyphrase variations or create compelling call-to-action copy (%d-%d characters).",
			n, minTitleChars, maxTitleChars))
	case n > maxTitleChars:
		r.problem(DimSEOTitleWidth, fmt.Sprintf(
			"The SEO title is %d characters long, which is wider than the viewable limit of %d characters. Try to make it shorter.",
			n, maxTitleChars))
	default:
		r.good(DimSEOTitleWidth, fmt.Sprintf(
			"The SEO title is %d characters long, which has a nice length. Good job!", n))
	}
}

func checkTextLength(r *AnalysisResult, words int) {
	if words >= minTextWords {
		r.good(DimTextLength, fmt.Sprintf("The text contains %d words. Good job!", words))
		return
	}
	r.problem(DimTextLength, fmt.Sprintf(
		"The text contains %d words. This is below the recommended minimum of %d words. Add more content.",
		words, minTextWords))
}

func checkSingleTitle(r *AnalysisResult, h1 int) {
	switch {
	case h1 == 1:
		r.good(DimSingleTitle, "You have exactly one H1 heading. Well done!")
	case h1 == 0:
		r.problem(DimSingleTitle,
			"No H1 heading was found. Add a single H1 heading that describes the topic of the page.")
	default:
		r.problem(DimSingleTitle, fmt.Sprintf(
			"The content contains %d H1 headings. Use only one H1 heading per page.", h1))
	}
}

// checkKeyphraseInSubheadings adds no finding when there are no subheadings
func checkKeyphraseInSubheadings(r *AnalysisResult, subheadings []string, kw string) {
	if len(subheadings) == 0 {
		return
	}
	matched := 0
	for _, h := range subheadings {
		if containsFold(h, kw) {
			matched++
		}
	}
	pct := percent(matched, len(subheadings))
	switch {
	case matched == 0:
		r.problem(DimKeyphraseInSubheading,
			"Use the focus keyphrase somewhere in your subheadings.")
	case pct > maxSubheadingMatchPct:
		r.problem(DimKeyphraseInSubheading, fmt.Sprintf(
			"%d of %d subheadings (%.1f%%) contain the focus keyphrase. That's too many; don't over-optimize!",
			matched, len(subheadings), pct))
	case pct >= minSubheadingMatchPct:
		r.good(DimKeyphraseInSubheading, fmt.Sprintf(
			"%d of %d subheadings (%.1f%%) contain the focus keyphrase. Good job!",
			matched, len(subheadings), pct))
	default:
		r.problem(DimKeyphraseInSubheading, fmt.Sprintf(
			"%d of %d subheadings (%.1f%%) contain the focus keyphrase. Use it in more of your subheadings.",
			matched, len(subheadings), pct))
	}
}

func countLinks(links []textmetrics.Link) (internal, external int) {
	for _, l := range links {
		switch {
		case l.Internal:
			internal++
		case l.External:
			external++
		}
	}
	return internal, external
}

func checkInternalLinks(r *AnalysisResult, links []textmetrics.Link) {
	internal, _ := countLinks(links)
	if internal > 0 {
		r.good(DimInternalLinks, fmt.Sprintf("You have %d internal link(s). Good job!", internal))
		return
	}
	r.problem(DimInternalLinks, "No internal links appear in this page. Make sure to add some!")
}

func checkOutboundLinks(r *AnalysisResult, links []textmetrics.Link) {
	_, external := countLinks(links)
	if external > 0 {
		r.good(DimOutboundLinks, fmt.Sprintf("You have %d outbound link(s). Good job!", external))
		return
	}
	r.problem(DimOutboundLinks, "No outbound links appear in this page. Add some!")
}

func checkCompetingLinks(r *AnalysisResult, links []textmetrics.Link, kw string) {
	competing := 0
	for _, l := range links {
		if containsFold(l.Text, kw) {
			competing++
		}
	}
	if competing == 0 {
		r.good(DimCompetingLinks, "There are no links which use your keyphrase as their anchor text. Nice!")
		return
	}
	r.problem(DimCompetingLinks, fmt.Sprintf(
		"You're linking to another page with the words you want this page to rank for (%d link(s)). Don't do that!",
		competing))
}

// checkImageAlts is skipped when the content has no images
func checkImageAlts(r *AnalysisResult, images []textmetrics.Image) {
	if len(images) == 0 {
		return
	}
	missing := 0
	for _, img := range images {
		if !img.HasAlt {
			missing++
		}
	}
	if missing == 0 {
		r.good(DimImageAltAttributes, "All images have alt attributes. Good job!")
		return
	}
	r.problem(DimImageAltAttributes, fmt.Sprintf(
		"%d image(s) missing alt attributes. Add alt text to all images.", missing))
}

// checkKeyphraseInImageAlt reports the same problem whether there are no
// images or no image alt contains the keyphrase
func checkKeyphraseInImageAlt(r *AnalysisResult, images []textmetrics.Image, kw string) {
	for _, img := range images {
		if containsFold(img.Alt, kw) {
			r.good(DimKeyphraseInImageAlt,
				"Images on this page have alt attributes with words from your keyphrase. Good job!")
			return
		}
	}
	r.problem(DimKeyphraseInImageAlt,
		"Add images with alt attributes containing your keyphrase to this page.")
}

// checkPreviouslyUsed asks the keyword index for an identical keyphrase on
// any other document
func (a *Analyzer) checkPreviouslyUsed(r *AnalysisResult, id, kw string) error {
	if kw == "" {
		r.problem(DimPreviouslyUsed,
			"No focus keyphrase was set for this page. Set a keyphrase to check whether it was used before.")
		return nil
	}

	used := false
	if a.keywords != nil {
		var err error
		if used, err = a.keywords.KeywordUsedElsewhere(kw, id); err != nil {
			return fmt.Errorf("check keyphrase reuse: %w", err)
		}
	}
	if used {
		r.problem(DimPreviouslyUsed,
			"You've used this focus keyphrase before. Do not use your focus keyphrase more than once.")
		return nil
	}
	r.good(DimPreviouslyUsed, "You've not used this focus keyphrase before, very good.")
	return nil
}
