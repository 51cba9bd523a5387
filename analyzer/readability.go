package analyzer

import (
	"fmt"
	"math"
	"strings"

	"github.com/seo-optimizer/contentscore/textmetrics"
)

// Readability check dimensions
const (
	DimNotEnoughContent       = "Not enough content"
	DimSentenceLength         = "Sentence length"
	DimParagraphLength        = "Paragraph length"
	DimSubheadingDistribution = "Subheading distribution"
	DimTransitionWords        = "Transition words"
	DimPassiveVoice           = "Passive voice"
	DimConsecutiveSentences   = "Consecutive sentences"
	DimWordComplexity         = "Word complexity"
	DimFleschReadingEase      = "Flesch Reading Ease"
)

// Readability thresholds
const (
	minReadabilityWords   = 10
	longSentenceWords     = 20
	maxLongSentencePct    = 25.0
	longParagraphWords    = 150
	subheadingTextWords   = 300
	maxSectionWords       = 300
	minTransitionPct      = 30.0
	lowTransitionPct      = 20.0
	maxPassivePct         = 10.0
	maxConsecutiveRun     = 2
	complexWordSyllables  = 4
	maxComplexWordPct     = 10.0
	fleschGood            = 60.0
	fleschFairlyDifficult = 30.0
)

// Readability analyzes content for readability. Content under ten words
// yields a single problem and a Flesch score of 0.
func (a *Analyzer) Readability(content string) (*ReadabilityResult, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}
	return a.readability(textmetrics.Parse(content)), nil
}

// Flesch returns the Flesch Reading Ease score and grade level of content
func (a *Analyzer) Flesch(content string) (ReadabilityMetrics, error) {
	if err := validateContent(content); err != nil {
		return ReadabilityMetrics{}, err
	}
	td := textmetrics.Parse(content)
	score := fleschScore(strings.Fields(td.Text()), len(td.Sentences()))
	return ReadabilityMetrics{FleschScore: score, GradeLevel: GradeLevel(score)}, nil
}

func (a *Analyzer) readability(td *textmetrics.Document) *ReadabilityResult {
	res := &ReadabilityResult{AnalysisResult: newAnalysisResult()}
	words := strings.Fields(td.Text())
	if len(words) < minReadabilityWords {
		res.problem(DimNotEnoughContent, fmt.Sprintf(
			"Your text contains %d word(s). Add more content: at least %d words are needed for a readability analysis.",
			len(words), minReadabilityWords))
		return res
	}

	sentences := td.Sentences()

	checkSentenceLength(&res.AnalysisResult, sentences)
	checkParagraphLength(&res.AnalysisResult, td.Paragraphs())
	checkSubheadingDistribution(&res.AnalysisResult, td, len(words))
	checkTransitionWords(&res.AnalysisResult, sentences)
	checkPassiveVoice(&res.AnalysisResult, sentences)
	checkConsecutiveSentences(&res.AnalysisResult, sentences)
	checkWordComplexity(&res.AnalysisResult, words)

	score := fleschScore(words, len(sentences))
	checkFlesch(&res.AnalysisResult, score)

	res.FleschScore = score
	res.GradeLevel = GradeLevel(score)
	return res
}

func checkSentenceLength(r *AnalysisResult, sentences []string) {
	long := 0
	for _, s := range sentences {
		if textmetrics.WordCount(s) > longSentenceWords {
			long++
		}
	}
	pct := percent(long, len(sentences))
	if pct <= maxLongSentencePct {
		r.good(DimSentenceLength, fmt.Sprintf(
			"%.1f%% of the sentences contain more than %d words, which is within the recommended maximum of %.0f%%. Great!",
			pct, longSentenceWords, maxLongSentencePct))
		return
	}
	r.problem(DimSentenceLength, fmt.Sprintf(
		"%.1f%% of the sentences contain more than %d words, which is more than the recommended maximum of %.0f%%. Try to shorten the sentences.",
		pct, longSentenceWords, maxLongSentencePct))
}

func checkParagraphLength(r *AnalysisResult, paragraphs []string) {
	long := 0
	for _, p := range paragraphs {
		if textmetrics.WordCount(p) > longParagraphWords {
			long++
		}
	}
	if long == 0 {
		r.good(DimParagraphLength, "None of the paragraphs are too long. Great job!")
		return
	}
	r.problem(DimParagraphLength, fmt.Sprintf(
		"%d of the paragraphs contain more than the recommended maximum of %d words. Shorten your paragraphs!",
		long, longParagraphWords))
}

func checkSubheadingDistribution(r *AnalysisResult, td *textmetrics.Document, wordCount int) {
	if wordCount < subheadingTextWords {
		r.good(DimSubheadingDistribution,
			"Your text is short enough that it probably doesn't need subheadings.")
		return
	}
	if len(td.Subheadings()) == 0 {
		r.problem(DimSubheadingDistribution,
			"You are not using any subheadings, although your text is rather long. Try and add some subheadings.")
		return
	}

	long := 0
	for _, section := range td.Sections() {
		if textmetrics.WordCount(section) > maxSectionWords {
			long++
		}
	}
	if long > 0 {
		r.warning(DimSubheadingDistribution, fmt.Sprintf(
			"%d section(s) of your text are longer than %d words and are not separated by any subheadings. Add subheadings to improve readability.",
			long, maxSectionWords))
		return
	}
	r.good(DimSubheadingDistribution, "Great job distributing your text with subheadings!")
}

func checkTransitionWords(r *AnalysisResult, sentences []string) {
	with := 0
	for _, s := range sentences {
		if hasTransition(s) {
			with++
		}
	}
	pct := percent(with, len(sentences))
	switch {
	case pct >= minTransitionPct:
		r.good(DimTransitionWords, fmt.Sprintf(
			"%.1f%% of the sentences contain transition words. Well done!", pct))
	case pct < lowTransitionPct:
		r.problem(DimTransitionWords, fmt.Sprintf(
			"Only %.1f%% of the sentences contain transition words, which is far below the recommended minimum of %.0f%%. Use more of them.",
			pct, minTransitionPct))
	default:
		r.problem(DimTransitionWords, fmt.Sprintf(
			"Only %.1f%% of the sentences contain transition words, which is not enough. The recommended minimum is %.0f%%. Use more of them.",
			pct, minTransitionPct))
	}
}

func checkPassiveVoice(r *AnalysisResult, sentences []string) {
	passive := 0
	for _, s := range sentences {
		if isPassive(s) {
			passive++
		}
	}
	pct := percent(passive, len(sentences))
	if pct <= maxPassivePct {
		r.good(DimPassiveVoice, fmt.Sprintf(
			"%.1f%% of the sentences contain passive voice, which is within the recommended maximum of %.0f%%. Good job!",
			pct, maxPassivePct))
		return
	}
	r.problem(DimPassiveVoice, fmt.Sprintf(
		"%.1f%% of the sentences contain passive voice, which is more than the recommended maximum of %.0f%%. Try to use their active counterparts.",
		pct, maxPassivePct))
}

func checkConsecutiveSentences(r *AnalysisResult, sentences []string) {
	run := longestRepeatedStart(sentences)
	if run <= maxConsecutiveRun {
		r.good(DimConsecutiveSentences, "There is enough variety in your sentences. That's great!")
		return
	}
	r.problem(DimConsecutiveSentences, fmt.Sprintf(
		"The text contains %d consecutive sentences starting with the same word. Try to mix things up!", run))
}

// longestRepeatedStart returns the longest run of consecutive sentences whose
// first word is the same, ignoring case and punctuation
func longestRepeatedStart(sentences []string) int {
	longest, run := 0, 0
	prev := ""
	for _, s := range sentences {
		first := ""
		if fields := strings.Fields(s); len(fields) > 0 {
			first = textmetrics.CleanWord(fields[0])
		}
		if first != "" && first == prev {
			run++
		} else {
			run = 1
		}
		prev = first
		if run > longest {
			longest = run
		}
	}
	return longest
}

func checkWordComplexity(r *AnalysisResult, words []string) {
	complexWords := 0
	for _, w := range words {
		if textmetrics.Syllables(w) >= complexWordSyllables {
			complexWords++
		}
	}
	pct := percent(complexWords, len(words))
	if pct <= maxComplexWordPct {
		r.good(DimWordComplexity, fmt.Sprintf(
			"%.1f%% of the words in your text are considered complex. You're not using too many complex words. Great!",
			pct))
		return
	}
	r.problem(DimWordComplexity, fmt.Sprintf(
		"%.1f%% of the words in your text are considered complex, which is more than the recommended maximum of %.0f%%. Try to use shorter and more familiar words.",
		pct, maxComplexWordPct))
}

func checkFlesch(r *AnalysisResult, score float64) {
	switch {
	case score >= fleschGood:
		r.good(DimFleschReadingEase, fmt.Sprintf(
			"The copy scores %.1f in the Flesch Reading Ease test, which is considered %s to read. Good job!",
			score, fleschDescription(score)))
	case score >= fleschFairlyDifficult:
		r.problem(DimFleschReadingEase, fmt.Sprintf(
			"The copy scores %.1f in the Flesch Reading Ease test, which is considered fairly difficult to read. Try to make shorter sentences to improve readability.",
			score))
	default:
		r.problem(DimFleschReadingEase, fmt.Sprintf(
			"The copy scores %.1f in the Flesch Reading Ease test, which is considered very difficult to read. Try to make shorter sentences and use less difficult words to improve readability.",
			score))
	}
}

func fleschDescription(score float64) string {
	switch {
	case score >= 90:
		return "very easy"
	case score >= 80:
		return "easy"
	case score >= 70:
		return "fairly easy"
	default:
		return "ok"
	}
}

// fleschScore computes Flesch Reading Ease clamped to [0,100] and rounded to
// one decimal. Text without words or sentences scores 0.
func fleschScore(words []string, sentences int) float64 {
	if len(words) == 0 || sentences == 0 {
		return 0
	}
	syllables := 0
	for _, w := range words {
		syllables += textmetrics.Syllables(w)
	}
	wordsPerSentence := float64(len(words)) / float64(sentences)
	syllablesPerWord := float64(syllables) / float64(len(words))
	score := 206.835 - 1.015*wordsPerSentence - 84.6*syllablesPerWord
	return round1(math.Min(100, math.Max(0, score)))
}

// GradeLevel maps a Flesch Reading Ease score to a school grade band
func GradeLevel(score float64) string {
	switch {
	case score >= 90:
		return "5th grade"
	case score >= 80:
		return "6th grade"
	case score >= 70:
		return "7th grade"
	case score >= 60:
		return "8th-9th grade"
	case score >= 50:
		return "10th-12th grade"
	case score >= 30:
		return "College"
	default:
		return "College Graduate"
	}
}
