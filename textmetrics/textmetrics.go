// Package textmetrics extracts counts and structure from HTML-ish content:
// words, sentences, syllables, paragraphs, headings, images and links.
//
// Every function is pure and tolerates empty or malformed markup by
// returning zero values.
package textmetrics

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reSentenceEnd = regexp.MustCompile(`[.!?]+`)
	reBlankLine   = regexp.MustCompile(`\n\s*\n`)
)

// WordCount returns the number of whitespace-delimited tokens in text.
// Markup should already be stripped; use Parse for raw content.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Sentences splits text on runs of sentence-ending punctuation and returns the
// trimmed, non-empty pieces in their original order.
func Sentences(text string) []string {
	parts := reSentenceEnd.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

// CleanWord lowercases word and drops everything that is not a letter or digit.
func CleanWord(word string) string {
	var b strings.Builder
	b.Grow(len(word))
	for _, r := range strings.ToLower(word) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Syllables estimates the syllable count of a single word by counting vowel
// groups. A trailing silent "e" is discounted when more than one group exists
// and a consonant+"le" ending adds one. Any non-empty word has at least one
// syllable; an empty word (after cleaning) has none.
func Syllables(word string) int {
	w := []rune(CleanWord(word))
	if len(w) == 0 {
		return 0
	}

	count := 0
	prevVowel := false
	for _, r := range w {
		v := isVowel(r)
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}

	n := len(w)
	if w[n-1] == 'e' && count > 1 {
		count--
	}
	if n > 2 && w[n-2] == 'l' && w[n-1] == 'e' && !isVowel(w[n-3]) {
		count++
	}

	if count < 1 {
		count = 1
	}
	return count
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

// splitParagraphs splits plain text on blank lines.
func splitParagraphs(text string) []string {
	var out []string
	for _, p := range reBlankLine.Split(text, -1) {
		p = normalizeSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeSpace collapses all whitespace runs into single spaces.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
