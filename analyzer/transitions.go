package analyzer

import (
	"regexp"
	"strings"
)

// transitionWords are single- and multi-word English connectives
var transitionWords = []string{
	"accordingly", "additionally", "afterward", "afterwards", "albeit", "also", "although",
	"altogether", "another", "basically", "because", "before", "besides", "but", "certainly",
	"chiefly", "comparatively", "concurrently", "consequently", "contrarily", "conversely",
	"correspondingly", "despite", "doubtedly", "during", "earlier", "emphatically", "equally",
	"especially", "eventually", "evidently", "explicitly", "finally", "firstly", "following",
	"formerly", "forthwith", "fourthly", "further", "furthermore", "generally", "hence",
	"henceforth", "however", "identically", "indeed", "initially", "instead", "lastly",
	"later", "likewise", "markedly", "meanwhile", "moreover", "namely", "nevertheless",
	"nonetheless", "notwithstanding", "obviously", "occasionally", "otherwise", "overall",
	"particularly", "presently", "previously", "rather", "regardless", "secondly", "shortly",
	"significantly", "similarly", "simultaneously", "since", "so", "soon", "specifically",
	"still", "straightaway", "subsequently", "surely", "surprisingly", "than", "then",
	"thereafter", "therefore", "thereupon", "thirdly", "though", "thus", "till", "too",
	"undeniably", "undoubtedly", "unless", "unlike", "unquestionably", "until", "when",
	"whenever", "whereas", "while",
	"above all", "after all", "after that", "all in all", "all of a sudden", "all things considered",
	"as a consequence", "as a result", "as an illustration", "as long as", "as soon as",
	"as well as", "at first", "at last", "at the same time", "by all means", "by and large",
	"by comparison", "by the same token", "by the time", "even though", "first of all",
	"for example", "for instance", "for one thing", "for this reason", "from time to time",
	"in addition", "in brief", "in case", "in conclusion", "in contrast", "in fact",
	"in general", "in other words", "in particular", "in short", "in summary", "in the meantime",
	"in the same way", "in this case", "on the contrary", "on the other hand", "so that",
	"such as", "that is to say", "to begin with", "to conclude", "to sum up", "to summarize",
	"up to", "with this in mind",
}

var reTransition = compileWordList(transitionWords)

// compileWordList builds a case-insensitive matcher that requires word
// boundaries on both sides of every entry
func compileWordList(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// passivePatterns match an auxiliary followed by a participle-like word
var passivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:am|is|are|was|were|be|been|being)\s+\w+ed\b`),
	regexp.MustCompile(`(?i)\b(?:am|is|are|was|were|be|been|being)\s+\w+en\b`),
	regexp.MustCompile(`(?i)\b(?:is|are|was|were|been|being|has been|have been|had been|will be)\s+\w+(?:ed|en|t)\b`),
}

func hasTransition(sentence string) bool {
	return reTransition.MatchString(sentence)
}

func isPassive(sentence string) bool {
	for _, re := range passivePatterns {
		if re.MatchString(sentence) {
			return true
		}
	}
	return false
}
