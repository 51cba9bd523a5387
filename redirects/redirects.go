// Package redirects matches request paths against redirect rules and
// normalizes URLs for the 404 log.
package redirects

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var (
	// ErrInvalidPattern is returned for sources that are empty or fail to compile
	ErrInvalidPattern = errors.New("invalid redirect pattern")
	// ErrInvalidStatus is returned for status codes a redirect cannot use
	ErrInvalidStatus = errors.New("invalid redirect status")
	// ErrMissingTarget is returned when a redirecting status has no target
	ErrMissingTarget = errors.New("redirect target is required")
)

// DefaultStatus is used when a rule is created without a status
const DefaultStatus = 301

var allowedStatus = map[int]bool{301: true, 302: true, 307: true, 308: true, 410: true, 451: true}

// Redirect is a single rule. Exact sources are stored normalized; regex
// sources are matched against the normalized path and their target may
// reference capture groups as $1, $2 and so on.
type Redirect struct {
	ID     int64  `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Status int    `json:"status"`
	Regex  bool   `json:"regex"`
	Hits   int64  `json:"hits"`
}

// Gone reports whether the rule answers without a target (410 or 451)
func (r Redirect) Gone() bool {
	return r.Status == 410 || r.Status == 451
}

// Validate checks a rule before it is written
func (r Redirect) Validate() error {
	if strings.TrimSpace(r.Source) == "" {
		return fmt.Errorf("%w: source is empty", ErrInvalidPattern)
	}
	if !allowedStatus[r.Status] {
		return fmt.Errorf("%w: %d", ErrInvalidStatus, r.Status)
	}
	if r.Regex {
		if _, err := regexp.Compile(r.Source); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPattern, err)
		}
	}
	if !r.Gone() && strings.TrimSpace(r.Target) == "" {
		return ErrMissingTarget
	}
	return nil
}

// Match is the result of a successful lookup
type Match struct {
	RedirectID int64  `json:"redirectId"`
	Target     string `json:"target"`
	Status     int    `json:"status"`
}

type pattern struct {
	re   *regexp.Regexp
	rule Redirect
}

// Matcher resolves paths against a fixed set of rules. It is read-only after
// NewMatcher and safe for concurrent use.
type Matcher struct {
	exact    map[string]Redirect
	patterns []pattern
}

// NewMatcher builds a matcher. Exact rules win over regex rules; among regex
// rules the lowest ID wins. A rule that fails validation is an error rather
// than being skipped.
func NewMatcher(rules []Redirect) (*Matcher, error) {
	sorted := append([]Redirect(nil), rules...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	m := &Matcher{exact: make(map[string]Redirect)}
	for _, r := range sorted {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("redirect %d: %w", r.ID, err)
		}
		if !r.Regex {
			key := Normalize(r.Source)
			if _, exists := m.exact[key]; !exists {
				m.exact[key] = r
			}
			continue
		}
		m.patterns = append(m.patterns, pattern{re: regexp.MustCompile(r.Source), rule: r})
	}
	return m, nil
}

// Match looks up rawURL, which may be a path or a full URL
func (m *Matcher) Match(rawURL string) (Match, bool) {
	path := Normalize(rawURL)
	if r, ok := m.exact[path]; ok {
		return Match{RedirectID: r.ID, Target: r.Target, Status: r.Status}, true
	}
	for _, p := range m.patterns {
		idx := p.re.FindStringSubmatchIndex(path)
		if idx == nil {
			continue
		}
		target := string(p.re.ExpandString(nil, p.rule.Target, path, idx))
		return Match{RedirectID: p.rule.ID, Target: target, Status: p.rule.Status}, true
	}
	return Match{}, false
}

// Normalize reduces a URL to the lowercase path used as a lookup key: scheme,
// host, query and fragment are dropped, a leading slash is ensured and
// trailing slashes are removed except for the root.
func Normalize(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if u, err := url.Parse(s); err == nil {
		s = u.Path
	} else if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}

	s = strings.ToLower(s)
	if !strings.HasPrefix(s, "/") {
		s = "/" + s
	}
	if trimmed := strings.TrimRight(s, "/"); trimmed != "" {
		return trimmed
	}
	return "/"
}
