package textmetrics

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// policy keeps the structural tags the analysis needs and drops everything
// else. Script and style bodies are removed entirely, so code never counts as
// copy. A built policy is safe for concurrent use.
var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "div", "span", "section", "article", "main", "header", "footer", "aside",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "dl", "dt", "dd", "blockquote", "pre", "code",
		"strong", "em", "b", "i", "u", "s", "small", "mark", "sub", "sup",
		"table", "thead", "tbody", "tfoot", "tr", "th", "td", "caption",
		"figure", "figcaption",
	)
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("src", "alt", "title").OnElements("img")
	return p
}

var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true, atom.Main: true,
	atom.Header: true, atom.Footer: true, atom.Aside: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.Blockquote: true, atom.Pre: true, atom.Table: true, atom.Tr: true, atom.Td: true,
	atom.Th: true, atom.Caption: true, atom.Figure: true, atom.Figcaption: true,
}

var subheadingAtoms = map[atom.Atom]bool{
	atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

// Image is an <img> tag found in the content.
type Image struct {
	Src    string `json:"src"`
	Alt    string `json:"alt"`
	HasAlt bool   `json:"hasAlt"`
}

// Link is an <a href> tag found in the content.
type Link struct {
	Href     string `json:"href"`
	Text     string `json:"text"`
	Internal bool   `json:"internal"`
	External bool   `json:"external"`
}

// Document is parsed content. It is immutable after Parse and may be shared
// between goroutines.
type Document struct {
	doc  *goquery.Document
	raw  string // text with block boundaries kept as newlines
	text string // raw with whitespace collapsed
}

// Parse sanitizes and parses content. Malformed markup never fails: the HTML
// parser recovers the same way browsers do, and plain text is kept as is.
func Parse(content string) *Document {
	clean := policy.Sanitize(content)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(clean))
	if err != nil {
		// Only reachable on reader errors, which strings.Reader never returns.
		doc = goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode})
	}

	var b strings.Builder
	for _, n := range doc.Nodes {
		collectText(n, &b)
	}
	raw := b.String()
	return &Document{doc: doc, raw: raw, text: normalizeSpace(raw)}
}

// StripTags returns the text of content with all markup removed and
// whitespace collapsed.
func StripTags(content string) string {
	return Parse(content).Text()
}

func collectText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if n.DataAtom == atom.Br {
			b.WriteString("\n")
			return
		}
	}
	block := n.Type == html.ElementNode && blockAtoms[n.DataAtom]
	if block {
		b.WriteString("\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
	if block {
		b.WriteString("\n")
	}
}

// Text returns the stripped text with whitespace collapsed.
func (d *Document) Text() string {
	return d.text
}

// WordCount returns the number of words in the stripped text.
func (d *Document) WordCount() int {
	return WordCount(d.text)
}

// Sentences returns the sentences of the stripped text.
func (d *Document) Sentences() []string {
	return Sentences(d.text)
}

// HasParagraphTags reports whether the content contains any <p> element.
func (d *Document) HasParagraphTags() bool {
	return d.doc.Find("p").Length() > 0
}

// Paragraphs returns the non-empty <p> blocks. Content without <p> tags is
// split on blank lines and block element boundaries instead.
func (d *Document) Paragraphs() []string {
	if !d.HasParagraphTags() {
		return splitParagraphs(d.raw)
	}
	var out []string
	d.doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if t := normalizeSpace(s.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// Headings returns the text of headings with the given levels (1-6) in
// document order.
func (d *Document) Headings(levels ...int) []string {
	selectors := make([]string, 0, len(levels))
	for _, l := range levels {
		if l >= 1 && l <= 6 {
			selectors = append(selectors, "h"+string(rune('0'+l)))
		}
	}
	if len(selectors) == 0 {
		return nil
	}
	var out []string
	d.doc.Find(strings.Join(selectors, ", ")).Each(func(_ int, s *goquery.Selection) {
		out = append(out, normalizeSpace(s.Text()))
	})
	return out
}

// Subheadings returns the H2-H6 heading texts.
func (d *Document) Subheadings() []string {
	return d.Headings(2, 3, 4, 5, 6)
}

// Sections returns the text between consecutive H2-H6 subheadings. The text
// before the first subheading is the first section, so content without
// subheadings yields a single section.
func (d *Document) Sections() []string {
	var sections []string
	var cur strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && subheadingAtoms[n.DataAtom] {
			sections = append(sections, normalizeSpace(cur.String()))
			cur.Reset()
			return
		}
		if n.Type == html.TextNode {
			cur.WriteString(n.Data)
			return
		}
		block := n.Type == html.ElementNode && (blockAtoms[n.DataAtom] || n.DataAtom == atom.Br)
		if block {
			cur.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			cur.WriteString("\n")
		}
	}
	for _, n := range d.doc.Nodes {
		walk(n)
	}
	return append(sections, normalizeSpace(cur.String()))
}

// Images returns every <img> tag in document order.
func (d *Document) Images() []Image {
	var out []Image
	d.doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		alt, exists := s.Attr("alt")
		alt = strings.TrimSpace(alt)
		out = append(out, Image{
			Src:    src,
			Alt:    alt,
			HasAlt: exists && alt != "",
		})
	})
	return out
}

// Links returns every anchor with a usable href in document order. A link is
// internal when its href starts with origin or with "/", external when it
// starts with "http". Protocol-relative hrefs are treated as https.
func (d *Document) Links(origin string) []Link {
	origin = strings.TrimSpace(origin)
	var out []Link
	d.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || href == "#" {
			return
		}
		if strings.HasPrefix(href, "//") {
			href = "https:" + href
		}

		link := Link{Href: href, Text: normalizeSpace(s.Text())}
		switch {
		case origin != "" && strings.HasPrefix(href, origin), strings.HasPrefix(href, "/"):
			link.Internal = true
		case strings.HasPrefix(href, "http"):
			link.External = true
		}
		out = append(out, link)
	})
	return out
}
