// Package content turns legacy rich text into plain text.
package content

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	DefaultExcerptLength = 200
	Ellipsis             = "..."
)

// CleanText strips tags and entities from markup, collapses whitespace and
// trims the result. Malformed markup never fails; whatever the tokenizer
// cannot place is treated as text and any stray angle brackets are dropped.
func CleanText(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(markup))

	z := html.NewTokenizer(strings.NewReader(markup))
	skip := 0 // depth inside <script>/<style>
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return collapse(b.String())
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if a == atom.Script || a == atom.Style {
				if tt == html.StartTagToken {
					skip++
				} else if tt == html.EndTagToken && skip > 0 {
					skip--
				}
				continue
			}
			if breaksText(a) {
				b.WriteByte(' ')
			}
		}
	}
}

// DeriveExcerpt cleans markup and, when the text is longer than maxLength
// characters, cuts it to exactly maxLength characters plus "...". The cut
// may land mid-word.
func DeriveExcerpt(markup string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultExcerptLength
	}
	text := CleanText(markup)
	r := []rune(text)
	if len(r) <= maxLength {
		return text
	}
	return string(r[:maxLength]) + Ellipsis
}

// collapse maps stray angle brackets to spaces and joins the remaining
// fields with single spaces. strings.Fields splits on U+00A0 as well, so a
// decoded &nbsp; ends up as a plain space.
func collapse(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '<' || r == '>' {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// block-level elements separate words; inline ones do not.
func breaksText(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Br, atom.Div, atom.Li, atom.Ul, atom.Ol,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Tr, atom.Td, atom.Th, atom.Table, atom.Blockquote,
		atom.Section, atom.Article, atom.Header, atom.Footer,
		atom.Figure, atom.Figcaption, atom.Hr, atom.Pre, atom.Img:
		return true
	}
	return false
}
