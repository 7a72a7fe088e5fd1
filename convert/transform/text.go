// Package transform converts chapter markup into target representations and
// normalizes resulting text.
package transform

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"epubx/config"
)

// blocks start a new line of text when converting to paragraphs.
var blocks = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true, atom.Figcaption: true,
	atom.Figure: true, atom.Footer: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true, atom.Header: true, atom.Hr: true,
	atom.Li: true, atom.Main: true, atom.Nav: true, atom.Ol: true, atom.P: true,
	atom.Pre: true, atom.Section: true, atom.Table: true, atom.Tr: true, atom.Ul: true,
}

// skipped elements never contribute text.
var skipped = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Style:    true,
	atom.Script:   true,
	atom.Noscript: true,
	atom.Template: true,
}

// ToPlainText drops style and script blocks, replaces every tag with a space,
// decodes entities and collapses all whitespace into single spaces.
func ToPlainText(markup string) string {
	var sb strings.Builder
	walkTokens(markup, func(tt html.TokenType, tok html.Token) {
		switch tt {
		case html.TextToken:
			sb.WriteString(tok.Data)
		default:
			sb.WriteByte(' ')
		}
	})
	return strings.Join(strings.Fields(sb.String()), " ")
}

// ToParagraphText is like ToPlainText but keeps document structure: block
// element boundaries and br produce line breaks, so sibling paragraphs end up
// separated by an empty line. Runs of newlines are left as is, see
// ApplyPostOptions.
func ToParagraphText(markup string) string {
	var sb strings.Builder
	walkTokens(markup, func(tt html.TokenType, tok html.Token) {
		switch tt {
		case html.TextToken:
			sb.WriteString(strings.ReplaceAll(tok.Data, "\n", " "))
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			switch {
			case tok.DataAtom == atom.Br || blocks[tok.DataAtom]:
				sb.WriteByte('\n')
			default:
				sb.WriteByte(' ')
			}
		}
	})

	lines := strings.Split(sb.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

// XHTML allows <tag/> for any element, HTML parser treats it as start tag of
// non-void element which then swallows the rest of the document.
var reSelfClosing = regexp.MustCompile(`(?is)<(script|style|title|textarea|iframe|div|span|a|p|i|b|em|strong)\b([^>]*?)\s*/>`)

func normalizeSelfClosing(markup string) string {
	return reSelfClosing.ReplaceAllString(markup, `<$1$2></$1>`)
}

// walkTokens feeds tokens outside of skipped elements to fn. Text tokens come
// with entities already decoded.
func walkTokens(markup string, fn func(html.TokenType, html.Token)) {
	z := html.NewTokenizer(strings.NewReader(normalizeSelfClosing(markup)))
	depth := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return
		}
		tok := z.Token()
		switch tt {
		case html.StartTagToken:
			if skipped[tok.DataAtom] {
				depth++
				continue
			}
		case html.EndTagToken:
			if skipped[tok.DataAtom] {
				if depth > 0 {
					depth--
				}
				continue
			}
		case html.CommentToken, html.DoctypeToken:
			continue
		}
		if depth > 0 {
			continue
		}
		fn(tt, tok)
	}
}

// DecodeEntities decodes named and numeric character references.
func DecodeEntities(s string) string {
	return html.UnescapeString(s)
}

// PostOptions are independent text clean-up transformations.
type PostOptions struct {
	EmDashToHyphen     bool
	SanitizeWhitespace bool
	Newlines           config.NewlinesMode
}

var (
	reInlineSpaces = regexp.MustCompile(`[^\S\n]+`)
	reNewlines     = regexp.MustCompile(`\n{3,}`)
)

// ApplyPostOptions applies requested transformations to text in fixed order.
func ApplyPostOptions(text string, opts PostOptions) string {
	if opts.EmDashToHyphen {
		text = strings.ReplaceAll(text, "—", "-")
	}
	if opts.SanitizeWhitespace {
		text = reInlineSpaces.ReplaceAllString(text, " ")
	}
	switch opts.Newlines {
	case config.NewlinesModeOne:
		text = reNewlines.ReplaceAllString(text, "\n")
	case config.NewlinesModeTwo:
		text = reNewlines.ReplaceAllString(text, "\n\n")
	}
	return text
}
