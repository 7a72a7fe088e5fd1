package document

import (
	"bytes"
	"errors"
	"io"
	"regexp"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"

	"epubx/config"
)

// allowedProperties lists CSS properties style definitions may use.
var allowedProperties = map[string]bool{
	"background": true, "background-color": true,
	"border": true, "border-bottom": true, "border-color": true, "border-left": true,
	"border-radius": true, "border-right": true, "border-style": true, "border-top": true,
	"border-width": true, "box-shadow": true, "box-sizing": true,
	"clear": true, "color": true, "display": true, "float": true,
	"font": true, "font-family": true, "font-size": true, "font-style": true,
	"font-variant": true, "font-weight": true,
	"height": true, "hyphens": true, "letter-spacing": true, "line-height": true,
	"list-style": true, "list-style-type": true,
	"margin": true, "margin-bottom": true, "margin-left": true, "margin-right": true, "margin-top": true,
	"max-height": true, "max-width": true, "min-height": true, "min-width": true,
	"opacity": true, "overflow": true, "overflow-wrap": true,
	"padding": true, "padding-bottom": true, "padding-left": true, "padding-right": true, "padding-top": true,
	"text-align": true, "text-decoration": true, "text-indent": true, "text-transform": true,
	"vertical-align": true, "white-space": true, "width": true, "word-break": true, "word-spacing": true,
}

var reProperty = regexp.MustCompile(`^[a-z][a-z-]*$`)

// ValidProperty reports whether CSS property name could be embedded.
func ValidProperty(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	return reProperty.MatchString(name) && allowedProperties[name]
}

// CleanValue validates CSS declaration value and returns it re-serialized
// from lexer tokens. Values which could terminate declaration, rule or the
// style element, load external resources or run scripts are refused.
func CleanValue(value string) (string, bool) {
	if len(strings.TrimSpace(value)) == 0 || strings.ContainsAny(value, "<>{};\\") {
		return "", false
	}

	var out strings.Builder
	l := css.NewLexer(parse.NewInput(bytes.NewBufferString(value)))
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return "", false
			}
			res := strings.TrimSpace(out.String())
			return res, len(res) > 0
		case css.WhitespaceToken:
			out.WriteByte(' ')
		case css.CommentToken:
		case css.IdentToken, css.StringToken, css.NumberToken, css.PercentageToken,
			css.DimensionToken, css.HashToken, css.CommaToken, css.DelimToken,
			css.LeftParenthesisToken, css.RightParenthesisToken:
			out.Write(data)
		case css.FunctionToken:
			name := strings.ToLower(string(data))
			if name == "url(" || name == "expression(" || strings.HasPrefix(name, "-") {
				return "", false
			}
			out.Write(data)
		default:
			// at-keywords, urls, bad strings, braces, CDO/CDC and the rest
			return "", false
		}
	}
}

var reClassName = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// StyleCSS generates CSS from style definition. Invalid, unknown and
// duplicate declarations are silently dropped, classes without declarations
// are not emitted.
func StyleCSS(style *config.Style) string {
	if style == nil {
		return ""
	}
	var rules []string
	for _, cls := range style.Classes {
		name := reClassName.ReplaceAllString(cls.Class, "")
		if len(name) == 0 {
			continue
		}
		seen := make(map[string]bool, len(cls.Rules))
		var decls []string
		for _, r := range cls.Rules {
			prop := strings.ToLower(strings.TrimSpace(r.Property))
			if seen[prop] || !ValidProperty(prop) {
				continue
			}
			value, ok := CleanValue(r.Value)
			if !ok {
				continue
			}
			seen[prop] = true
			decls = append(decls, "  "+prop+": "+value+";")
		}
		if len(decls) > 0 {
			rules = append(rules, "."+name+" {\n"+strings.Join(decls, "\n")+"\n}")
		}
	}
	return strings.Join(rules, "\n")
}
