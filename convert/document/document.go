// Package document assembles complete output documents from converted
// chapter content: HTML shells, tables of contents, navigation and footers.
package document

import (
	"html"
	"regexp"
	"strings"

	"epubx/config"
)

// BodyClass is the class of styled document body, style definitions refer to
// it.
const BodyClass = "epub-x-body"

// LayoutCSS is appended to generated style of every styled document.
const LayoutCSS = `
.epub-x-body img { display: block; max-width: 100%; height: auto; margin: 1.5em auto; }
.epub-x-body figure { margin: 1.5em 0; text-align: center; }
.epub-x-body figure img { margin: 0 auto; }
.epub-x-body ul, .epub-x-body ol { padding-left: 1.5em; }
.epub-x-body p { margin: 0.75em 0; }
.extraction-footer-link:hover, .chapter-nav-link:hover { text-decoration: underline; }
`

var reLang = regexp.MustCompile(`^[a-zA-Z]{1,8}(-[a-zA-Z0-9]{1,8})*$`)

func head(title, lang string) string {
	if !reLang.MatchString(lang) {
		lang = "en"
	}
	return `<!DOCTYPE html>
<html lang="` + lang + `">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>` + html.EscapeString(title) + `</title>
`
}

// Minimal wraps body fragment into bare HTML document.
func Minimal(title, body, lang string) string {
	return head(title, lang) + `</head>
<body>
` + body + `
</body>
</html>
`
}

// Styled wraps body fragment into HTML document carrying CSS generated from
// style definition.
func Styled(title, body, lang string, style *config.Style) string {
	css := strings.TrimSpace(EscapeStyle(StyleCSS(style) + LayoutCSS))
	return head(title, lang) + `  <style>
` + css + `
  </style>
</head>
<body class="` + BodyClass + `">
` + body + `
</body>
</html>
`
}

// Wrap selects document shell according to configuration.
func Wrap(title, body, lang string, cfg *config.HTMLConfig, style *config.Style) string {
	if cfg.Style == config.HTMLStyleStyled && style != nil {
		return Styled(title, body, lang, style)
	}
	return Minimal(title, body, lang)
}

var reStyleEnd = regexp.MustCompile(`(?i)</style`)

// EscapeStyle makes CSS safe to be embedded into style element.
func EscapeStyle(css string) string {
	return reStyleEnd.ReplaceAllString(css, `<\/style`)
}
