// Package webapp generates self-contained offline reader: a single HTML file
// with book data, translations and settings embedded as inert JSON blocks.
package webapp

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"text/template"

	"epubx/config"
	"epubx/convert/document"
	"epubx/convert/schema"
	"epubx/locale"
)

//go:embed reader.html.tmpl
var readerTemplate string

// ContentClass replaces document body class in reader styles.
const ContentClass = "reader-content"

// LayoutCSS is fixed reader layout for chapter content.
const LayoutCSS = `
.reader-content img { display: block; max-width: 100%; height: auto; margin: 1.5em auto; }
.reader-content figure { margin: 1.5em 0; text-align: center; }
.reader-content figure img { margin: 0 auto; }
.reader-content ul, .reader-content ol { padding-left: 1.5em; }
.reader-content p { margin: 0.75em 0; }
.reader-content h1, .reader-content h2, .reader-content h3 { margin: 1em 0 0.5em; }
`

// Fonts offered by reader settings, "preserve" keeps book fonts.
var Fonts = []string{
	"preserve", "Helvetica", "Lato", "Roboto", "Arial", "Literata", "Lora", "Merriweather",
	"Source Serif 4", "Crimson Pro", "Libre Baskerville", "PT Serif", "Noto Serif",
	"Charis SIL", "Newsreader", "DM Serif Text", "Playfair Display", "Georgia", "system-ui",
}

var reader = template.Must(template.New("reader").Delims("{%", "%}").Parse(readerTemplate))

// Config is passed to reader script.
type Config struct {
	InitialLocale  string `json:"initialLocale"`
	ChapterNewPage bool   `json:"chapterNewPage"`
}

type localeName struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type slots struct {
	Lang        string
	Title       string
	BookJSON    string
	I18nJSON    string
	ConfigJSON  string
	FontsJSON   string
	LocalesJSON string
	ContentCSS  string
	LayoutCSS   string
}

var reBodyClass = regexp.MustCompile(`\.` + regexp.QuoteMeta(document.BodyClass) + `\b`)

// ContentCSS generates reader styles for chapter content from style
// definition.
func ContentCSS(style *config.Style) string {
	return reBodyClass.ReplaceAllString(document.StyleCSS(style), "."+ContentClass)
}

// scriptJSON returns compact JSON safe to be embedded into script element,
// every '<', '>' and '&' is escaped.
func scriptJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("unable to encode reader data: %w", err)
	}
	return string(data), nil
}

// Build writes reader HTML for book to w.
func Build(w io.Writer, book *schema.Export, cfg Config, contentCSS string) error {
	s := slots{
		Lang:       cfg.InitialLocale,
		Title:      book.Metadata.Title,
		ContentCSS: document.EscapeStyle(contentCSS),
		LayoutCSS:  document.EscapeStyle(LayoutCSS),
	}
	if len(s.Lang) == 0 || strings.ContainsAny(s.Lang, `"<>& `) {
		s.Lang = "en"
	}
	if len(s.Title) == 0 {
		s.Title = "Book Reader"
	}

	locales := make([]localeName, 0, len(locale.Supported))
	for _, id := range locale.Supported {
		locales = append(locales, localeName{ID: id, Name: locale.Name(id)})
	}

	var err error
	for _, f := range []struct {
		dst *string
		v   any
	}{
		{&s.BookJSON, book},
		{&s.I18nJSON, locale.WebAppTranslations()},
		{&s.ConfigJSON, cfg},
		{&s.FontsJSON, Fonts},
		{&s.LocalesJSON, locales},
	} {
		if *f.dst, err = scriptJSON(f.v); err != nil {
			return err
		}
	}

	if err := reader.Execute(w, &s); err != nil {
		return fmt.Errorf("unable to generate reader: %w", err)
	}
	return nil
}
