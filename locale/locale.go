// Package locale provides localized strings for generated documents and for
// the reader application.
package locale

import (
	"bytes"
	_ "embed"
	"fmt"
	"maps"
	"strconv"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"golang.org/x/text/language"
	yaml "gopkg.in/yaml.v3"

	"epubx/misc"
)

//go:embed strings.yaml
var stringsData []byte

// DefaultLabelTemplate is used when no chapter label template is configured.
const DefaultLabelTemplate = `{{ .Label }} {{ .Number }}{{ if .Title }}: {{ .Title }}{{ end }}`

const fallbackID = "en"

// Supported lists locale ids in the order they are offered to the reader.
var Supported = []string{"en", "pl", "de", "fr", "es", "it", "pt", "ru", "zh", "ja"}

// ExportStrings are used in generated documents.
type ExportStrings struct {
	Chapter         string `yaml:"chapter"`
	TableOfContents string `yaml:"table_of_contents"`
	TOCLink         string `yaml:"toc_link"`
	Previous        string `yaml:"previous"`
	Next            string `yaml:"next"`
	Footer          string `yaml:"footer"`
}

type table struct {
	Name   string            `yaml:"name"`
	Export ExportStrings     `yaml:"export"`
	WebApp map[string]string `yaml:"webapp"`
}

var (
	tables  map[string]*table
	matcher language.Matcher
)

func init() {
	dec := yaml.NewDecoder(bytes.NewReader(stringsData))
	dec.KnownFields(true)
	if err := dec.Decode(&tables); err != nil {
		panic(fmt.Sprintf("bad embedded locale data: %v", err))
	}

	en := tables[fallbackID]
	tags := make([]language.Tag, 0, len(Supported))
	for _, id := range Supported {
		t, ok := tables[id]
		if !ok {
			panic(fmt.Sprintf("locale %q missing from embedded data", id))
		}
		if id != fallbackID {
			t.Export = mergeExport(t.Export, en.Export)
			web := maps.Clone(en.WebApp)
			maps.Copy(web, t.WebApp)
			t.WebApp = web
		}
		tags = append(tags, language.MustParse(id))
	}
	matcher = language.NewMatcher(tags)
}

func mergeExport(s, def ExportStrings) ExportStrings {
	pick := func(v, d string) string {
		if len(v) == 0 {
			return d
		}
		return v
	}
	return ExportStrings{
		Chapter:         pick(s.Chapter, def.Chapter),
		TableOfContents: pick(s.TableOfContents, def.TableOfContents),
		TOCLink:         pick(s.TOCLink, def.TOCLink),
		Previous:        pick(s.Previous, def.Previous),
		Next:            pick(s.Next, def.Next),
		Footer:          pick(s.Footer, def.Footer),
	}
}

// Match returns supported locale id closest to requested BCP 47 tag. English
// is returned when nothing matches.
func Match(requested string) string {
	tag, err := language.Parse(requested)
	if err != nil {
		return fallbackID
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return fallbackID
	}
	return Supported[idx]
}

// Locale is a resolved set of strings together with chapter label template.
type Locale struct {
	ID     string
	Export ExportStrings

	label *template.Template
}

type labelValues struct {
	Label  string
	Number int
	Title  string
}

// New returns locale best matching requested tag. Empty labelTemplate selects
// default label format.
func New(requested, labelTemplate string) (*Locale, error) {
	if len(labelTemplate) == 0 {
		labelTemplate = DefaultLabelTemplate
	}
	tmpl, err := template.New("label_template").Funcs(sprig.FuncMap()).Parse(labelTemplate)
	if err != nil {
		return nil, fmt.Errorf("unable to parse chapter label template: %w", err)
	}
	id := Match(requested)
	return &Locale{ID: id, Export: tables[id].Export, label: tmpl}, nil
}

// FormatChapter returns display label for chapter number n. Title may be
// empty.
func (l *Locale) FormatChapter(n int, title string) string {
	buf := new(bytes.Buffer)
	if err := l.label.Execute(buf, &labelValues{Label: l.Export.Chapter, Number: n, Title: title}); err == nil && buf.Len() > 0 {
		return buf.String()
	}
	res := l.Export.Chapter + " " + strconv.Itoa(n)
	if len(title) > 0 {
		res += ": " + title
	}
	return res
}

// Footer returns extraction note.
func (l *Locale) Footer() string {
	return fmt.Sprintf(l.Export.Footer, misc.GetAppName())
}

// Name returns native name of the locale.
func Name(id string) string {
	if t, ok := tables[id]; ok {
		return t.Name
	}
	return id
}

// WebAppTranslations returns reader strings for all supported locales, keyed
// by locale id. Missing entries are filled from English.
func WebAppTranslations() map[string]map[string]string {
	res := make(map[string]map[string]string, len(Supported))
	for _, id := range Supported {
		res[id] = maps.Clone(tables[id].WebApp)
	}
	return res
}
