package convert

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"epubx/config"
	"epubx/convert/layout"
	"epubx/convert/schema"
	"epubx/epub"
	"epubx/epub/epubtest"
)

func testLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller()))
}

// defaultOptions returns document options from embedded configuration.
func defaultOptions(t *testing.T) *config.DocumentConfig {
	t.Helper()
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return &cfg.Document
}

// sampleBook has three chapters, the first and the last one show the same
// picture.
func sampleBook() *epubtest.Book {
	return &epubtest.Book{
		Title:    "Sample",
		Creator:  "Jane Doe",
		Language: "en",
		Chapters: []epubtest.Chapter{
			{ID: "c1", Href: "text/ch1.xhtml", Title: "Beginning", Body: `<h1>Beginning</h1><p>One</p><p><img src="../images/pic.png" alt="pic"/></p>`},
			{ID: "c2", Href: "text/ch2.xhtml", Title: "Middle", Body: `<p>Two</p>`},
			{ID: "c3", Href: "text/ch3.xhtml", Title: "End", Body: `<p>Three</p><p><img src="../images/pic.png" alt="again"/></p>`},
		},
		Resources: []epubtest.Resource{
			{ID: "pic", Href: "images/pic.png", MediaType: "image/png", Data: epubtest.PNG()},
		},
	}
}

func writeBook(t *testing.T, b *epubtest.Book) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.epub")
	if err := b.Write(path); err != nil {
		t.Fatalf("write epub: %v", err)
	}
	return path
}

func convertSample(t *testing.T, format config.OutputFmt, opts *config.DocumentConfig, chapters ...int) (*Result, string) {
	t.Helper()
	out := t.TempDir()
	res, err := Convert(context.Background(), Request{
		Source:    writeBook(t, sampleBook()),
		Format:    format,
		Options:   opts,
		OutputDir: out,
		Chapters:  chapters,
	}, testLogger(t))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	return res, out
}

func readString(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestSelectIndices(t *testing.T) {
	tests := []struct {
		name      string
		requested []int
		n         int
		want      []int
	}{
		{"all", nil, 5, []int{0, 1, 2, 3, 4}},
		{"subset sorted", []int{2, 5, 1}, 5, []int{0, 1, 4}},
		{"out of range", []int{0, 6}, 5, []int{}},
		{"duplicates", []int{3, 3, 1}, 5, []int{0, 2}},
		{"empty book", nil, 0, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := selectIndices(tt.requested, tt.n); !slices.Equal(got, tt.want) {
				t.Errorf("selectIndices(%v, %d) = %v, want %v", tt.requested, tt.n, got, tt.want)
			}
		})
	}
}

func TestMarkdownSingleFile(t *testing.T) {
	opts := defaultOptions(t)
	opts.IncludeImages = true

	res, out := convertSample(t, config.OutputFmtMd, opts)

	bookDir := filepath.Join(out, "sample")
	if res.OutputDir != bookDir || res.OutputPath != filepath.Join(bookDir, "sample.md") {
		t.Errorf("unexpected result paths: %+v", res)
	}
	if res.TotalChapters != 3 {
		t.Errorf("TotalChapters = %d, want 3", res.TotalChapters)
	}

	images := dirNames(t, filepath.Join(bookDir, layout.ImagesDir))
	if !slices.Equal(images, []string{"pic.png"}) {
		t.Errorf("expected single extracted image, got %v", images)
	}

	md := readString(t, res.OutputPath)
	if n := strings.Count(md, "](__img__/pic.png)"); n != 2 {
		t.Errorf("expected 2 references to the same image, got %d\n%s", n, md)
	}
	one, two, three := strings.Index(md, "One"), strings.Index(md, "Two"), strings.Index(md, "Three")
	if one < 0 || two < one || three < two {
		t.Errorf("chapter bodies missing or out of order:\n%s", md)
	}
	if !strings.Contains(md, "### Chapter 2: Middle\n\nTwo") {
		t.Errorf("chapter heading missing:\n%s", md)
	}
	if !strings.Contains(md, "Two\n\n### Chapter 3: End") {
		t.Errorf("chapters must be separated by blank line:\n%s", md)
	}
	if !strings.HasSuffix(md, "*Extracted from EPUB with epubx*\n") {
		t.Errorf("footer missing:\n%s", md)
	}
}

func TestImagesExcluded(t *testing.T) {
	for _, format := range []config.OutputFmt{config.OutputFmtMd, config.OutputFmtHtml, config.OutputFmtJson} {
		t.Run(format.String(), func(t *testing.T) {
			opts := defaultOptions(t)
			opts.IncludeImages = false

			res, _ := convertSample(t, format, opts)

			if _, err := os.Stat(filepath.Join(res.OutputDir, layout.ImagesDir)); !os.IsNotExist(err) {
				t.Error("images directory must not be created")
			}
			out := readString(t, res.OutputPath)
			for _, absent := range []string{"pic.png", "<img", `"images"`} {
				if strings.Contains(out, absent) {
					t.Errorf("unexpected %q in output", absent)
				}
			}
		})
	}
}

func TestTextOutput(t *testing.T) {
	tests := []struct {
		name  string
		style config.TitleStyle
		want  string
	}{
		{"separated", config.TitleStyleSeparated, "Chapter 1\n\nBeginning\n\nBeginning\n\nOne"},
		{"inline", config.TitleStyleInline, "Chapter 1: Beginning\n\nBeginning\n\nOne"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultOptions(t)
			opts.IncludeImages = true
			opts.ChapterTitles.StyleTxt = tt.style

			res, _ := convertSample(t, config.OutputFmtTxt, opts)

			txt := readString(t, res.OutputPath)
			if !strings.HasPrefix(txt, tt.want) {
				t.Errorf("unexpected text start:\n%q", txt)
			}
			if _, err := os.Stat(filepath.Join(res.OutputDir, layout.ImagesDir)); !os.IsNotExist(err) {
				t.Error("plain text never extracts images")
			}
		})
	}
}

func TestSplitMode(t *testing.T) {
	opts := defaultOptions(t)
	opts.IncludeImages = true
	opts.Split.Enable = true

	res, _ := convertSample(t, config.OutputFmtMd, opts, 3, 1)

	if res.TotalChapters != 2 {
		t.Fatalf("TotalChapters = %d, want 2", res.TotalChapters)
	}
	files := dirNames(t, filepath.Join(res.OutputDir, layout.ChaptersDir))
	if !slices.Equal(files, []string{"sample-chapter-1.md", "sample-chapter-2.md"}) {
		t.Fatalf("unexpected chapter files: %v", files)
	}

	index := readString(t, res.OutputPath)
	var entries []string
	for line := range strings.SplitSeq(index, "\n") {
		if strings.HasPrefix(line, "- ") {
			entries = append(entries, line)
		}
	}
	want := []string{
		"- [Chapter 1: Beginning](chapters/sample-chapter-1.md)",
		"- [Chapter 3: End](chapters/sample-chapter-2.md)",
	}
	if !slices.Equal(entries, want) {
		t.Errorf("index entries = %q, want %q", entries, want)
	}

	first := readString(t, filepath.Join(res.OutputDir, layout.ChaptersDir, "sample-chapter-1.md"))
	if !strings.Contains(first, "](../__img__/pic.png)") {
		t.Errorf("chapter file must reference images one level up:\n%s", first)
	}
	if !strings.Contains(first, "[Table of contents](../sample.md) | [Next](sample-chapter-2.md)") {
		t.Errorf("navigation missing:\n%s", first)
	}
	last := readString(t, filepath.Join(res.OutputDir, layout.ChaptersDir, "sample-chapter-2.md"))
	if !strings.Contains(last, "[Previous](sample-chapter-1.md) | [Table of contents](../sample.md)") || strings.Contains(last, "[Next]") {
		t.Errorf("unexpected navigation:\n%s", last)
	}
}

func TestSplitNaming(t *testing.T) {
	tests := []struct {
		style  config.FileNameStyle
		prefix string
		want   string
	}{
		{config.FileNameStyleSame, "", "sample-chapter-2.html"},
		{config.FileNameStyleChapter, "", "chapter-2.html"},
		{config.FileNameStyleCustom, "part:", "part2.html"},
	}
	for _, tt := range tests {
		t.Run(tt.style.String(), func(t *testing.T) {
			opts := defaultOptions(t)
			opts.Split.Enable = true
			opts.Split.FileNameStyle = tt.style
			opts.Split.CustomPrefix = tt.prefix

			res, _ := convertSample(t, config.OutputFmtHtml, opts)

			files := dirNames(t, filepath.Join(res.OutputDir, layout.ChaptersDir))
			if len(files) != 3 || !slices.Contains(files, tt.want) {
				t.Errorf("chapter files = %v, want 3 including %q", files, tt.want)
			}
			index := readString(t, res.OutputPath)
			if !strings.Contains(index, `href="chapters/`+tt.want+`"`) {
				t.Errorf("index does not link %q", tt.want)
			}
		})
	}
}

var (
	reHTMLAnchorLink = regexp.MustCompile(`href="#([^"]+)"`)
	reMDAnchorLink   = regexp.MustCompile(`\]\(#([^)]+)\)`)
)

func TestChaptersTOCAnchors(t *testing.T) {
	tests := []struct {
		format config.OutputFmt
		link   *regexp.Regexp
		anchor func(id string) string
	}{
		{config.OutputFmtHtml, reHTMLAnchorLink, func(id string) string { return `<h3 id="` + id + `">` }},
		{config.OutputFmtMd, reMDAnchorLink, func(id string) string { return `<a id="` + id + `"></a>` }},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			opts := defaultOptions(t)
			opts.TOC.ChaptersTOC = true
			opts.ChapterTitles.Enable = false

			res, _ := convertSample(t, tt.format, opts)

			out := readString(t, res.OutputPath)
			links := tt.link.FindAllStringSubmatch(out, -1)
			if len(links) != 3 {
				t.Fatalf("expected 3 anchor links, got %d:\n%s", len(links), out)
			}
			for _, m := range links {
				if !strings.Contains(out, tt.anchor(m[1])) {
					t.Errorf("link #%s has no matching heading", m[1])
				}
			}
		})
	}
}

func TestKeepBookTOC(t *testing.T) {
	opts := defaultOptions(t)
	opts.TOC.Keep = true

	res, _ := convertSample(t, config.OutputFmtTxt, opts)
	if txt := readString(t, res.OutputPath); !strings.HasPrefix(txt, "Table of contents\n\nBeginning\nMiddle\nEnd\n\n") {
		t.Errorf("book navigation not kept:\n%q", txt)
	}

	// subset of chapters does not get complete book navigation
	res, _ = convertSample(t, config.OutputFmtTxt, opts, 2)
	if txt := readString(t, res.OutputPath); strings.Contains(txt, "Table of contents") {
		t.Errorf("book navigation kept for subset:\n%q", txt)
	}
}

func TestStyledHTML(t *testing.T) {
	opts := defaultOptions(t)
	opts.HTML.Style = config.HTMLStyleStyled

	res, _ := convertSample(t, config.OutputFmtHtml, opts)
	out := readString(t, res.OutputPath)
	for _, want := range []string{"<!DOCTYPE html>", "<title>Sample</title>", `<body class="epub-x-body">`, "<h3>Chapter 1: Beginning</h3>", `<p class="extraction-footer">`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output", want)
		}
	}
	if strings.Contains(out, "p { margin: 0; }") {
		t.Error("book styles must not leak into output")
	}
}

func decodeExport(t *testing.T, path string) *schema.Export {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var book schema.Export
	if err := json.Unmarshal(data, &book); err != nil {
		t.Fatalf("unable to decode %s: %v", path, err)
	}
	return &book
}

func TestJSON(t *testing.T) {
	opts := defaultOptions(t)
	opts.IncludeImages = true

	res, _ := convertSample(t, config.OutputFmtJson, opts)
	book := decodeExport(t, res.OutputPath)

	if book.Version != schema.Version || book.Metadata.Title != "Sample" || book.Metadata.Creator != "Jane Doe" {
		t.Errorf("unexpected header: %+v", book.Metadata)
	}
	if len(book.Chapters) != 3 || len(book.TOC) != 3 || len(book.Images) != 1 {
		t.Fatalf("unexpected shape: %d chapters, %d toc entries, %d images", len(book.Chapters), len(book.TOC), len(book.Images))
	}

	var imageID string
	for id, img := range book.Images {
		imageID = id
		if !strings.HasPrefix(id, schema.ImageIDPrefix) || img.URL != "__img__/pic.png" {
			t.Errorf("unexpected image %q: %+v", id, img)
		}
	}
	for i, ch := range book.Chapters {
		if !strings.HasPrefix(ch.ID, schema.ChapterIDPrefix) || ch.Index != i+1 {
			t.Errorf("unexpected chapter record: %+v", ch)
		}
		if book.TOC[i].ChapterID != ch.ID || !strings.HasPrefix(book.TOC[i].ID, schema.TOCIDPrefix) {
			t.Errorf("toc entry %d does not point to chapter: %+v", i, book.TOC[i])
		}
		if strings.Contains(ch.Content, "<img") {
			t.Errorf("image tag left in chapter %d", i+1)
		}
	}
	placeholder := schema.Placeholder(imageID)
	if !strings.Contains(book.Chapters[0].Content, placeholder) || !strings.Contains(book.Chapters[2].Content, placeholder) {
		t.Error("chapters must reference the same image placeholder")
	}
	if book.Chapters[1].Title != "Middle" {
		t.Errorf("chapter title = %q", book.Chapters[1].Title)
	}
}

func TestJSONSplit(t *testing.T) {
	opts := defaultOptions(t)
	opts.Split.Enable = true

	res, _ := convertSample(t, config.OutputFmtJson, opts, 2, 3)
	book := decodeExport(t, res.OutputPath)

	if len(book.Chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(book.Chapters))
	}
	// only entries of processed chapters are kept
	if len(book.TOC) != 2 || book.TOC[0].Title != "Middle" || book.TOC[1].Title != "End" {
		t.Errorf("unexpected toc: %+v", book.TOC)
	}
	for _, ch := range book.Chapters {
		if len(ch.Content) != 0 || !strings.HasPrefix(ch.File, "chapters/") {
			t.Errorf("index must reference chapter files: %+v", ch)
		}
		rec, err := os.ReadFile(filepath.Join(res.OutputDir, filepath.FromSlash(ch.File)))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(rec), `"id": "`+ch.ID+`"`) || !strings.Contains(string(rec), `"content":`) {
			t.Errorf("unexpected chapter file:\n%s", rec)
		}
	}
}

func TestJSONImageOnlyChapter(t *testing.T) {
	b := sampleBook()
	b.Chapters[1].Body = `<img src="../images/pic.png"/>`
	out := t.TempDir()
	res, err := Convert(context.Background(), Request{
		Source:    writeBook(t, b),
		Format:    config.OutputFmtJson,
		Options:   defaultOptions(t),
		OutputDir: out,
	}, testLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	data := readString(t, res.OutputPath)
	if n := strings.Count(data, `"content":`); n != 3 {
		t.Errorf("every inline chapter must carry content, got %d for 3 chapters:\n%s", n, data)
	}
}

func TestJSONWithoutNavigation(t *testing.T) {
	b := sampleBook()
	b.NoTOC = true
	out := t.TempDir()
	res, err := Convert(context.Background(), Request{
		Source:    writeBook(t, b),
		Format:    config.OutputFmtJson,
		Options:   defaultOptions(t),
		OutputDir: out,
	}, testLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	book := decodeExport(t, res.OutputPath)
	if len(book.TOC) != 3 {
		t.Fatalf("expected entry per chapter, got %d", len(book.TOC))
	}
	for i, e := range book.TOC {
		want := "Chapter " + string(rune('1'+i))
		if e.Title != want || *e.Order != i+1 || e.ChapterID != book.Chapters[i].ID {
			t.Errorf("toc[%d] = %+v, want title %q", i, e, want)
		}
	}
}

func TestWebApp(t *testing.T) {
	opts := defaultOptions(t)
	opts.IncludeImages = true
	opts.Split.Enable = true

	res, _ := convertSample(t, config.OutputFmtWebapp, opts)

	if res.OutputPath != filepath.Join(res.OutputDir, "sample.html") {
		t.Errorf("unexpected output path %q", res.OutputPath)
	}
	if _, err := os.Stat(filepath.Join(res.OutputDir, layout.ChaptersDir)); !os.IsNotExist(err) {
		t.Error("reader is never split")
	}
	page := readString(t, res.OutputPath)
	for _, want := range []string{`id="book-data"`, `<h3>Chapter 1: Beginning</h3>`, "__img__/pic.png", ".reader-content"} {
		if !strings.Contains(page, want) {
			t.Errorf("expected %q in reader", want)
		}
	}
}

func TestFlatAndSubdir(t *testing.T) {
	src := writeBook(t, sampleBook())
	opts := defaultOptions(t)

	out := t.TempDir()
	res, err := Convert(context.Background(), Request{Source: src, Basename: "My/Book", Format: config.OutputFmtTxt, Options: opts, OutputDir: out, FormatSubdir: "txt"}, testLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	if res.OutputPath != filepath.Join(out, "MyBook", "txt", "MyBook.txt") {
		t.Errorf("unexpected output path %q", res.OutputPath)
	}

	flat := t.TempDir()
	res, err = Convert(context.Background(), Request{Source: src, Format: config.OutputFmtTxt, Options: opts, OutputDir: flat, Flat: true}, testLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	if res.OutputPath != filepath.Join(flat, "sample.txt") {
		t.Errorf("unexpected flat output path %q", res.OutputPath)
	}
}

func TestOpenFailure(t *testing.T) {
	src := filepath.Join(t.TempDir(), "broken.epub")
	if err := os.WriteFile(src, []byte("not a zip"), 0644); err != nil {
		t.Fatal(err)
	}
	out := t.TempDir()
	_, err := Convert(context.Background(), Request{Source: src, Format: config.OutputFmtMd, Options: defaultOptions(t), OutputDir: out}, testLogger(t))

	var perr *epub.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if names := dirNames(t, out); len(names) != 0 {
		t.Errorf("nothing must be created on failure, found %v", names)
	}
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Convert(ctx, Request{Source: writeBook(t, sampleBook()), Format: config.OutputFmtMd, Options: defaultOptions(t), OutputDir: t.TempDir()}, testLogger(t))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestProgress(t *testing.T) {
	var calls [][2]int
	_, err := Convert(context.Background(), Request{
		Source:    writeBook(t, sampleBook()),
		Format:    config.OutputFmtTxt,
		Options:   defaultOptions(t),
		OutputDir: t.TempDir(),
		Progress:  func(done, total int) { calls = append(calls, [2]int{done, total}) },
	}, testLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(calls, [][2]int{{1, 3}, {2, 3}, {3, 3}}) {
		t.Errorf("progress calls = %v", calls)
	}
}

func TestConvertAll(t *testing.T) {
	src := writeBook(t, sampleBook())
	out := t.TempDir()
	opts := defaultOptions(t)
	opts.IncludeImages = true

	var reqs []Request
	for _, format := range []config.OutputFmt{config.OutputFmtMd, config.OutputFmtHtml, config.OutputFmtJson, config.OutputFmtWebapp} {
		reqs = append(reqs, Request{Source: src, Format: format, Options: opts, OutputDir: out, FormatSubdir: format.String()})
	}
	reqs = append(reqs, Request{Source: filepath.Join(out, "missing.epub"), Format: config.OutputFmtTxt, Options: opts, OutputDir: out})

	results, err := ConvertAll(context.Background(), reqs, testLogger(t))
	if err == nil {
		t.Error("expected error for missing source")
	}
	for i, res := range results[:4] {
		if res == nil {
			t.Fatalf("request %d failed", i)
		}
		if want := filepath.Join(out, "sample", reqs[i].Format.String()); res.OutputDir != want {
			t.Errorf("OutputDir = %q, want %q", res.OutputDir, want)
		}
		if _, err := os.Stat(res.OutputPath); err != nil {
			t.Error(err)
		}
	}
	if results[4] != nil {
		t.Error("failed request must not have result")
	}
}

func TestChapters(t *testing.T) {
	b := sampleBook()
	b.Chapters[1].Title = ""
	src := writeBook(t, b)

	tests := []struct {
		locale string
		want   []ChapterInfo
	}{
		{"en", []ChapterInfo{{1, "Beginning"}, {2, "Chapter 2"}, {3, "End"}}},
		{"pl", []ChapterInfo{{1, "Beginning"}, {2, "Rozdział 2"}, {3, "End"}}},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			got, err := Chapters(src, tt.locale, testLogger(t))
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Chapters() = %v, want %v", got, tt.want)
			}
		})
	}
}
