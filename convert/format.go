package convert

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"epubx/config"
	"epubx/convert/document"
	"epubx/convert/layout"
	"epubx/convert/schema"
	"epubx/convert/transform"
	"epubx/convert/webapp"
	"epubx/epub"
)

// formatter is output format strategy, selected once per run.
type formatter interface {
	// renderChapter fills chapter content from raw chapter markup.
	renderChapter(r *run, ch *chapter, raw string) error
	// wrapDocument produces single file output.
	wrapDocument(r *run) ([]byte, error)
	// chapterFile produces i-th chapter file in split mode.
	chapterFile(r *run, i int) ([]byte, error)
	// buildIndex produces index file in split mode.
	buildIndex(r *run) ([]byte, error)
}

func newFormatter(format config.OutputFmt) formatter {
	switch format {
	case config.OutputFmtJson:
		return &structuredFormat{}
	case config.OutputFmtWebapp:
		return &structuredFormat{reader: true}
	default:
		return &documentFormat{format: format}
	}
}

// documentFormat handles txt, md and html output.
type documentFormat struct {
	format config.OutputFmt
}

func (d *documentFormat) postOptions(r *run) transform.PostOptions {
	return transform.PostOptions{
		EmDashToHyphen:     r.opts.Text.EmDashToHyphen,
		SanitizeWhitespace: r.opts.Text.SanitizeWhitespace,
		Newlines:           r.opts.Text.Newlines,
	}
}

// imageRewriter points img elements to extracted files.
func (d *documentFormat) imageRewriter(r *run, ch *chapter) transform.ImageRewriter {
	return func(src string) (transform.ImageAction, string) {
		img, ok := r.images.resolve(ch.href, src)
		if !ok {
			return transform.ImageKeep, ""
		}
		return transform.ImageSetSource, layout.ImageRef(img.name, r.split)
	}
}

// body returns chapter body with images either rewritten or removed.
func (d *documentFormat) body(r *run, ch *chapter, raw string) (string, error) {
	body, err := transform.ExtractBody(raw)
	if err != nil {
		return "", err
	}
	if r.images == nil {
		return transform.RemoveImages(body)
	}
	return transform.RewriteImages(body, d.imageRewriter(r, ch))
}

// anchored reports whether chapter headings need ids for in-document table
// of contents.
func (d *documentFormat) anchored(r *run) bool {
	return !r.split && r.opts.TOC.ChaptersTOC && d.format != config.OutputFmtTxt
}

func (d *documentFormat) heading(r *run, ch *chapter) string {
	num := ch.flow + 1
	switch d.format {
	case config.OutputFmtMd:
		return document.MarkdownHeading(ch.label, d.anchored(r))
	case config.OutputFmtHtml:
		return document.HTMLHeading(ch.label, d.anchored(r))
	}
	if r.opts.ChapterTitles.StyleTxt == config.TitleStyleInline || len(ch.title) == 0 {
		return ch.label
	}
	return r.loc.FormatChapter(num, "") + "\n\n" + ch.title
}

func (d *documentFormat) renderChapter(r *run, ch *chapter, raw string) error {
	ch.label = r.loc.FormatChapter(ch.flow+1, ch.title)

	var content string
	switch d.format {
	case config.OutputFmtTxt:
		content = transform.ApplyPostOptions(transform.ToParagraphText(raw), d.postOptions(r))
	case config.OutputFmtMd:
		body, err := d.body(r, ch, raw)
		if err != nil {
			return err
		}
		md, err := transform.ToMarkdown(body)
		if err != nil {
			return err
		}
		if r.images == nil {
			md = transform.RemoveMarkdownImages(md)
		}
		content = transform.ApplyPostOptions(transform.DecodeEntities(md), d.postOptions(r))
	case config.OutputFmtHtml:
		body, err := d.body(r, ch, raw)
		if err != nil {
			return err
		}
		content = body
	default:
		return fmt.Errorf("unsupported document format %q", d.format)
	}

	if r.opts.ChapterTitles.Enable || d.anchored(r) {
		content = d.heading(r, ch) + "\n\n" + content
	}
	ch.content = content
	return nil
}

func (d *documentFormat) list(title string, links []document.Link) string {
	switch d.format {
	case config.OutputFmtMd:
		return document.MarkdownList(title, links)
	case config.OutputFmtHtml:
		return document.HTMLList(title, links)
	default:
		return document.TextList(title, links)
	}
}

// bookTOC returns list of book navigation titles, only kept for complete
// single file output.
func (d *documentFormat) bookTOC(r *run) string {
	if !r.opts.TOC.Keep || r.split || len(r.req.Chapters) > 0 {
		return ""
	}
	var links []document.Link
	for _, e := range r.book.TOC() {
		if title := strings.TrimSpace(e.Title); len(title) > 0 {
			links = append(links, document.Link{Label: title})
		}
	}
	if len(links) == 0 {
		return ""
	}
	return d.list(r.loc.Export.TableOfContents, links)
}

func (d *documentFormat) finish(r *run, title, body string) []byte {
	if note := r.footer(); len(note) > 0 {
		body += document.Footer(d.format, note)
	}
	if d.format == config.OutputFmtHtml {
		body = document.Wrap(title, body, r.loc.ID, &r.opts.HTML, r.style)
	}
	return []byte(body)
}

func (d *documentFormat) documentTitle(r *run) string {
	if title := strings.TrimSpace(r.book.Metadata().Title); len(title) > 0 {
		return title
	}
	return r.basename
}

func (d *documentFormat) wrapDocument(r *run) ([]byte, error) {
	parts := make([]string, 0, len(r.chapters)+2)
	if d.anchored(r) && len(r.chapters) > 0 {
		links := make([]document.Link, 0, len(r.chapters))
		for _, ch := range r.chapters {
			links = append(links, document.Link{Label: ch.label, Target: document.AnchorTarget(ch.label)})
		}
		parts = append(parts, d.list(r.loc.Export.TableOfContents, links))
	}
	if toc := d.bookTOC(r); len(toc) > 0 {
		parts = append(parts, toc)
	}
	for _, ch := range r.chapters {
		parts = append(parts, ch.content)
	}
	return d.finish(r, d.documentTitle(r), strings.Join(parts, "\n\n")), nil
}

func (d *documentFormat) nav(r *run, i int) document.Nav {
	var nav document.Nav
	split := r.opts.Split
	if split.PrevNext && i > 0 {
		nav.Prev = document.Link{Label: r.loc.Export.Previous, Target: r.chapterFileName(r.chapters[i-1].seq)}
	}
	if split.PrevNext && i < len(r.chapters)-1 {
		nav.Next = document.Link{Label: r.loc.Export.Next, Target: r.chapterFileName(r.chapters[i+1].seq)}
	}
	// index of html output is always a list of links
	if split.BackLink && (split.IndexTOC || d.format == config.OutputFmtHtml) {
		nav.Back = document.Link{Label: r.loc.Export.TOCLink, Target: "../" + r.basename + d.format.Ext()}
	}
	return nav
}

func (d *documentFormat) chapterFile(r *run, i int) ([]byte, error) {
	ch := r.chapters[i]
	content := ch.content
	if nav := d.nav(r, i); !nav.Empty() {
		switch d.format {
		case config.OutputFmtMd:
			content += "\n\n" + document.MarkdownNav(nav) + "\n"
		case config.OutputFmtHtml:
			content += "\n" + document.HTMLNav(nav) + "\n"
		default:
			content += "\n\n" + document.TextNav(nav) + "\n"
		}
	}
	return d.finish(r, ch.label, content), nil
}

func (d *documentFormat) buildIndex(r *run) ([]byte, error) {
	linked := r.opts.Split.IndexTOC || d.format == config.OutputFmtHtml
	links := make([]document.Link, 0, len(r.chapters))
	for _, ch := range r.chapters {
		l := document.Link{Label: ch.label}
		if linked {
			l.Target = layout.ChapterRef(r.chapterFileName(ch.seq))
		}
		links = append(links, l)
	}
	body := d.list(r.loc.Export.TableOfContents, links)
	if d.format != config.OutputFmtHtml {
		body += "\n"
	}
	return d.finish(r, d.documentTitle(r), body), nil
}

// structuredFormat handles json output and reader application.
type structuredFormat struct {
	reader bool
}

func (s *structuredFormat) renderChapter(r *run, ch *chapter, raw string) error {
	body, err := transform.ExtractBody(raw)
	if err != nil {
		return err
	}
	if r.images == nil {
		body, err = transform.RemoveImages(body)
	} else {
		body, err = transform.RewriteImages(body, func(src string) (transform.ImageAction, string) {
			img, ok := r.images.resolve(ch.href, src)
			if !ok {
				return transform.ImageKeep, ""
			}
			return transform.ImageReplaceWithText, schema.Placeholder(img.id)
		})
	}
	if err != nil {
		return err
	}

	ch.id = schema.ChapterIDPrefix + uuid.NewString()
	ch.label = ch.title
	if len(ch.label) == 0 {
		ch.label = r.loc.FormatChapter(ch.seq, "")
	}
	if s.reader && r.opts.ChapterTitles.Enable {
		body = document.HTMLHeading(r.loc.FormatChapter(ch.seq, ch.title), false) + "\n\n" + body
	}
	ch.content = body
	return nil
}

// toc maps book navigation to processed chapters. Entry matches the first
// flow item with the same document or manifest id, entries of chapters which
// were not processed are dropped. Without book navigation every chapter gets
// an entry.
func (s *structuredFormat) toc(r *run) []schema.TOCEntry {
	res := []schema.TOCEntry{}
	entries := r.book.TOC()
	if len(entries) == 0 {
		for i, ch := range r.chapters {
			title := ch.title
			if len(title) == 0 {
				title = r.loc.FormatChapter(i+1, "")
			}
			res = append(res, schema.TOCEntry{
				ID:        schema.TOCIDPrefix + uuid.NewString(),
				Title:     title,
				Order:     schema.IntPtr(i + 1),
				ChapterID: ch.id,
			})
		}
		return res
	}

	byFlow := make(map[int]string, len(r.chapters))
	for _, ch := range r.chapters {
		byFlow[ch.flow] = ch.id
	}
	flow := r.book.Flow()
	for i, e := range entries {
		chapterID, ok := byFlow[matchFlow(flow, e)]
		if !ok {
			continue
		}
		title := strings.TrimSpace(e.Title)
		if len(title) == 0 {
			title = r.loc.FormatChapter(i+1, "")
		}
		order := e.Order
		if order <= 0 {
			order = i + 1
		}
		res = append(res, schema.TOCEntry{
			ID:        schema.TOCIDPrefix + uuid.NewString(),
			Title:     title,
			Level:     schema.IntPtr(e.Level),
			Order:     schema.IntPtr(order),
			ChapterID: chapterID,
		})
	}
	return res
}

func matchFlow(flow []epub.FlowItem, e epub.TOCEntry) int {
	href := e.Href
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	for i, f := range flow {
		if (len(href) > 0 && f.Href == href) || (len(e.ID) > 0 && f.ID == e.ID) {
			return i
		}
	}
	return -1
}

func (s *structuredFormat) export(r *run, inline bool) *schema.Export {
	book := schema.New(r.book.Metadata())
	book.TOC = s.toc(r)
	for _, ch := range r.chapters {
		rec := schema.Chapter{ID: ch.id, Index: ch.seq, Title: ch.label}
		if inline {
			rec.Content = ch.content
		} else {
			rec.File = layout.ChapterRef(r.chapterFileName(ch.seq))
		}
		book.Chapters = append(book.Chapters, rec)
	}
	book.Images = r.images.export()
	return book
}

func (s *structuredFormat) wrapDocument(r *run) ([]byte, error) {
	book := s.export(r, true)
	buf := new(bytes.Buffer)
	if !s.reader {
		if err := schema.Encode(buf, book); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	var css string
	if r.opts.HTML.Style == config.HTMLStyleStyled && r.style != nil {
		css = webapp.ContentCSS(r.style)
	}
	cfg := webapp.Config{InitialLocale: r.loc.ID, ChapterNewPage: r.opts.WebApp.ChapterNewPage}
	if err := webapp.Build(buf, book, cfg, css); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *structuredFormat) chapterFile(r *run, i int) ([]byte, error) {
	ch := r.chapters[i]
	buf := new(bytes.Buffer)
	if err := schema.Encode(buf, &schema.Chapter{ID: ch.id, Index: ch.seq, Title: ch.label, Content: ch.content}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *structuredFormat) buildIndex(r *run) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := schema.Encode(buf, s.export(r, false)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
