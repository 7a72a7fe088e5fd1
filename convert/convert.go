// Package convert turns EPUB books into plain text, Markdown, HTML, JSON or
// self-contained reader application.
package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"epubx/config"
	"epubx/convert/layout"
	"epubx/epub"
	"epubx/locale"
	"epubx/utils/images"
)

// Request describes single conversion.
type Request struct {
	// Source is path to EPUB file. When Data is set it is only used for
	// naming and logging.
	Source string
	// Data is EPUB content when book does not come from a file (archive
	// entry).
	Data []byte
	// Basename names output, base name of Source is used when empty.
	Basename string
	Format   config.OutputFmt
	Options  *config.DocumentConfig
	// Style is used for styled HTML and reader output, loaded from
	// Options.HTML.StylePath when nil.
	Style        *config.Style
	OutputDir    string
	FormatSubdir string
	Flat         bool
	// Chapters is 1-based subset of flow indices, empty means all.
	Chapters []int
	// Progress is called after every processed chapter.
	Progress func(done, total int)
}

// Result describes produced output.
type Result struct {
	OutputPath    string
	OutputDir     string
	TotalChapters int
	// Files lists everything written, main document first. Flat output
	// shares directory between books.
	Files []string
}

// chapter is converted flow item.
type chapter struct {
	seq     int    // 1-based position among processed chapters
	flow    int    // 0-based flow index
	href    string // archive path of the source document
	id      string // chap_<uuid>, structured formats only
	title   string // title from book navigation, may be empty
	label   string // display label
	content string
}

// run is state of single Convert call.
type run struct {
	req      *Request
	opts     *config.DocumentConfig
	style    *config.Style
	book     *epub.Book
	loc      *locale.Locale
	log      *zap.Logger
	dir      string
	basename string
	split    bool
	images   *imageStore
	chapters []chapter
	written  []string
}

// Convert converts single book. Only failure to open the book is fatal, problems
// with individual chapters and images are logged and skipped.
func Convert(ctx context.Context, req Request, log *zap.Logger) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := req.Options
	if opts == nil {
		cfg, err := config.LoadConfiguration("")
		if err != nil {
			return nil, fmt.Errorf("unable to load default configuration: %w", err)
		}
		opts = &cfg.Document
	}
	if !req.Format.IsValid() {
		return nil, fmt.Errorf("unsupported output format %q", req.Format)
	}

	style := req.Style
	if style == nil && opts.HTML.Style == config.HTMLStyleStyled && (req.Format == config.OutputFmtHtml || req.Format == config.OutputFmtWebapp) {
		var err error
		if style, err = config.LoadStyle(opts.HTML.StylePath); err != nil {
			return nil, err
		}
	}

	loc, err := locale.New(opts.Locale, opts.ChapterTitles.LabelTemplate)
	if err != nil {
		return nil, err
	}

	// Opening
	book, err := openBook(&req, log)
	if err != nil {
		return nil, err
	}
	defer book.Close()
	log.Debug("Book opened", zap.String("name", book.Name()), zap.String("version", book.Version()), zap.Int("flow", len(book.Flow())))

	name := req.Basename
	if len(name) == 0 {
		name = layout.BaseName(req.Source)
	}

	r := &run{
		req:      &req,
		opts:     opts,
		style:    style,
		book:     book,
		loc:      loc,
		log:      log,
		basename: layout.SanitizeBasename(name, opts.FileNameTransliterate),
		split:    opts.Split.Enable && req.Format != config.OutputFmtWebapp,
	}
	r.dir = layout.BookDir(req.OutputDir, r.basename, req.FormatSubdir, req.Flat)
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create output directory: %w", err)
	}
	if opts.IncludeImages && req.Format != config.OutputFmtTxt {
		r.images = newImageStore(book, filepath.Join(r.dir, layout.ImagesDir), req.Format.Structured(), imageOptions(&opts.Images), log)
	}

	f := newFormatter(req.Format)

	// Selecting
	flow := book.Flow()
	indices := selectIndices(req.Chapters, len(flow))

	// ExtractingChapter
	for n, i := range indices {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := flow[i]
		if len(item.ID) == 0 {
			log.Warn("Chapter has no manifest entry, skipping", zap.Int("index", i+1), zap.String("href", item.Href))
			continue
		}
		raw, err := book.ReadChapter(item.ID)
		if err != nil {
			log.Warn("Unable to read chapter, skipping", zap.Int("index", i+1), zap.String("id", item.ID), zap.Error(err))
			continue
		}
		ch := chapter{
			seq:   len(r.chapters) + 1,
			flow:  i,
			href:  item.Href,
			title: strings.TrimSpace(item.Title),
		}
		if err := f.renderChapter(r, &ch, string(raw)); err != nil {
			log.Warn("Unable to convert chapter, skipping", zap.Int("index", i+1), zap.String("id", item.ID), zap.Error(err))
			continue
		}
		r.chapters = append(r.chapters, ch)
		log.Debug("Chapter converted", zap.Int("index", i+1), zap.Int("done", n+1), zap.Int("total", len(indices)))
		if req.Progress != nil {
			req.Progress(n+1, len(indices))
		}
	}

	// Assembling and Writing
	mainPath := filepath.Join(r.dir, r.basename+req.Format.Ext())
	if r.split {
		if err := r.writeChapters(ctx, f); err != nil {
			return nil, err
		}
		data, err := f.buildIndex(r)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(mainPath, data, 0644); err != nil {
			return nil, fmt.Errorf("unable to write index: %w", err)
		}
	} else {
		data, err := f.wrapDocument(r)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(mainPath, data, 0644); err != nil {
			return nil, fmt.Errorf("unable to write output: %w", err)
		}
	}

	files := append([]string{mainPath}, r.written...)
	return &Result{
		OutputPath:    mainPath,
		OutputDir:     r.dir,
		TotalChapters: len(r.chapters),
		Files:         append(files, r.images.files()...),
	}, nil
}

func openBook(req *Request, log *zap.Logger) (*epub.Book, error) {
	if req.Data != nil {
		return epub.NewReader(bytes.NewReader(req.Data), int64(len(req.Data)), filepath.Base(req.Source), log)
	}
	return epub.Open(req.Source, log)
}

// imageOptions returns image processing options or nil when extracted images
// are copied unchanged.
func imageOptions(cfg *config.ImagesConfig) *images.Options {
	if !cfg.Optimize {
		return nil
	}
	return &images.Options{
		MaxWidth:              cfg.MaxWidth,
		JPEGQuality:           cfg.JPEGQuality,
		RasterizeSVG:          cfg.RasterizeSVG,
		SVGWidth:              cfg.SVGWidth,
		RemovePNGTransparency: cfg.RemovePNGTransparency,
	}
}

func (r *run) writeChapters(ctx context.Context, f formatter) error {
	dir := filepath.Join(r.dir, layout.ChaptersDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("unable to create chapters directory: %w", err)
	}
	for i := range r.chapters {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := f.chapterFile(r, i)
		if err != nil {
			return err
		}
		name := filepath.Join(dir, r.chapterFileName(r.chapters[i].seq))
		if err := os.WriteFile(name, data, 0644); err != nil {
			return fmt.Errorf("unable to write chapter: %w", err)
		}
		r.written = append(r.written, name)
	}
	return nil
}

func (r *run) chapterFileName(seq int) string {
	return layout.ChapterFileName(r.basename, seq, layout.Naming{
		Style:  r.opts.Split.FileNameStyle,
		Prefix: r.opts.Split.CustomPrefix,
	}, r.req.Format.Ext())
}

// footer returns extraction note for the format or empty string when
// disabled.
func (r *run) footer() string {
	if !r.opts.ExtractionFooter {
		return ""
	}
	return r.loc.Footer()
}

// selectIndices returns ascending deduplicated 0-based flow indices for
// 1-based request. Out of range values are dropped, empty request selects
// everything.
func selectIndices(requested []int, n int) []int {
	if len(requested) == 0 {
		res := make([]int, n)
		for i := range res {
			res[i] = i
		}
		return res
	}
	res := make([]int, 0, len(requested))
	for _, v := range requested {
		if v >= 1 && v <= n {
			res = append(res, v-1)
		}
	}
	slices.Sort(res)
	return slices.Compact(res)
}

// ConvertAll performs independent conversions concurrently. Results are in
// request order, failed conversions leave nil in their place.
func ConvertAll(ctx context.Context, reqs []Request, log *zap.Logger) ([]*Result, error) {
	results := make([]*Result, len(reqs))
	errs := make([]error, len(reqs))

	var wg sync.WaitGroup
	for i := range reqs {
		wg.Go(func() {
			res, err := Convert(ctx, reqs[i], log.With(zap.Stringer("format", reqs[i].Format)))
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", reqs[i].Format, err)
				return
			}
			results[i] = res
		})
	}
	wg.Wait()
	return results, multierr.Combine(errs...)
}

// ChapterInfo is a flow entry as presented to the user.
type ChapterInfo struct {
	Index int
	Title string
}

// Chapters lists book flow. Chapters without title get localized default
// label.
func Chapters(source, localeTag string, log *zap.Logger) ([]ChapterInfo, error) {
	loc, err := locale.New(localeTag, "")
	if err != nil {
		return nil, err
	}
	book, err := epub.Open(source, log)
	if err != nil {
		return nil, err
	}
	defer book.Close()

	flow := book.Flow()
	res := make([]ChapterInfo, 0, len(flow))
	for i, item := range flow {
		title := strings.TrimSpace(item.Title)
		if len(title) == 0 {
			title = loc.FormatChapter(i+1, "")
		}
		res = append(res, ChapterInfo{Index: i + 1, Title: title})
	}
	return res, nil
}
