package convert

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime/debug"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/term"

	"epubx/archive"
	"epubx/config"
	"epubx/convert/layout"
	"epubx/state"
	"epubx/storage"
)

// maxBookSize limits EPUB read from archive into memory.
const maxBookSize = 512 << 20

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.Formats = parseFormats(cmd.StringSlice("to"), log)
	if len(env.Formats) == 0 {
		return errors.New("no valid output format requested")
	}

	if env.Chapters, err = parseChapterList(cmd.String("chapters")); err != nil {
		return err
	}

	// command line has priority over configuration
	if cmd.IsSet("images") {
		env.Cfg.Document.IncludeImages = cmd.Bool("images")
	}
	if cmd.IsSet("split") {
		env.Cfg.Document.Split.Enable = cmd.Bool("split")
	}
	env.Flat, env.Overwrite, env.Publish = cmd.Bool("flat"), cmd.Bool("overwrite"), cmd.Bool("publish")

	if env.Cfg.Document.HTML.Style == config.HTMLStyleStyled {
		if env.Style, err = config.LoadStyle(env.Cfg.Document.HTML.StylePath); err != nil {
			return err
		}
	}

	if env.Publish {
		if env.Store, err = storage.NewAdapter(&env.Cfg.Publish); err != nil {
			return fmt.Errorf("unable to prepare publishing: %w", err)
		}
		defer func() {
			if er := env.Store.Close(); er != nil && err == nil {
				err = er
			}
		}()
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.Any("formats", env.Formats))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// parseFormats returns requested formats in order, unknown and duplicate
// entries are dropped. Values may be separated by commas.
func parseFormats(values []string, log *zap.Logger) []config.OutputFmt {
	var res []config.OutputFmt
	for _, v := range values {
		for name := range strings.SplitSeq(v, ",") {
			name = strings.TrimSpace(name)
			if len(name) == 0 {
				continue
			}
			format, err := config.ParseOutputFmt(name)
			if err != nil {
				log.Warn("Unknown output format requested, ignoring", zap.String("format", name), zap.Error(err))
				continue
			}
			if !slices.Contains(res, format) {
				res = append(res, format)
			}
		}
	}
	return res
}

// parseChapterList parses "1,3,5-7" into list of 1-based indices. Range
// bounds are checked against the book later.
// maxChapterNumber bounds chapter selection, ranges are cut there.
const maxChapterNumber = 100000

func parseChapterList(spec string) ([]int, error) {
	var res []int
	for part := range strings.SplitSeq(spec, ",") {
		part = strings.TrimSpace(part)
		if len(part) == 0 {
			continue
		}
		from, to, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("bad chapter number %q: %w", part, err)
		}
		last := first
		if isRange {
			if last, err = strconv.Atoi(strings.TrimSpace(to)); err != nil {
				return nil, fmt.Errorf("bad chapter range %q: %w", part, err)
			}
			if last < first {
				return nil, fmt.Errorf("bad chapter range %q: end is before start", part)
			}
		}
		if first < 1 || first > maxChapterNumber {
			return nil, fmt.Errorf("bad chapter number %q: must be between 1 and %d", part, maxChapterNumber)
		}
		last = min(last, maxChapterNumber)
		for n := first; n <= last; n++ {
			res = append(res, n)
		}
	}
	return res, nil
}

// process handles the core conversion logic independently of CLI framework. It
// determines the input type (directory, archive, or single file) and processes
// accordingly.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, dst, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		book, err := isBookFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if book && len(tail) == 0 {
			if err := processBook(ctx, head, nil, filepath.Base(head), dst, log); err != nil {
				log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
			}
			break
		}

		arc, err := isArchiveFile(head)
		if err != nil {
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if arc {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := processArchive(ctx, head, filepath.ToSlash(tail), "", dst, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}
		return fmt.Errorf("input was not recognized as EPUB book (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir finds books and archives under directory and processes them in
// natural order of their paths.
func processDir(ctx context.Context, dir, dst string, log *zap.Logger) error {
	var paths []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if info.Mode().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.Sort(natural.StringSlice(paths))

	count := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))

		book, err := isBookFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if book {
			count++
			if err := processBook(ctx, path, nil, rel, dst, log); err != nil {
				log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			}
			continue
		}

		arc, err := isArchiveFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if !arc {
			log.Debug("Skipping file, not recognized as book or archive", zap.String("file", path))
			continue
		}
		count++
		if err := processArchive(ctx, path, "", filepath.Dir(rel), dst, log); err != nil {
			log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
		}
	}
	if count == 0 {
		log.Debug("Nothing to process", zap.String("dir", dir))
	}
	return nil
}

// processArchive walks all files inside archive, finds books under "pathIn"
// and processes them.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	return archive.Walk(path, pathIn, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		book, err := isBookInArchive(f)
		if err != nil {
			log.Warn("Skipping file in archive",
				zap.String("archive", arc), zap.String("path", f.Name), zap.Error(err))
			return nil
		}
		if !book {
			log.Debug("Skipping file, not recognized as book", zap.String("archive", arc), zap.String("file", f.Name))
			return nil
		}

		count++

		data, err := archive.ReadFile(f, maxBookSize)
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", f.Name), zap.Error(err))
			return nil
		}
		rel := filepath.Join(pathOut, filepath.FromSlash(f.Name))
		if err := processBook(ctx, filepath.Join(arc, filepath.FromSlash(f.Name)), data, rel, dst, log); err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", f.Name), zap.Error(err))
		}
		return nil
	})
}

// processBook converts single book to all requested formats. "src" names the
// book, "data" is its content when book was read from archive. "rel" is path
// of the book relative to processed source (always including file name), its
// directory part is kept on output unless flat output was requested.
func processBook(ctx context.Context, src string, data []byte, rel, dst string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var bookDir string

	log.Info("Conversion starting", zap.String("from", rel))
	defer func(start time.Time) {
		// if multiple books are being processed we do not want to stop.
		if r := recover(); r != nil {
			log.Error("Conversion ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", bookDir), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("conversion panic: %v", r)
		} else if rerr == nil {
			log.Info("Conversion completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", bookDir))
		}
	}(time.Now())

	outDir := dst
	if !env.Flat {
		outDir = filepath.Join(dst, filepath.Dir(rel))
	}
	name := layout.BaseName(rel)
	basename := layout.SanitizeBasename(name, env.Cfg.Document.FileNameTransliterate)
	bookDir = layout.BookDir(outDir, basename, "", env.Flat)

	// Check if output already exists
	if !env.Flat {
		if _, err := os.Stat(bookDir); err == nil {
			if !env.Overwrite {
				return fmt.Errorf("output directory already exists: %s", bookDir)
			}
			log.Warn("Overwriting existing directory", zap.String("dir", bookDir))
			if err = os.RemoveAll(bookDir); err != nil {
				return err
			}
		} else if !os.IsNotExist(err) {
			return err
		}
	}

	reqs := make([]Request, 0, len(env.Formats))
	for _, format := range env.Formats {
		req := Request{
			Source:    src,
			Data:      data,
			Basename:  name,
			Format:    format,
			Options:   &env.Cfg.Document,
			Style:     env.Style,
			OutputDir: outDir,
			Flat:      env.Flat,
			Chapters:  env.Chapters,
		}
		if len(env.Formats) > 1 {
			req.FormatSubdir = format.String()
		}
		reqs = append(reqs, req)
	}

	var results []*Result
	if len(reqs) == 1 {
		reqs[0].Progress = progressPrinter()
		res, err := Convert(ctx, reqs[0], log)
		if err != nil {
			return err
		}
		results = []*Result{res}
	} else {
		var err error
		if results, err = ConvertAll(ctx, reqs, log); err != nil {
			// partial results are still published
			log.Error("Some formats failed", zap.Error(err))
		}
	}

	for i, res := range results {
		if res == nil {
			continue
		}
		log.Debug("Output produced", zap.Stringer("format", reqs[i].Format), zap.String("file", res.OutputPath), zap.Int("chapters", res.TotalChapters))
		// Store conversion result for debugging
		if env.Rpt != nil {
			env.Rpt.Store(fmt.Sprintf("result-%s-%s%s", basename, reqs[i].Format, filepath.Ext(res.OutputPath)), res.OutputPath)
		}
	}

	if env.Store != nil {
		prefix := path.Join(env.Cfg.Publish.Prefix, filepath.ToSlash(filepath.Dir(rel)), basename)
		var (
			n   int
			err error
		)
		if env.Flat {
			// output directory is shared, only files of this book go out
			var files []string
			for _, res := range results {
				if res != nil {
					files = append(files, res.Files...)
				}
			}
			n, err = storage.PublishFiles(ctx, env.Store, bookDir, files, prefix, log)
		} else {
			n, err = storage.Publish(ctx, env.Store, bookDir, prefix, log)
		}
		if err != nil {
			return fmt.Errorf("unable to publish output: %w", err)
		}
		log.Info("Output published", zap.String("prefix", prefix), zap.Int("files", n))
	}
	return nil
}

// progressPrinter reports chapter progress on interactive terminal.
func progressPrinter() func(done, total int) {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	return func(done, total int) {
		fmt.Fprintf(os.Stderr, "\rConverting chapter %d/%d...", done, total)
		if done == total {
			fmt.Fprintln(os.Stderr)
		}
	}
}

// ListChapters prints book flow with chapter numbers usable with --chapters.
func ListChapters(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("chapters")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Mailformed command line, too many sources", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	chapters, err := Chapters(src, env.Cfg.Document.Locale, log)
	if err != nil {
		return err
	}
	out := cmd.Root().Writer
	if out == nil {
		out = os.Stdout
	}
	for _, ch := range chapters {
		fmt.Fprintf(out, "%4d  %s\n", ch.Index, ch.Title)
	}
	return nil
}
