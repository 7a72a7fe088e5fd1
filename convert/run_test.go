package convert

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"epubx/config"
	"epubx/state"
	"epubx/storage"
)

// setupTestEnv creates a test environment with proper context and logger
func setupTestEnv(t *testing.T, formats ...config.OutputFmt) (context.Context, *state.LocalEnv) {
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = logger
	env.Cfg = cfg
	env.Formats = formats
	if len(env.Formats) == 0 {
		env.Formats = []config.OutputFmt{config.OutputFmtMd}
	}
	return ctx, env
}

func exists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	return err == nil
}

func TestParseChapterList(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []int
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"single", "4", []int{4}, false},
		{"list and range", "1, 3,5-7", []int{1, 3, 5, 6, 7}, false},
		{"degenerate range", "2-2", []int{2}, false},
		{"trailing comma", "1,", []int{1}, false},
		{"not a number", "one", nil, true},
		{"bad range end", "1-x", nil, true},
		{"reversed range", "7-5", nil, true},
		{"zero", "0", nil, true},
		{"start too large", "200000", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseChapterList(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseChapterList(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("parseChapterList(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseChapterListHugeRange(t *testing.T) {
	got, err := parseChapterList("99999-2000000000")
	if err != nil {
		t.Fatalf("parseChapterList() error = %v", err)
	}
	if !slices.Equal(got, []int{99999, maxChapterNumber}) {
		t.Errorf("parseChapterList() = %v, want range cut at %d", got, maxChapterNumber)
	}
}

func TestParseFormats(t *testing.T) {
	log := zaptest.NewLogger(t)

	got := parseFormats([]string{"md,json", "txt", "md", "pdf", " html "}, log)
	want := []config.OutputFmt{config.OutputFmtMd, config.OutputFmtJson, config.OutputFmtTxt, config.OutputFmtHtml}
	if !slices.Equal(got, want) {
		t.Errorf("parseFormats() = %v, want %v", got, want)
	}
	if got := parseFormats([]string{"pdf", ""}, log); len(got) != 0 {
		t.Errorf("parseFormats() = %v, want nothing", got)
	}
}

func TestProcessSingleFile(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	src := writeBook(t, sampleBook())
	dst := t.TempDir()

	if err := process(ctx, src, dst, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	out := filepath.Join(dst, "sample", "sample.md")
	if !strings.Contains(readString(t, out), "Beginning") {
		t.Errorf("unexpected content of %s", out)
	}
}

func TestProcessMultipleFormats(t *testing.T) {
	ctx, _ := setupTestEnv(t, config.OutputFmtMd, config.OutputFmtJson)
	src := writeBook(t, sampleBook())
	dst := t.TempDir()

	if err := process(ctx, src, dst, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	for _, name := range []string{"md/sample.md", "json/sample.json"} {
		if !exists(t, filepath.Join(dst, "sample", filepath.FromSlash(name))) {
			t.Errorf("expected %s to be produced", name)
		}
	}
}

func TestProcessDirectory(t *testing.T) {
	src := t.TempDir()
	data := sampleBookData(t)
	for _, name := range []string{"book10.epub", "book2.epub", "sub/deep.epub"} {
		path := filepath.Join(src, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(src, "notes.txt"), []byte("skip me"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("structure kept", func(t *testing.T) {
		ctx, _ := setupTestEnv(t, config.OutputFmtTxt)
		dst := t.TempDir()
		if err := process(ctx, src, dst, zaptest.NewLogger(t)); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		for _, name := range []string{"book2/book2.txt", "book10/book10.txt", "sub/deep/deep.txt"} {
			if !exists(t, filepath.Join(dst, filepath.FromSlash(name))) {
				t.Errorf("expected %s to be produced", name)
			}
		}
		if exists(t, filepath.Join(dst, "notes")) {
			t.Error("non book file must be skipped")
		}
	})

	t.Run("flat", func(t *testing.T) {
		ctx, env := setupTestEnv(t, config.OutputFmtTxt)
		env.Flat = true
		dst := t.TempDir()
		if err := process(ctx, src, dst, zaptest.NewLogger(t)); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		got := dirNames(t, dst)
		slices.Sort(got)
		want := []string{"book10.txt", "book2.txt", "deep.txt"}
		if !slices.Equal(got, want) {
			t.Errorf("flat output = %v, want %v", got, want)
		}
	})
}

func TestProcessArchive(t *testing.T) {
	src := t.TempDir()
	arc := filepath.Join(src, "books.zip")
	writeZip(t, arc,
		[2][]byte{[]byte("x/one.epub"), sampleBookData(t)},
		[2][]byte{[]byte("x/readme.txt"), []byte("not a book")},
	)

	t.Run("archive file", func(t *testing.T) {
		ctx, _ := setupTestEnv(t)
		dst := t.TempDir()
		if err := process(ctx, arc, dst, zaptest.NewLogger(t)); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		if !exists(t, filepath.Join(dst, "x", "one", "one.md")) {
			t.Errorf("book from archive was not converted: %v", dirNames(t, dst))
		}
	})

	t.Run("path inside archive", func(t *testing.T) {
		ctx, _ := setupTestEnv(t)
		dst := t.TempDir()
		if err := process(ctx, filepath.Join(arc, "x", "one.epub"), dst, zaptest.NewLogger(t)); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		if !exists(t, filepath.Join(dst, "x", "one", "one.md")) {
			t.Errorf("book from archive was not converted: %v", dirNames(t, dst))
		}
	})

	t.Run("archive in directory", func(t *testing.T) {
		ctx, _ := setupTestEnv(t)
		dst := t.TempDir()
		if err := process(ctx, src, dst, zaptest.NewLogger(t)); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		if !exists(t, filepath.Join(dst, "x", "one", "one.md")) {
			t.Errorf("book from archive was not converted: %v", dirNames(t, dst))
		}
	})
}

func TestProcessErrors(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	dir := t.TempDir()
	other := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(other, []byte("text"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, tt := range []struct {
		name string
		src  string
	}{
		{"missing source", filepath.Join(dir, "missing.epub")},
		{"not a book", other},
		{"directory with tail", filepath.Join(dir, "missing", "book.epub")},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if err := process(ctx, tt.src, t.TempDir(), zaptest.NewLogger(t)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestProcessBookOverwrite(t *testing.T) {
	src := writeBook(t, sampleBook())
	dst := t.TempDir()
	marker := filepath.Join(dst, "sample", "marker")
	if err := os.MkdirAll(filepath.Dir(marker), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(marker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	ctx, env := setupTestEnv(t)
	if err := processBook(ctx, src, nil, "sample.epub", dst, zaptest.NewLogger(t)); err == nil {
		t.Fatal("expected error for existing output directory")
	}
	if !exists(t, marker) || exists(t, filepath.Join(dst, "sample", "sample.md")) {
		t.Fatal("existing output must be left alone")
	}

	env.Overwrite = true
	if err := processBook(ctx, src, nil, "sample.epub", dst, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("processBook() error = %v", err)
	}
	if exists(t, marker) || !exists(t, filepath.Join(dst, "sample", "sample.md")) {
		t.Error("existing output must be replaced")
	}
}

func TestProcessBookPublish(t *testing.T) {
	ctx, env := setupTestEnv(t, config.OutputFmtMd, config.OutputFmtTxt)
	pub := t.TempDir()
	store, err := storage.NewLocalAdapter(pub)
	if err != nil {
		t.Fatal(err)
	}
	env.Store = store
	env.Cfg.Publish.Prefix = "library"

	src := writeBook(t, sampleBook())
	if err := processBook(ctx, src, nil, filepath.Join("shelf", "sample.epub"), t.TempDir(), zaptest.NewLogger(t)); err != nil {
		t.Fatalf("processBook() error = %v", err)
	}
	for _, name := range []string{"md/sample.md", "txt/sample.txt"} {
		if !exists(t, filepath.Join(pub, "library", "shelf", "sample", filepath.FromSlash(name))) {
			t.Errorf("expected %s to be published", name)
		}
	}
}

func TestProcessFlatPublish(t *testing.T) {
	ctx, env := setupTestEnv(t, config.OutputFmtMd)
	env.Flat = true
	env.Cfg.Document.IncludeImages = true
	store, err := storage.NewLocalAdapter(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	env.Store = store

	src := t.TempDir()
	data := sampleBookData(t)
	for _, name := range []string{"book1.epub", "book2.epub"} {
		if err := os.WriteFile(filepath.Join(src, name), data, 0644); err != nil {
			t.Fatal(err)
		}
	}
	dst := t.TempDir()
	if err := os.WriteFile(filepath.Join(dst, "unrelated.md"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := process(ctx, src, dst, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("process() error = %v", err)
	}

	for _, book := range []string{"book1", "book2"} {
		keys, err := store.List(ctx, book+"/")
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Contains(keys, book+"/"+book+".md") {
			t.Errorf("%s: main document was not published: %v", book, keys)
		}
		if !slices.ContainsFunc(keys, func(k string) bool { return strings.HasPrefix(k, book+"/__img__/") }) {
			t.Errorf("%s: images were not published: %v", book, keys)
		}
		for _, key := range keys {
			if strings.Contains(key, "unrelated") || (strings.HasSuffix(key, ".md") && key != book+"/"+book+".md") {
				t.Errorf("%s: foreign file published: %s", book, key)
			}
		}
	}
}

func testCommand(action cli.ActionFunc, out *bytes.Buffer) *cli.Command {
	return &cli.Command{
		Name:   "test",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "to", Value: []string{"md"}},
			&cli.StringFlag{Name: "chapters"},
			&cli.BoolFlag{Name: "images"},
			&cli.BoolFlag{Name: "split"},
			&cli.BoolFlag{Name: "flat"},
			&cli.BoolFlag{Name: "overwrite"},
			&cli.BoolFlag{Name: "publish"},
		},
		Action: action,
	}
}

func TestRun(t *testing.T) {
	ctx, env := setupTestEnv(t)
	src := writeBook(t, sampleBook())
	dst := t.TempDir()

	var out bytes.Buffer
	cmd := testCommand(Run, &out)
	if err := cmd.Run(ctx, []string{"test", "--to", "txt", "--chapters", "2-3", "--split", src, dst}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !slices.Equal(env.Chapters, []int{2, 3}) || !env.Cfg.Document.Split.Enable {
		t.Errorf("command line was not applied: chapters %v, split %v", env.Chapters, env.Cfg.Document.Split.Enable)
	}
	if got := dirNames(t, filepath.Join(dst, "sample", "chapters")); len(got) != 2 {
		t.Errorf("expected 2 chapter files, got %v", got)
	}

	for _, args := range [][]string{
		{"test"},
		{"test", "--to", "pdf", src, dst},
		{"test", "--chapters", "x", src, dst},
	} {
		if err := testCommand(Run, &out).Run(ctx, args); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
}

func TestListChapters(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	src := writeBook(t, sampleBook())

	var out bytes.Buffer
	if err := testCommand(ListChapters, &out).Run(ctx, []string{"test", src}); err != nil {
		t.Fatalf("ListChapters() error = %v", err)
	}
	want := "   1  Beginning\n   2  Middle\n   3  End\n"
	if out.String() != want {
		t.Errorf("ListChapters() output = %q, want %q", out.String(), want)
	}

	if err := testCommand(ListChapters, &out).Run(ctx, []string{"test"}); err == nil {
		t.Error("expected error without source")
	}
}
