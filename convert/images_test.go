package convert

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"epubx/convert/schema"
	"epubx/epub"
	"epubx/epub/epubtest"
	"epubx/utils/images"
)

func openSample(t *testing.T, b *epubtest.Book) *epub.Book {
	t.Helper()
	data, err := b.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	book, err := epub.NewReader(bytes.NewReader(data), int64(len(data)), "sample.epub", testLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = book.Close() })
	return book
}

func TestImageStore(t *testing.T) {
	b := sampleBook()
	b.Resources = append(b.Resources,
		epubtest.Resource{ID: "svg.1", Href: "images/logo.svg", MediaType: "image/svg+xml", Data: []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`)},
	)
	book := openSample(t, b)

	dir := filepath.Join(t.TempDir(), "__img__")
	store := newImageStore(book, dir, true, nil, testLogger(t))

	first, ok := store.resolve("OEBPS/text/ch1.xhtml", "../images/pic.png")
	if !ok {
		t.Fatal("image not resolved")
	}
	// the same image reached through different spelling
	second, ok := store.resolve("OEBPS/text/ch3.xhtml", "../images/./pic.png?v=1")
	if !ok || second != first {
		t.Errorf("expected the same saved image, got %+v and %+v", first, second)
	}
	if first.name != "pic.png" || !strings.HasPrefix(first.id, schema.ImageIDPrefix) {
		t.Errorf("unexpected saved image %+v", first)
	}

	svg, ok := store.resolve("OEBPS/text/ch1.xhtml", "../images/logo.svg")
	if !ok || svg.name != "svg_1.svg" {
		t.Errorf("unexpected svg image %+v", svg)
	}

	if _, ok := store.resolve("OEBPS/text/ch1.xhtml", "../images/none.png"); ok {
		t.Error("unknown image must not resolve")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || store.count() != 2 {
		t.Errorf("expected 2 written images, got %d files and count %d", len(entries), store.count())
	}

	images := store.export()
	if len(images) != 2 || images[first.id].URL != "__img__/pic.png" {
		t.Errorf("unexpected export %+v", images)
	}
}

func TestImageStoreFailure(t *testing.T) {
	book := openSample(t, sampleBook())

	// file in place of images directory makes every write fail
	base := t.TempDir()
	dir := filepath.Join(base, "__img__")
	if err := os.WriteFile(dir, nil, 0644); err != nil {
		t.Fatal(err)
	}
	store := newImageStore(book, dir, false, nil, testLogger(t))

	for range 2 {
		if _, ok := store.resolve("OEBPS/text/ch1.xhtml", "../images/pic.png"); ok {
			t.Fatal("failed image must not resolve")
		}
	}
	if len(store.failed) != 1 || store.count() != 0 || store.export() != nil {
		t.Errorf("failure must be remembered: failed=%v count=%d", store.failed, store.count())
	}
}

func TestImageStoreProcessing(t *testing.T) {
	b := sampleBook()
	b.Resources = append(b.Resources,
		epubtest.Resource{ID: "svg.1", Href: "images/logo.svg", MediaType: "image/svg+xml", Data: []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><rect width="10" height="10"/></svg>`)},
		epubtest.Resource{ID: "bad", Href: "images/bad.png", MediaType: "image/png", Data: []byte("not an image")},
	)
	book := openSample(t, b)

	dir := filepath.Join(t.TempDir(), "__img__")
	store := newImageStore(book, dir, false, &images.Options{RasterizeSVG: true, JPEGQuality: 75}, testLogger(t))

	svg, ok := store.resolve("OEBPS/text/ch1.xhtml", "../images/logo.svg")
	if !ok || svg.name != "svg_1.png" {
		t.Errorf("svg must be rasterized, got %+v", svg)
	}
	// undecodable image is still extracted unchanged
	bad, ok := store.resolve("OEBPS/text/ch1.xhtml", "../images/bad.png")
	if !ok || bad.name != "bad.png" {
		t.Fatalf("unexpected image %+v", bad)
	}
	if got := readString(t, filepath.Join(dir, bad.name)); got != "not an image" {
		t.Errorf("original data must be kept, got %q", got)
	}
}

func TestImageStoreNil(t *testing.T) {
	var store *imageStore
	if store.count() != 0 || store.export() != nil {
		t.Error("nil store has no images")
	}
}
