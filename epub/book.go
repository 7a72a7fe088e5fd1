// Package epub reads EPUB2/EPUB3 archives: package document, manifest,
// spine, metadata and navigation.
package epub

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"epubx/archive"
)

// maxEntrySize limits single archive entry to guard against zip bombs.
const maxEntrySize = 256 << 20

// Book is an opened EPUB. It is read-only after Open and must be closed.
type Book struct {
	name    string
	zr      *zip.Reader
	closer  io.Closer
	files   map[string]*zip.File
	folded  map[string]*zip.File
	opfPath string
	version string

	manifest map[string]ManifestItem
	items    []string // manifest ids in document order
	flow     []FlowItem
	metadata Metadata
	toc      []TOCEntry
}

// Open opens EPUB file at path. Any failure to recognize archive as EPUB is
// reported as *ParseError.
func Open(path string, log *zap.Logger) (*Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Source: path, Err: err}
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &ParseError{Source: path, Err: err}
	}
	b, err := NewReader(f, fi.Size(), filepath.Base(path), log)
	if err != nil {
		f.Close()
		return nil, err
	}
	b.closer = f
	return b, nil
}

// NewReader reads EPUB from r, name is only used in messages. Caller owns r.
func NewReader(r io.ReaderAt, size int64, name string, log *zap.Logger) (*Book, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, parseError(name, "not a zip archive: %w", err)
	}

	b := &Book{
		name:   name,
		zr:     zr,
		files:  make(map[string]*zip.File, len(zr.File)),
		folded: make(map[string]*zip.File, len(zr.File)),
	}
	_ = archive.Files(zr, func(f *zip.File) error {
		b.files[f.Name] = f
		if _, exists := b.folded[strings.ToLower(f.Name)]; !exists {
			b.folded[strings.ToLower(f.Name)] = f
		}
		return nil
	})

	if err := b.load(log); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Book) load(log *zap.Logger) error {
	opfPath, err := b.locatePackage()
	if err != nil {
		return parseError(b.name, "%w", err)
	}
	b.opfPath = opfPath

	data, err := b.ReadFile(opfPath)
	if err != nil {
		return parseError(b.name, "unable to read package document: %w", err)
	}
	pkg, err := parsePackage(data, opfPath, log)
	if err != nil {
		return parseError(b.name, "unable to parse package document: %w", err)
	}
	if len(pkg.manifest) == 0 {
		return parseError(b.name, "package document has empty manifest")
	}

	b.version = pkg.version
	b.metadata = pkg.metadata
	b.manifest = make(map[string]ManifestItem, len(pkg.manifest))
	for _, item := range pkg.manifest {
		if _, exists := b.manifest[item.ID]; exists {
			log.Warn("Duplicate manifest id, ignoring", zap.String("id", item.ID), zap.String("href", item.Href))
			continue
		}
		b.manifest[item.ID] = item
		b.items = append(b.items, item.ID)
	}
	if len(b.metadata.Cover) == 0 {
		for _, id := range b.items {
			if hasProperty(b.manifest[id].Properties, "cover-image") {
				b.metadata.Cover = id
				break
			}
		}
	}

	b.toc = b.loadTOC(pkg.tocID, log)
	titles := make(map[string]string, len(b.toc))
	for _, e := range b.toc {
		key := stripFragment(e.Href)
		if _, exists := titles[key]; !exists && len(e.Title) > 0 {
			titles[key] = e.Title
		}
	}

	for _, ref := range pkg.spine {
		item, ok := b.manifest[ref.idref]
		if !ok {
			log.Warn("Spine references unknown manifest item", zap.String("idref", ref.idref))
			b.flow = append(b.flow, FlowItem{Linear: ref.linear})
			continue
		}
		b.flow = append(b.flow, FlowItem{
			ID:     item.ID,
			Href:   item.Href,
			Title:  titles[item.Href],
			Linear: ref.linear,
		})
	}
	return nil
}

// Name returns name EPUB was opened with.
func (b *Book) Name() string { return b.name }

// Version returns package document version attribute ("2.0", "3.0", ...).
func (b *Book) Version() string { return b.version }

// Flow returns reading order.
func (b *Book) Flow() []FlowItem { return slices.Clone(b.flow) }

// Manifest returns all manifest items keyed by id.
func (b *Book) Manifest() map[string]ManifestItem { return maps.Clone(b.manifest) }

// ManifestItems returns manifest items in the order of package document.
func (b *Book) ManifestItems() []ManifestItem {
	res := make([]ManifestItem, 0, len(b.items))
	for _, id := range b.items {
		res = append(res, b.manifest[id])
	}
	return res
}

// Item returns manifest item by id.
func (b *Book) Item(id string) (ManifestItem, bool) {
	item, ok := b.manifest[id]
	return item, ok
}

func (b *Book) Metadata() Metadata {
	md := b.metadata
	md.Subject = slices.Clone(b.metadata.Subject)
	return md
}

// TOC returns flattened navigation, empty if book has none.
func (b *Book) TOC() []TOCEntry { return slices.Clone(b.toc) }

// ReadFile returns content of archive entry. Lookup is exact first and then
// case insensitive, some books do not agree with themselves on case.
func (b *Book) ReadFile(name string) ([]byte, error) {
	f := b.findFile(name)
	if f == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrFileNotFound)
	}
	data, err := archive.ReadFile(f, maxEntrySize)
	if err != nil {
		return nil, err
	}
	return stripBOM(data), nil
}

// ReadChapter returns markup of the spine document converted to UTF-8.
func (b *Book) ReadChapter(id string) ([]byte, error) {
	item, ok := b.Item(id)
	if !ok {
		return nil, fmt.Errorf("manifest id %q: %w", id, ErrFileNotFound)
	}
	data, err := b.ReadFile(item.Href)
	if err != nil {
		return nil, err
	}
	data, err = toUTF8(data, item.MediaType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", item.Href, err)
	}
	return data, nil
}

// ReadImage returns image bytes and declared media type.
func (b *Book) ReadImage(id string) ([]byte, string, error) {
	item, ok := b.Item(id)
	if !ok {
		return nil, "", fmt.Errorf("manifest id %q: %w", id, ErrFileNotFound)
	}
	data, err := b.ReadFile(item.Href)
	if err != nil {
		return nil, "", err
	}
	return data, item.MediaType, nil
}

// Close releases underlying file if Book was opened by Open.
func (b *Book) Close() error {
	if b == nil || b.closer == nil {
		return nil
	}
	err := b.closer.Close()
	b.closer = nil
	return err
}

func (b *Book) findFile(name string) *zip.File {
	if f, ok := b.files[name]; ok {
		return f
	}
	return b.folded[strings.ToLower(name)]
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

func hasProperty(properties, name string) bool {
	return slices.Contains(strings.Fields(properties), name)
}
