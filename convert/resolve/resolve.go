// Package resolve maps image references found in chapter markup to manifest
// items.
package resolve

import (
	"net/url"
	"path"
	"strings"

	"epubx/epub"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".svg":  true,
}

// IsImage reports whether manifest entry is an image: by declared media type
// or, when media type is absent or wrong, by file extension.
func IsImage(href, mediaType string) bool {
	if len(href) == 0 {
		return false
	}
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "image/") {
		return true
	}
	return imageExtensions[strings.ToLower(path.Ext(href))]
}

// ChapterRelative resolves src found in chapter located at chapterHref to the
// archive path. Query and fragment are dropped, separators normalized.
func ChapterRelative(chapterHref, src string) string {
	src = strings.ReplaceAll(strings.TrimSpace(src), `\`, "/")
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	if unescaped, err := url.PathUnescape(src); err == nil {
		src = unescaped
	}
	if len(src) == 0 {
		return ""
	}
	base := path.Dir(strings.ReplaceAll(chapterHref, `\`, "/"))
	return strings.TrimPrefix(path.Clean(path.Join(base, src)), "/")
}

// WithoutFirstSegment drops leading directory from p, single segment paths
// are returned unchanged.
func WithoutFirstSegment(p string) string {
	p = strings.Trim(strings.ReplaceAll(p, `\`, "/"), "/")
	if i := strings.IndexByte(p, '/'); i >= 0 && i < len(p)-1 {
		return p[i+1:]
	}
	return p
}

// Index looks up image manifest items by resolved path.
type Index struct {
	byPath map[string]string
	byName map[string]string
	count  int
}

// NewIndex indexes image items of the manifest. Items are expected in
// document order, on conflicts first one wins.
func NewIndex(items []epub.ManifestItem) *Index {
	idx := &Index{
		byPath: make(map[string]string),
		byName: make(map[string]string),
	}
	for _, item := range items {
		if !IsImage(item.Href, item.MediaType) {
			continue
		}
		norm := path.Clean(strings.ReplaceAll(item.Href, `\`, "/"))
		setOnce(idx.byPath, norm, item.ID)
		if short := WithoutFirstSegment(norm); short != norm {
			setOnce(idx.byPath, short, item.ID)
		}
		setOnce(idx.byName, path.Base(norm), item.ID)
		idx.count++
	}
	return idx
}

// Lookup returns manifest id for resolved path trying exact match, path
// without its first segment and finally file name alone. Not found is not an
// error, reference should be skipped.
func (idx *Index) Lookup(resolved string) (string, bool) {
	if idx == nil || len(resolved) == 0 {
		return "", false
	}
	if id, ok := idx.byPath[resolved]; ok {
		return id, true
	}
	if id, ok := idx.byPath[WithoutFirstSegment(resolved)]; ok {
		return id, true
	}
	id, ok := idx.byName[path.Base(resolved)]
	return id, ok
}

// Len returns number of indexed images.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return idx.count
}

func setOnce(m map[string]string, key, value string) {
	if _, exists := m[key]; !exists {
		m[key] = value
	}
}
