// Package layout names files and directories of conversion output.
package layout

import (
	"mime"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"github.com/h2non/filetype"

	"epubx/config"
)

const (
	// ImagesDir is subdirectory of the book directory holding extracted images.
	ImagesDir = "__img__"
	// ChaptersDir is subdirectory of the book directory holding split chapters.
	ChaptersDir = "chapters"

	fallbackName = "book"
)

// SanitizeBasename makes name usable as file name: characters illegal in
// file systems are removed and, if requested, name is transliterated. Never
// returns empty string.
func SanitizeBasename(name string, transliterate bool) string {
	name = strings.TrimSpace(name)
	if transliterate {
		name = slug.Make(name)
	}
	name = config.CleanFileName(name)
	if len(name) == 0 {
		return fallbackName
	}
	return name
}

// SanitizePrefix cleans custom chapter file prefix. Unlike basename it may
// end up empty.
func SanitizePrefix(prefix string) string {
	return config.CleanFileName(prefix)
}

// BaseName returns file name of source without directory and extension.
func BaseName(source string) string {
	return strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
}

// BookDir returns directory conversion writes into.
func BookDir(outputDir, basename, formatSubdir string, flat bool) string {
	if flat {
		return outputDir
	}
	if len(formatSubdir) > 0 {
		return filepath.Join(outputDir, basename, formatSubdir)
	}
	return filepath.Join(outputDir, basename)
}

// Naming selects chapter file naming scheme.
type Naming struct {
	Style  config.FileNameStyle
	Prefix string // for custom style, sanitized when used
}

// ChapterFileName returns name of n-th (1-based) chapter file.
func ChapterFileName(basename string, n int, naming Naming, ext string) string {
	num := strconv.Itoa(n)
	switch naming.Style {
	case config.FileNameStyleChapter:
		return "chapter-" + num + ext
	case config.FileNameStyleCustom:
		return SanitizePrefix(naming.Prefix) + num + ext
	default:
		return basename + "-chapter-" + num + ext
	}
}

var reUnsafeID = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// ImageFileName names extracted image after its manifest id. Extension comes
// from media type, content sniffing is used when media type does not help.
func ImageFileName(manifestID, mediaType string, data []byte) string {
	return reUnsafeID.ReplaceAllString(manifestID, "_") + "." + ImageExt(mediaType, data)
}

// ImageExt returns extension (without dot) for image.
func ImageExt(mediaType string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(mediaType); err == nil && strings.HasPrefix(mt, "image/") {
		sub := strings.TrimPrefix(mt, "image/")
		if i := strings.IndexByte(sub, '+'); i > 0 {
			sub = sub[:i]
		}
		if len(sub) > 0 && !reUnsafeID.MatchString(sub) {
			return sub
		}
	}
	if kind, err := filetype.Image(data); err == nil && kind != filetype.Unknown {
		return kind.Extension
	}
	return "png"
}

// ImageRef returns reference to saved image as seen from the main output
// file or, when inChapter is set, from a split chapter file.
func ImageRef(name string, inChapter bool) string {
	ref := path.Join(ImagesDir, name)
	if inChapter {
		return "../" + ref
	}
	return ref
}

// ChapterRef returns reference to split chapter file from the index file.
func ChapterRef(name string) string {
	return path.Join(ChaptersDir, name)
}
