// Package schema defines versioned JSON interchange format produced for json
// and webapp outputs.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"epubx/epub"
)

// Version of the interchange format. Changing field names or meaning
// requires version bump.
const Version = "1.0"

const (
	ChapterIDPrefix = "chap_"
	TOCIDPrefix     = "toc_"
	ImageIDPrefix   = "img_"
)

// Metadata is book description carried by export.
type Metadata struct {
	Title               string   `json:"title,omitempty"`
	Creator             string   `json:"creator,omitempty"`
	CreatorFileAs       string   `json:"creatorFileAs,omitempty"`
	Publisher           string   `json:"publisher,omitempty"`
	Language            string   `json:"language,omitempty"`
	Subject             []string `json:"subject,omitempty"`
	Description         string   `json:"description,omitempty"`
	Date                string   `json:"date,omitempty"`
	ISBN                string   `json:"isbn,omitempty"`
	UUID                string   `json:"uuid,omitempty"`
	Cover               string   `json:"cover,omitempty"`
	BelongsToCollection string   `json:"belongs-to-collection,omitempty"`
	CollectionType      string   `json:"collection-type,omitempty"`
}

// TOCEntry references chapter by its id. Level and Order are optional.
type TOCEntry struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Level     *int   `json:"level,omitempty"`
	Order     *int   `json:"order,omitempty"`
	ChapterID string `json:"chapterId"`
}

// Chapter carries either inline Content or name of the File holding it (split
// output).
type Chapter struct {
	ID      string `json:"id"`
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
	File    string `json:"file,omitempty"`
}

type (
	inlineChapter struct {
		ID      string `json:"id"`
		Index   int    `json:"index"`
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	chapterRef struct {
		ID    string `json:"id"`
		Index int    `json:"index"`
		Title string `json:"title"`
		File  string `json:"file"`
	}
)

// MarshalJSON always emits content of inline chapter, even when empty, and
// never emits it for chapter stored in separate file.
func (c Chapter) MarshalJSON() ([]byte, error) {
	var v any = inlineChapter{ID: c.ID, Index: c.Index, Title: c.Title, Content: c.Content}
	if len(c.File) > 0 {
		v = chapterRef{ID: c.ID, Index: c.Index, Title: c.Title, File: c.File}
	}
	// HTML escaping is decided by encoder of the enclosing document
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Image is location of extracted image referenced by placeholders.
type Image struct {
	URL string `json:"url"`
}

// Export is the top level document.
type Export struct {
	Version  string           `json:"version"`
	Metadata Metadata         `json:"metadata"`
	TOC      []TOCEntry       `json:"toc"`
	Chapters []Chapter        `json:"chapters"`
	Images   map[string]Image `json:"images,omitempty"`
}

// New returns empty export for book metadata.
func New(md epub.Metadata) *Export {
	return &Export{
		Version:  Version,
		Metadata: FromMetadata(md),
		TOC:      []TOCEntry{},
		Chapters: []Chapter{},
	}
}

// FromMetadata copies parsed OPF metadata into export form.
func FromMetadata(md epub.Metadata) Metadata {
	return Metadata{
		Title:               md.Title,
		Creator:             md.Creator,
		CreatorFileAs:       md.CreatorFileAs,
		Publisher:           md.Publisher,
		Language:            md.Language,
		Subject:             md.Subject,
		Description:         md.Description,
		Date:                md.Date,
		ISBN:                md.ISBN,
		UUID:                md.UUID,
		Cover:               md.Cover,
		BelongsToCollection: md.BelongsToCollection,
		CollectionType:      md.CollectionType,
	}
}

// Placeholder returns token standing for image with synthetic id in chapter
// content. Readers substitute it with actual image location.
func Placeholder(imageID string) string {
	return "${{" + imageID + "}}"
}

// Encode writes v as indented JSON. HTML characters are not escaped, chapter
// content is kept readable.
func Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("unable to encode json: %w", err)
	}
	return nil
}

// Marshal returns indented JSON representation of v without trailing newline.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// IntPtr is a helper for optional numeric fields.
func IntPtr(v int) *int {
	return &v
}
