package convert

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"epubx/convert/layout"
	"epubx/convert/resolve"
	"epubx/convert/schema"
	"epubx/epub"
	"epubx/utils/images"
)

// savedImage is an image materialized during conversion run.
type savedImage struct {
	name string // file name inside images directory
	id   string // synthetic id for structured output, empty otherwise
}

// imageStore extracts images referenced by chapters. Every manifest item is
// written at most once per run, failures are remembered and never retried.
type imageStore struct {
	book      *epub.Book
	index     *resolve.Index
	dir       string
	synthetic bool
	prepare   *images.Options // nil when images are copied as is
	log       *zap.Logger

	saved  map[string]savedImage
	failed map[string]error
	order  []string // manifest ids in the order they were saved
}

func newImageStore(book *epub.Book, dir string, synthetic bool, prepare *images.Options, log *zap.Logger) *imageStore {
	index := resolve.NewIndex(book.ManifestItems())
	log.Debug("Image index built", zap.Int("images", index.Len()), zap.String("dir", dir))
	return &imageStore{
		book:      book,
		index:     index,
		dir:       dir,
		synthetic: synthetic,
		prepare:   prepare,
		log:       log,
		saved:     make(map[string]savedImage),
		failed:    make(map[string]error),
	}
}

// resolve maps src found in chapter at chapterHref to saved image, extracting
// it on first use. False means reference should be left alone.
func (s *imageStore) resolve(chapterHref, src string) (savedImage, bool) {
	resolved := resolve.ChapterRelative(chapterHref, src)
	id, ok := s.index.Lookup(resolved)
	if !ok {
		s.log.Debug("Image reference does not match any manifest item", zap.String("chapter", chapterHref), zap.String("src", src))
		return savedImage{}, false
	}
	if img, ok := s.saved[id]; ok {
		return img, true
	}
	if _, ok := s.failed[id]; ok {
		return savedImage{}, false
	}

	img, err := s.extract(id)
	if err != nil {
		s.failed[id] = err
		s.log.Warn("Unable to extract image, skipping", zap.String("id", id), zap.String("src", src), zap.Error(err))
		return savedImage{}, false
	}
	s.saved[id] = img
	s.order = append(s.order, id)
	return img, true
}

func (s *imageStore) extract(id string) (savedImage, error) {
	data, mediaType, err := s.book.ReadImage(id)
	if err != nil {
		return savedImage{}, err
	}
	if s.prepare != nil {
		res, err := images.Prepare(data, mediaType, *s.prepare)
		switch {
		case err != nil:
			s.log.Warn("Unable to process image, using original", zap.String("id", id), zap.String("media-type", mediaType), zap.Error(err))
		case res.Changed:
			s.log.Debug("Image processed", zap.String("id", id), zap.String("media-type", res.MediaType), zap.Int("size", len(data)), zap.Int("new size", len(res.Data)))
			data, mediaType = res.Data, res.MediaType
		}
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return savedImage{}, fmt.Errorf("unable to create images directory: %w", err)
	}
	img := savedImage{name: layout.ImageFileName(id, mediaType, data)}
	if err := os.WriteFile(filepath.Join(s.dir, img.name), data, 0644); err != nil {
		return savedImage{}, fmt.Errorf("unable to write image: %w", err)
	}
	if s.synthetic {
		img.id = schema.ImageIDPrefix + uuid.NewString()
	}
	s.log.Debug("Image extracted", zap.String("id", id), zap.String("file", img.name))
	return img, nil
}

// count returns number of images written so far.
func (s *imageStore) count() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// files returns paths of images written so far.
func (s *imageStore) files() []string {
	if s.count() == 0 {
		return nil
	}
	res := make([]string, 0, len(s.order))
	for _, id := range s.order {
		res = append(res, filepath.Join(s.dir, s.saved[id].name))
	}
	return res
}

// export returns images map for structured output.
func (s *imageStore) export() map[string]schema.Image {
	if s.count() == 0 {
		return nil
	}
	res := make(map[string]schema.Image, len(s.order))
	for _, id := range s.order {
		img := s.saved[id]
		res[img.id] = schema.Image{URL: layout.ImageRef(img.name, false)}
	}
	return res
}
