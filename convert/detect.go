package convert

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// headerSize is enough for filetype to recognize any supported type.
const headerSize = 262

func readHeader(r io.Reader) ([]byte, error) {
	buf := make([]byte, headerSize)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:n], nil
}

func fileHeader(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readHeader(f)
}

// epubMagic is OCF requirement: first entry is stored "mimetype" file and its
// content immediately follows the local file header.
const epubMagic = "mimetype" + "application/epub+zip"

// hasEPUBMagic reports whether header is zip local file header of the
// mimetype entry. Offset 30 is fixed part of the local header, name and
// content are adjacent because mimetype carries no extra field.
func hasEPUBMagic(header []byte) bool {
	if len(header) < 30+len(epubMagic) || !filetype.Is(header, "zip") {
		return false
	}
	return string(header[30:30+len(epubMagic)]) == epubMagic
}

// looksLikeBook reports whether header belongs to EPUB. Books which do not
// store mimetype entry first are still accepted by extension when content is
// a zip archive.
func looksLikeBook(name string, header []byte) bool {
	if hasEPUBMagic(header) {
		return true
	}
	return strings.EqualFold(filepath.Ext(name), ".epub") && filetype.Is(header, "zip")
}

// isArchiveFile reports zip archives which are not books themselves.
func isArchiveFile(path string) (bool, error) {
	header, err := fileHeader(path)
	if err != nil {
		return false, err
	}
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}
	return filetype.Is(header, "zip") && !hasEPUBMagic(header), nil
}

// isBookFile reports whether file is EPUB.
func isBookFile(path string) (bool, error) {
	header, err := fileHeader(path)
	if err != nil {
		return false, err
	}
	return looksLikeBook(path, header), nil
}

// isBookInArchive reports whether archive entry is EPUB. Only entries with
// .epub extension are considered.
func isBookInArchive(f *zip.File) (bool, error) {
	if !strings.EqualFold(filepath.Ext(f.Name), ".epub") || f.FileInfo().IsDir() {
		return false, nil
	}
	r, err := f.Open()
	if err != nil {
		return false, err
	}
	defer r.Close()

	header, err := readHeader(r)
	if err != nil {
		return false, err
	}
	return looksLikeBook(f.Name, header), nil
}
