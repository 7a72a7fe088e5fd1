package epub

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEPub indicates the file is not a valid EPUB: it is not a zip
	// archive, the package document cannot be located or parsed.
	ErrInvalidEPub = errors.New("invalid epub")

	// ErrFileNotFound indicates requested item does not exist in the archive
	// or in the manifest.
	ErrFileNotFound = errors.New("file not found in epub")
)

// ParseError is returned when archive cannot be opened as EPUB. Nothing
// could be converted from such source.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unable to parse epub (%s): %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseError(src string, format string, args ...any) error {
	return &ParseError{Source: src, Err: fmt.Errorf("%w: "+format, append([]any{ErrInvalidEPub}, args...)...)}
}
