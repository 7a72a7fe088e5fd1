package epub

import (
	"regexp"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

// reXMLEncoding finds encoding pseudo attribute of XML declaration, html
// prescan does not look there.
var reXMLEncoding = regexp.MustCompile(`^\s*<\?xml[^>]*?\sencoding\s*=\s*["']([A-Za-z0-9._:-]+)["']`)

// toUTF8 converts content document to UTF-8. Byte order mark or charset
// parameter of media type are always obeyed. Otherwise valid UTF-8 is left
// alone, declarations in legacy books often lie, and only then XML
// declaration or html meta decide.
func toUTF8(data []byte, mediaType string) ([]byte, error) {
	enc, name, certain := charset.DetermineEncoding(data, mediaType)
	if !certain {
		if utf8.Valid(data) {
			return data, nil
		}
		if m := reXMLEncoding.FindSubmatch(data); m != nil {
			if e, n := charset.Lookup(string(m[1])); e != nil {
				enc, name = e, n
			}
		}
	}
	if name == "utf-8" {
		return data, nil
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, err
	}
	// utf-16 decoders keep BOM as U+FEFF
	return stripBOM(out), nil
}
