// Package epubtest builds small EPUB archives in memory for tests.
package epubtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"image"
	"image/color"
	"image/png"
	"os"
	"path"
	"slices"
	"strings"
)

type Chapter struct {
	ID    string
	Href  string // relative to package document
	Title string // used for generated navigation, empty means no entry
	Body  string // inner html of the body element
}

type Resource struct {
	ID        string
	Href      string // relative to package document
	MediaType string
	Data      []byte
}

// Book describes archive to be produced. Zero values produce reasonable
// EPUB2 book with NCX navigation located in OEBPS.
type Book struct {
	Title      string
	Creator    string
	Language   string
	Identifier string
	Chapters   []Chapter
	Resources  []Resource
	NoTOC      bool   // do not generate navigation at all
	EPUB3      bool   // navigation document instead of NCX
	OPFDir     string // directory of the package document, "OEBPS" when empty
	NoOPF      bool   // omit package document entirely
	Extra      map[string][]byte
}

func (b *Book) opfDir() string {
	if len(b.OPFDir) == 0 {
		return "OEBPS"
	}
	if b.OPFDir == "." {
		return ""
	}
	return b.OPFDir
}

func (b *Book) full(href string) string {
	return path.Join(b.opfDir(), href)
}

// Bytes returns archive content.
func (b *Book) Bytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	w, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return nil, err
	}
	if _, err := w.Write([]byte("application/epub+zip")); err != nil {
		return nil, err
	}

	files := map[string][]byte{
		"META-INF/container.xml": []byte(b.container()),
	}
	if !b.NoOPF {
		files[b.full("content.opf")] = []byte(b.opf())
	}
	if !b.NoTOC {
		if b.EPUB3 {
			files[b.full("nav.xhtml")] = []byte(b.nav())
		} else {
			files[b.full("toc.ncx")] = []byte(b.ncx())
		}
	}
	for _, ch := range b.Chapters {
		files[b.full(ch.Href)] = []byte(chapterDocument(ch))
	}
	for _, r := range b.Resources {
		files[b.full(r.Href)] = r.Data
	}
	for name, data := range b.Extra {
		files[name] = data
	}

	// deterministic order helps when looking at failures
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(files[name]); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write stores archive at path.
func (b *Book) Write(path string) error {
	data, err := b.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (b *Book) container() string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="` + b.full("content.opf") + `" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`
}

func (b *Book) opf() string {
	version := "2.0"
	if b.EPUB3 {
		version = "3.0"
	}
	sb := new(strings.Builder)
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="%s" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
`, version)
	if len(b.Title) > 0 {
		fmt.Fprintf(sb, "    <dc:title>%s</dc:title>\n", html.EscapeString(b.Title))
	}
	if len(b.Creator) > 0 {
		fmt.Fprintf(sb, "    <dc:creator opf:file-as=\"%s\">%s</dc:creator>\n", html.EscapeString(b.Creator), html.EscapeString(b.Creator))
	}
	if len(b.Language) > 0 {
		fmt.Fprintf(sb, "    <dc:language>%s</dc:language>\n", html.EscapeString(b.Language))
	}
	if len(b.Identifier) > 0 {
		fmt.Fprintf(sb, "    <dc:identifier id=\"bookid\">%s</dc:identifier>\n", html.EscapeString(b.Identifier))
	}
	sb.WriteString("  </metadata>\n  <manifest>\n")
	if !b.NoTOC {
		if b.EPUB3 {
			sb.WriteString(`    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>` + "\n")
		} else {
			sb.WriteString(`    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>` + "\n")
		}
	}
	for _, ch := range b.Chapters {
		fmt.Fprintf(sb, "    <item id=\"%s\" href=\"%s\" media-type=\"application/xhtml+xml\"/>\n", ch.ID, ch.Href)
	}
	for _, r := range b.Resources {
		if len(r.MediaType) > 0 {
			fmt.Fprintf(sb, "    <item id=\"%s\" href=\"%s\" media-type=\"%s\"/>\n", r.ID, r.Href, r.MediaType)
		} else {
			fmt.Fprintf(sb, "    <item id=\"%s\" href=\"%s\"/>\n", r.ID, r.Href)
		}
	}
	sb.WriteString("  </manifest>\n")
	if !b.NoTOC && !b.EPUB3 {
		sb.WriteString("  <spine toc=\"ncx\">\n")
	} else {
		sb.WriteString("  <spine>\n")
	}
	for _, ch := range b.Chapters {
		fmt.Fprintf(sb, "    <itemref idref=\"%s\"/>\n", ch.ID)
	}
	sb.WriteString("  </spine>\n</package>\n")
	return sb.String()
}

func (b *Book) ncx() string {
	sb := new(strings.Builder)
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <navMap>
`)
	order := 0
	for _, ch := range b.Chapters {
		if len(ch.Title) == 0 {
			continue
		}
		order++
		fmt.Fprintf(sb, `    <navPoint id="np%d" playOrder="%d"><navLabel><text>%s</text></navLabel><content src="%s"/></navPoint>`+"\n",
			order, order, html.EscapeString(ch.Title), ch.Href)
	}
	sb.WriteString("  </navMap>\n</ncx>\n")
	return sb.String()
}

func (b *Book) nav() string {
	sb := new(strings.Builder)
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head><title>Navigation</title></head>
<body>
<nav epub:type="toc"><ol>
`)
	for _, ch := range b.Chapters {
		if len(ch.Title) == 0 {
			continue
		}
		fmt.Fprintf(sb, "<li><a href=\"%s\">%s</a></li>\n", ch.Href, html.EscapeString(ch.Title))
	}
	sb.WriteString("</ol></nav>\n</body>\n</html>\n")
	return sb.String()
}

func chapterDocument(ch Chapter) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>` + html.EscapeString(ch.Title) + `</title><style>p { margin: 0; }</style></head>
<body>` + ch.Body + `</body>
</html>
`
}

// PNG returns small valid PNG image.
func PNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
