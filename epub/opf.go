package epub

import (
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

const containerPath = "META-INF/container.xml"

type spineRef struct {
	idref  string
	linear bool
}

type opfPackage struct {
	version  string
	metadata Metadata
	manifest []ManifestItem
	spine    []spineRef
	tocID    string
}

// readXML parses XML permissively: EPUB content often uses HTML named
// entities and encodings other than UTF-8.
func readXML(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		Entity:        xml.HTMLEntity,
		Permissive:    true,
	}
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, errors.New("document has no root element")
	}
	return doc, nil
}

// locatePackage finds package document from container.xml, falling back to
// the first .opf file in the archive.
func (b *Book) locatePackage() (string, error) {
	if data, err := b.ReadFile(containerPath); err == nil {
		doc, err := readXML(data)
		if err != nil {
			return "", fmt.Errorf("unable to parse container: %w", err)
		}
		var fallback string
		for _, rf := range descendants(doc.Root(), "rootfile") {
			full := strings.TrimSpace(attr(rf, "full-path"))
			if len(full) == 0 {
				continue
			}
			if strings.EqualFold(attr(rf, "media-type"), "application/oebps-package+xml") {
				return full, nil
			}
			if len(fallback) == 0 {
				fallback = full
			}
		}
		if len(fallback) > 0 {
			return fallback, nil
		}
	}
	for name := range b.files {
		if strings.HasSuffix(strings.ToLower(name), ".opf") {
			return name, nil
		}
	}
	return "", errors.New("no package document found")
}

func parsePackage(data []byte, opfPath string, log *zap.Logger) (*opfPackage, error) {
	doc, err := readXML(data)
	if err != nil {
		return nil, err
	}
	root := doc.Root()
	if root.Tag != "package" {
		return nil, fmt.Errorf("unexpected root element %q", root.Tag)
	}

	pkg := &opfPackage{version: attr(root, "version")}
	base := path.Dir(opfPath)

	for _, child := range root.ChildElements() {
		switch child.Tag {
		case "metadata":
			pkg.metadata = parseMetadata(child, attr(root, "unique-identifier"))
		case "manifest":
			for _, el := range child.ChildElements() {
				if el.Tag != "item" {
					continue
				}
				id, href := attr(el, "id"), attr(el, "href")
				if len(id) == 0 || len(href) == 0 {
					log.Debug("Skipping incomplete manifest item", zap.String("id", id), zap.String("href", href))
					continue
				}
				pkg.manifest = append(pkg.manifest, ManifestItem{
					ID:         id,
					Href:       resolvePath(base, href),
					MediaType:  strings.TrimSpace(attr(el, "media-type")),
					Properties: attr(el, "properties"),
				})
			}
		case "spine":
			pkg.tocID = attr(child, "toc")
			for _, el := range child.ChildElements() {
				if el.Tag != "itemref" {
					continue
				}
				pkg.spine = append(pkg.spine, spineRef{
					idref:  attr(el, "idref"),
					linear: attr(el, "linear") != "no",
				})
			}
		case "guide", "bindings", "collection":
		default:
			log.Debug("Unexpected tag in package document, ignoring", zap.String("tag", child.Tag))
		}
	}
	return pkg, nil
}

func parseMetadata(el *etree.Element, uniqueID string) Metadata {
	var (
		md      Metadata
		refines = make(map[string]map[string]string)
		ids     []*etree.Element
	)

	// EPUB3 refinements first, they are referenced by id from dc elements
	for _, child := range metadataElements(el) {
		if child.Tag != "meta" {
			continue
		}
		if target := strings.TrimPrefix(attr(child, "refines"), "#"); len(target) > 0 {
			if refines[target] == nil {
				refines[target] = make(map[string]string)
			}
			refines[target][attr(child, "property")] = strings.TrimSpace(child.Text())
		}
	}

	for _, child := range metadataElements(el) {
		text := strings.TrimSpace(child.Text())
		switch child.Tag {
		case "title":
			setOnce(&md.Title, text)
		case "creator":
			if len(md.Creator) == 0 && len(text) > 0 {
				md.Creator = text
				md.CreatorFileAs = attr(child, "file-as")
				if id := attr(child, "id"); len(md.CreatorFileAs) == 0 && len(id) > 0 {
					md.CreatorFileAs = refines[id]["file-as"]
				}
			}
		case "publisher":
			setOnce(&md.Publisher, text)
		case "language":
			setOnce(&md.Language, text)
		case "subject":
			if len(text) > 0 {
				md.Subject = append(md.Subject, text)
			}
		case "description":
			setOnce(&md.Description, text)
		case "date":
			setOnce(&md.Date, text)
		case "identifier":
			ids = append(ids, child)
		case "meta":
			switch {
			case attr(child, "name") == "cover":
				setOnce(&md.Cover, attr(child, "content"))
			case attr(child, "name") == "calibre:series":
				setOnce(&md.BelongsToCollection, attr(child, "content"))
			case attr(child, "property") == "belongs-to-collection" && len(attr(child, "refines")) == 0:
				if len(md.BelongsToCollection) == 0 {
					md.BelongsToCollection = text
					md.CollectionType = refines[attr(child, "id")]["collection-type"]
				}
			}
		}
	}

	for _, id := range ids {
		value := strings.TrimSpace(id.Text())
		scheme := strings.ToLower(attr(id, "scheme"))
		lower := strings.ToLower(value)
		switch {
		case scheme == "isbn" || strings.HasPrefix(lower, "urn:isbn:"):
			setOnce(&md.ISBN, strings.TrimPrefix(lower, "urn:isbn:"))
		case scheme == "uuid" || strings.HasPrefix(lower, "urn:uuid:"):
			setOnce(&md.UUID, strings.TrimPrefix(lower, "urn:uuid:"))
		case len(uniqueID) > 0 && attr(id, "id") == uniqueID && len(md.UUID) == 0:
			md.UUID = value
		}
	}
	return md
}

// metadataElements returns metadata children, flattening legacy OPF 2.0
// dc-metadata and x-metadata groups.
func metadataElements(el *etree.Element) []*etree.Element {
	var res []*etree.Element
	for _, child := range el.ChildElements() {
		if child.Tag == "dc-metadata" || child.Tag == "x-metadata" {
			res = append(res, child.ChildElements()...)
			continue
		}
		res = append(res, child)
	}
	return res
}

func setOnce(dst *string, value string) {
	if len(*dst) == 0 {
		*dst = value
	}
}

// attr returns value of the attribute with the given local name regardless
// of namespace prefix.
func attr(el *etree.Element, key string) string {
	for _, a := range el.Attr {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

func descendants(el *etree.Element, tag string) []*etree.Element {
	var res []*etree.Element
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			res = append(res, child)
		}
		res = append(res, descendants(child, tag)...)
	}
	return res
}

// resolvePath resolves href found in document located in directory base to
// the archive path. Fragment is preserved.
func resolvePath(base, href string) string {
	href = strings.TrimSpace(strings.ReplaceAll(href, `\`, "/"))
	var fragment string
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href, fragment = href[:i], href[i:]
	}
	if unescaped, err := url.PathUnescape(href); err == nil {
		href = unescaped
	}
	if len(href) == 0 {
		return fragment
	}
	resolved := path.Clean(path.Join(base, href))
	return strings.TrimPrefix(resolved, "./") + fragment
}

func stripFragment(href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		return href[:i]
	}
	return href
}
