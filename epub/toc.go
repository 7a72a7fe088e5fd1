package epub

import (
	"bytes"
	"path"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// loadTOC prefers EPUB3 navigation document and falls back to NCX. Absent or
// broken navigation is not an error, book simply has no TOC.
func (b *Book) loadTOC(ncxID string, log *zap.Logger) []TOCEntry {
	byHref := make(map[string]string, len(b.manifest))
	for _, id := range b.items {
		byHref[b.manifest[id].Href] = id
	}

	for _, id := range b.items {
		item := b.manifest[id]
		if !hasProperty(item.Properties, "nav") {
			continue
		}
		data, err := b.ReadFile(item.Href)
		if err != nil {
			log.Warn("Unable to read navigation document", zap.String("href", item.Href), zap.Error(err))
			break
		}
		toc, err := parseNav(data, item.Href)
		if err != nil {
			log.Warn("Unable to parse navigation document", zap.String("href", item.Href), zap.Error(err))
			break
		}
		if len(toc) > 0 {
			return linkTOC(toc, byHref)
		}
		break
	}

	ncx, ok := b.manifest[ncxID]
	if !ok {
		// some books do not bother to reference NCX from spine
		for _, id := range b.items {
			if b.manifest[id].MediaType == "application/x-dtbncx+xml" {
				ncx, ok = b.manifest[id], true
				break
			}
		}
	}
	if !ok {
		return nil
	}
	data, err := b.ReadFile(ncx.Href)
	if err != nil {
		log.Warn("Unable to read NCX", zap.String("href", ncx.Href), zap.Error(err))
		return nil
	}
	toc, err := parseNCX(data, ncx.Href)
	if err != nil {
		log.Warn("Unable to parse NCX", zap.String("href", ncx.Href), zap.Error(err))
		return nil
	}
	return linkTOC(toc, byHref)
}

// linkTOC fills manifest ids of target documents and sequential order where
// book did not provide one.
func linkTOC(toc []TOCEntry, byHref map[string]string) []TOCEntry {
	for i := range toc {
		toc[i].ID = byHref[stripFragment(toc[i].Href)]
		if toc[i].Order == 0 {
			toc[i].Order = i + 1
		}
	}
	return toc
}

func parseNCX(data []byte, ncxPath string) ([]TOCEntry, error) {
	doc, err := readXML(data)
	if err != nil {
		return nil, err
	}
	var toc []TOCEntry
	for _, navMap := range descendants(doc.Root(), "navMap") {
		toc = appendNavPoints(toc, navMap, path.Dir(ncxPath), 0)
	}
	return toc, nil
}

func appendNavPoints(toc []TOCEntry, parent *etree.Element, base string, level int) []TOCEntry {
	for _, np := range parent.ChildElements() {
		if np.Tag != "navPoint" {
			continue
		}
		e := TOCEntry{Level: level}
		for _, child := range np.ChildElements() {
			switch child.Tag {
			case "navLabel":
				for _, text := range child.ChildElements() {
					if text.Tag == "text" {
						e.Title = collapseSpaces(text.Text())
						break
					}
				}
			case "content":
				if src := strings.TrimSpace(attr(child, "src")); len(src) > 0 {
					e.Href = resolvePath(base, src)
				}
			}
		}
		if order, err := strconv.Atoi(attr(np, "playOrder")); err == nil && order > 0 {
			e.Order = order
		}
		toc = append(toc, e)
		toc = appendNavPoints(toc, np, base, level+1)
	}
	return toc
}

func parseNav(data []byte, navPath string) ([]TOCEntry, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var toc []TOCEntry
	walkNodes(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "nav" || !hasProperty(nodeAttr(n, "epub:type"), "toc") {
			return true
		}
		if ol := firstElement(n, "ol"); ol != nil {
			toc = appendNavList(toc, ol, path.Dir(navPath), 0)
		}
		return false
	})
	return toc, nil
}

func appendNavList(toc []TOCEntry, ol *html.Node, base string, level int) []TOCEntry {
	for li := ol.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		var (
			e      = TOCEntry{Level: level}
			nested *html.Node
			found  bool
		)
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "a":
				if !found {
					found = true
					e.Title = collapseSpaces(nodeText(c))
					if href := strings.TrimSpace(nodeAttr(c, "href")); len(href) > 0 {
						e.Href = resolvePath(base, href)
					}
				}
			case "span":
				if !found && len(e.Title) == 0 {
					e.Title = collapseSpaces(nodeText(c))
				}
			case "ol":
				nested = c
			}
		}
		toc = append(toc, e)
		if nested != nil {
			toc = appendNavList(toc, nested, base, level+1)
		}
	}
	return toc
}

// walkNodes visits nodes depth first, fn returns false to skip children.
func walkNodes(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkNodes(c, fn)
	}
}

func firstElement(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
		if found := firstElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func nodeAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeText(c))
	}
	return sb.String()
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
