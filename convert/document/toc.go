package document

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"epubx/config"
)

var (
	reSpaces  = regexp.MustCompile(`\s+`)
	reNonSlug = regexp.MustCompile(`[^a-z0-9-]`)
)

// Slug turns label into anchor name: lower case, whitespace runs become
// hyphens, everything outside [a-z0-9-] is dropped, hyphens trimmed.
func Slug(label string) string {
	s := strings.TrimSpace(strings.ToLower(label))
	s = reSpaces.ReplaceAllString(s, "-")
	s = reNonSlug.ReplaceAllString(s, "")
	return strings.Trim(s, "-")
}

// HeadingID returns id given to chapter heading with label. It must produce
// the same value as Slug or anchor links do not work.
func HeadingID(label string) string {
	return Slug(label)
}

// Link is a list entry, empty Target makes it plain text.
type Link struct {
	Label  string
	Target string
}

// AnchorTarget returns in-document link target for chapter heading.
func AnchorTarget(label string) string {
	return "#" + HeadingID(label)
}

// EncodeTarget escapes relative path for use in links. Fragment-only targets
// are returned as is.
func EncodeTarget(target string) string {
	if strings.HasPrefix(target, "#") {
		return target
	}
	parts := strings.Split(target, "/")
	for i, p := range parts {
		if p == "." || p == ".." {
			continue
		}
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

var mdEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`, `*`, `\*`, `_`, `\_`)

func mdLink(l Link) string {
	if len(l.Target) == 0 {
		return mdEscaper.Replace(l.Label)
	}
	return "[" + mdEscaper.Replace(l.Label) + "](" + EncodeTarget(l.Target) + ")"
}

func htmlLink(l Link, class string) string {
	if len(l.Target) == 0 {
		return html.EscapeString(l.Label)
	}
	return `<a class="` + class + `" href="` + html.EscapeString(EncodeTarget(l.Target)) + `">` + html.EscapeString(l.Label) + `</a>`
}

// MarkdownHeading returns chapter heading, anchored when requested so
// generated table of contents could point to it.
func MarkdownHeading(label string, anchor bool) string {
	h := "### " + mdEscaper.Replace(label)
	if anchor {
		if id := HeadingID(label); len(id) > 0 {
			return `<a id="` + id + `"></a>` + "\n\n" + h
		}
	}
	return h
}

// HTMLHeading returns chapter heading, with id when requested.
func HTMLHeading(label string, anchor bool) string {
	if anchor {
		if id := HeadingID(label); len(id) > 0 {
			return `<h3 id="` + id + `">` + html.EscapeString(label) + `</h3>`
		}
	}
	return "<h3>" + html.EscapeString(label) + "</h3>"
}

// MarkdownList returns titled list of links.
func MarkdownList(title string, links []Link) string {
	lines := make([]string, 0, len(links))
	for _, l := range links {
		lines = append(lines, "- "+mdLink(l))
	}
	return "## " + mdEscaper.Replace(title) + "\n\n" + strings.Join(lines, "\n")
}

// HTMLList returns titled list of links.
func HTMLList(title string, links []Link) string {
	var sb strings.Builder
	sb.WriteString(`<h2 class="toc-title">` + html.EscapeString(title) + "</h2>\n")
	sb.WriteString(`<ul class="toc-list">` + "\n")
	for _, l := range links {
		sb.WriteString("<li>" + htmlLink(l, "toc-link") + "</li>\n")
	}
	sb.WriteString("</ul>")
	return sb.String()
}

// TextList returns titled list for plain text, targets are shown after
// labels.
func TextList(title string, links []Link) string {
	lines := make([]string, 0, len(links))
	for _, l := range links {
		if len(l.Target) == 0 || strings.HasPrefix(l.Target, "#") {
			lines = append(lines, l.Label)
			continue
		}
		lines = append(lines, l.Label+" ("+l.Target+")")
	}
	return title + "\n\n" + strings.Join(lines, "\n")
}

// Nav is split chapter navigation, entries with empty Target are omitted.
type Nav struct {
	Prev, Back, Next Link
}

func (n Nav) links() []Link {
	var res []Link
	for _, l := range []Link{n.Prev, n.Back, n.Next} {
		if len(l.Target) > 0 {
			res = append(res, l)
		}
	}
	return res
}

// Empty reports whether navigation has no links.
func (n Nav) Empty() bool {
	return len(n.links()) == 0
}

// MarkdownNav renders navigation line of a split markdown chapter, links are
// separated by vertical bar.
func MarkdownNav(n Nav) string {
	var parts []string
	for _, l := range n.links() {
		parts = append(parts, mdLink(l))
	}
	return strings.Join(parts, " | ")
}

// HTMLNav renders navigation paragraph of a split html chapter. Empty
// navigation produces nothing.
func HTMLNav(n Nav) string {
	var parts []string
	for _, l := range n.links() {
		parts = append(parts, htmlLink(l, "chapter-nav-link"))
	}
	if len(parts) == 0 {
		return ""
	}
	return `<p class="chapter-nav">` + strings.Join(parts, " | ") + "</p>"
}

// TextNav renders navigation of a split text chapter as label and target
// pairs.
func TextNav(n Nav) string {
	var parts []string
	for _, l := range n.links() {
		parts = append(parts, l.Label+": "+l.Target)
	}
	return strings.Join(parts, " | ")
}

// Footer returns extraction note appended to the end of output file.
func Footer(format config.OutputFmt, note string) string {
	switch format {
	case config.OutputFmtMd:
		return "\n\n---\n\n*" + mdEscaper.Replace(note) + "*\n"
	case config.OutputFmtHtml:
		return "\n" + `<p class="extraction-footer">` + html.EscapeString(note) + "</p>\n"
	default:
		return "\n\n---\n" + note + "\n"
	}
}
