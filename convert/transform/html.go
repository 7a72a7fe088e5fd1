package transform

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ExtractBody returns inner markup of the body element with scripts, styles
// and inline event handlers removed. Named entities are decoded by parsing,
// only characters significant for markup stay escaped.
func ExtractBody(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(normalizeSelfClosing(markup)))
	if err != nil {
		return "", fmt.Errorf("unable to parse chapter: %w", err)
	}
	body := doc.Find("body")
	body.Find("script, style, noscript").Remove()
	body.Find("*").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		attrs := n.Attr[:0]
		for _, a := range n.Attr {
			if strings.HasPrefix(strings.ToLower(a.Key), "on") {
				continue
			}
			attrs = append(attrs, a)
		}
		n.Attr = attrs
	})
	res, err := body.Html()
	if err != nil {
		return "", fmt.Errorf("unable to render chapter body: %w", err)
	}
	return strings.TrimSpace(res), nil
}

// ImageAction tells RewriteImages what to do with an img element.
type ImageAction int

const (
	// ImageKeep leaves element untouched.
	ImageKeep ImageAction = iota
	// ImageSetSource replaces src attribute with value.
	ImageSetSource
	// ImageReplaceWithText replaces element with text value.
	ImageReplaceWithText
	// ImageRemove drops element.
	ImageRemove
)

// ImageRewriter decides fate of an image by its original src.
type ImageRewriter func(src string) (ImageAction, string)

// RewriteImages calls fn for every img element of body fragment and applies
// returned action. Result is body fragment again.
func RewriteImages(fragment string, fn ImageRewriter) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("unable to parse chapter: %w", err)
	}
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		action, value := fn(strings.TrimSpace(s.AttrOr("src", "")))
		switch action {
		case ImageSetSource:
			s.SetAttr("src", value)
		case ImageReplaceWithText:
			s.ReplaceWithNodes(&html.Node{Type: html.TextNode, Data: value})
		case ImageRemove:
			s.Remove()
		}
	})
	res, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("unable to render chapter body: %w", err)
	}
	return strings.TrimSpace(res), nil
}

// RemoveImages drops all img elements from body fragment.
func RemoveImages(fragment string) (string, error) {
	return RewriteImages(fragment, func(string) (ImageAction, string) {
		return ImageRemove, ""
	})
}
