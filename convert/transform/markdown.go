package transform

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
)

var (
	mdConverter     *converter.Converter
	mdConverterOnce sync.Once
)

func markdownConverter() *converter.Converter {
	mdConverterOnce.Do(func() {
		mdConverter = converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(
					commonmark.WithHeadingStyle(commonmark.HeadingStyleATX),
				),
			),
		)
	})
	return mdConverter
}

// ToMarkdown converts markup to CommonMark with ATX headings.
func ToMarkdown(markup string) (string, error) {
	md, err := markdownConverter().ConvertString(markup)
	if err != nil {
		return "", fmt.Errorf("markdown conversion: %w", err)
	}
	return strings.TrimSpace(md), nil
}

var reMarkdownImage = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)

// RemoveMarkdownImages drops image syntax from markdown leaving surrounding
// text alone.
func RemoveMarkdownImages(md string) string {
	return reMarkdownImage.ReplaceAllString(md, "")
}
