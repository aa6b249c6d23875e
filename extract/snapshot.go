package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	nurl "net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// Snapshot formats.
const (
	FormatMarkdown = "markdown"
	FormatText     = "text"
	FormatHTML     = "html"
)

// minReadableLength is the shortest readability text accepted before
// falling back to the plain document text. Quote pages are mostly tables,
// which readability often discards.
const minReadableLength = 50

// markdownConverter is goroutine-safe and shared by every snapshot.
var markdownConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(
			table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
		),
	),
)

// ValidFormat reports whether format is a known snapshot format.
func ValidFormat(format string) bool {
	switch format {
	case FormatMarkdown, FormatText, FormatHTML:
		return true
	}
	return false
}

// RenderJSON indents a JSON body. Bodies that are not valid JSON are
// returned unchanged.
func RenderJSON(body []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return string(body)
	}
	return buf.String()
}

// RenderHTML renders a decoded HTML document in format. When selector is
// non-empty only the matching elements are rendered.
func RenderHTML(body []byte, pageURL, format, selector string) (string, error) {
	content := string(body)
	if selector != "" {
		narrowed, err := applySelector(content, selector)
		if err != nil {
			return "", fmt.Errorf("extract: selector %q: %w", selector, err)
		}
		content = narrowed
	}

	switch format {
	case FormatHTML:
		return content, nil
	case FormatText:
		return readableText(content, pageURL), nil
	case FormatMarkdown, "":
		domain := ""
		if u, err := nurl.Parse(pageURL); err == nil {
			domain = u.Scheme + "://" + u.Host
		}
		return markdownConverter.ConvertString(content, converter.WithDomain(domain))
	default:
		return "", fmt.Errorf("extract: unknown format %q", format)
	}
}

// ValidSelector reports whether selector parses as CSS. The empty selector
// is valid and means "no narrowing".
func ValidSelector(selector string) error {
	if selector == "" {
		return nil
	}
	_, err := cascadia.Parse(selector)
	return err
}

// applySelector returns the outer HTML of every element matching selector.
// With no match the document is returned unchanged.
func applySelector(rawHTML, selector string) (string, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return "", err
	}
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	matches := cascadia.QueryAll(doc, sel)
	if len(matches) == 0 {
		return rawHTML, nil
	}

	var buf bytes.Buffer
	for _, node := range matches {
		if err := html.Render(&buf, node); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// readableText runs readability over the document and falls back to the
// whitespace-collapsed body text when it finds too little.
func readableText(rawHTML, pageURL string) string {
	if u, err := nurl.Parse(pageURL); err == nil {
		article, err := readability.FromReader(strings.NewReader(rawHTML), u)
		if err == nil && len(strings.TrimSpace(article.TextContent)) >= minReadableLength {
			return strings.TrimSpace(article.TextContent)
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}
