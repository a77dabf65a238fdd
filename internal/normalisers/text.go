package normalisers

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockElements end a line of text when rendered.
const blockElements = "p, div, li, tr, blockquote, pre, h1, h2, h3, h4, h5, h6"

// PlainText reduces HTML message bodies to readable text. Other formats are
// only cleaned of carriage returns and surrounding whitespace.
func PlainText(content, format string) string {
	if strings.Contains(strings.ToLower(format), "html") {
		content = htmlToText(content)
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	for strings.Contains(content, "\n\n\n") {
		content = strings.ReplaceAll(content, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(content)
}

// htmlToText drops script and style blocks, breaks lines at block elements
// and decodes entities. Unparseable input is returned unchanged.
func htmlToText(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content
	}

	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	text := strings.ReplaceAll(doc.Text(), "\u00a0", " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Join(lines, "\n")
}
