package parser

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/atom"
)

var tagPattern = regexp.MustCompile(`</?([a-zA-Z][a-zA-Z0-9]*)[^<>]*>`)

// CleanTitle нормализует заголовок. gofeed уже раскодировал сущности,
// поэтому '<' в заголовке считается разметкой только перед известным HTML-тегом.
func CleanTitle(s string) string {
	if hasMarkup(s) {
		return StripHTML(s)
	}
	return collapseSpaces(html.UnescapeString(s))
}

func hasMarkup(s string) bool {
	for _, m := range tagPattern.FindAllStringSubmatch(s, -1) {
		if atom.Lookup([]byte(strings.ToLower(m[1]))) != 0 {
			return true
		}
	}
	return false
}

// StripHTML удаляет разметку, оставляя текстовое содержимое узлов.
// Между узлами вставляется пробел, затем пробелы схлопываются.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapseSpaces(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseSpaces(s)
	}

	var b strings.Builder
	collectText(doc.Selection, &b)
	return collapseSpaces(b.String())
}

func collectText(sel *goquery.Selection, b *strings.Builder) {
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		switch goquery.NodeName(node) {
		case "#text":
			b.WriteString(node.Text())
			b.WriteByte(' ')
		case "script", "style", "noscript", "#comment":
		default:
			collectText(node, b)
		}
	})
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate обрезает s до max рун, заканчивая многоточием.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	cut := strings.TrimRight(string(runes[:max-1]), " ")
	return cut + "…"
}
