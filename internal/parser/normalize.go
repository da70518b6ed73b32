package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"auto_briefing/internal/logger"
	"auto_briefing/internal/models"
)

// dateLayouts — форматы, которые пробуем, если gofeed не распознал дату.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	time.RFC3339Nano,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalizer превращает RawItem в Article.
type Normalizer struct {
	SummaryLength int
	Now           func() time.Time
}

// NewNormalizer создаёт Normalizer с ограничением длины summary в рунах.
func NewNormalizer(summaryLength int) *Normalizer {
	return &Normalizer{SummaryLength: summaryLength, Now: time.Now}
}

// Normalize возвращает nil, если у элемента нет заголовка или ссылки.
// Паника при разборе одного элемента тоже приводит к nil.
func (n *Normalizer) Normalize(item models.RawItem, src models.Source) (article *models.Article) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.WithFields(logger.Fields{
				"source": src.ID,
				"link":   item.Link,
				"panic":  r,
			}).Warn("Feed item rejected")
			article = nil
		}
	}()

	title := CleanTitle(item.Title)
	link := resolveLink(strings.TrimSpace(item.Link), src.Homepage)
	if title == "" || link == "" {
		return nil
	}

	body := item.Content
	if strings.TrimSpace(body) == "" {
		body = item.Description
	}

	return &models.Article{
		ID:          ArticleID(link),
		Title:       title,
		Summary:     Truncate(StripHTML(body), n.SummaryLength),
		Link:        link,
		SourceID:    src.ID,
		SourceName:  src.Name,
		SourceColor: src.Color,
		Homepage:    src.Homepage,
		PublishedAt: n.publishedAt(item),
	}
}

// NormalizeAll нормализует элементы одной ленты, сохраняя порядок.
// Второе значение — количество отброшенных элементов.
func (n *Normalizer) NormalizeAll(items []models.RawItem, src models.Source) ([]models.Article, int) {
	articles := make([]models.Article, 0, len(items))
	for _, item := range items {
		if a := n.Normalize(item, src); a != nil {
			articles = append(articles, *a)
		}
	}
	return articles, len(items) - len(articles)
}

// ArticleID — первые 16 hex-символов SHA-256 от ссылки.
func ArticleID(link string) string {
	sum := sha256.Sum256([]byte(link))
	return hex.EncodeToString(sum[:])[:16]
}

func (n *Normalizer) publishedAt(item models.RawItem) time.Time {
	switch {
	case item.PublishedParsed != nil && !item.PublishedParsed.IsZero():
		return item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil && !item.UpdatedParsed.IsZero():
		return item.UpdatedParsed.UTC()
	}
	for _, raw := range []string{item.Published, item.Updated} {
		if t, ok := parseDate(raw); ok {
			return t.UTC()
		}
	}
	return n.Now().UTC()
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// resolveLink достраивает относительную ссылку по домашней странице источника.
func resolveLink(link, homepage string) string {
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil || u.IsAbs() {
		return link
	}
	base, err := url.Parse(homepage)
	if err != nil || !base.IsAbs() {
		return link
	}
	return base.ResolveReference(u).String()
}
