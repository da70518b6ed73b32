package parser

import (
	"bytes"
	"fmt"

	"auto_briefing/internal/models"

	"github.com/mmcdole/gofeed"
)

// Parse разбирает RSS, Atom или JSON Feed и возвращает элементы ленты
// в исходном порядке. Пустые записи пропускаются.
func Parse(content []byte) ([]models.RawItem, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]models.RawItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		items = append(items, models.RawItem{
			GUID:            it.GUID,
			Title:           it.Title,
			Link:            it.Link,
			Description:     it.Description,
			Content:         it.Content,
			Published:       it.Published,
			PublishedParsed: it.PublishedParsed,
			Updated:         it.Updated,
			UpdatedParsed:   it.UpdatedParsed,
		})
	}
	return items, nil
}
