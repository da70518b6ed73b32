package models

import "time"

// Source описывает один издательский фид из реестра.
type Source struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	FeedURL  string `json:"feedUrl"`
	Homepage string `json:"homepage"`
}

// Article — нормализованная запись, полученная из одного элемента фида.
// Title и Link всегда непустые, ID вычисляется из Link.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Link        string    `json:"link"`
	SourceID    string    `json:"sourceId"`
	SourceName  string    `json:"sourceName"`
	SourceColor string    `json:"sourceColor"`
	Homepage    string    `json:"homepage"`
	PublishedAt time.Time `json:"publishedAt"`
}
