package models

import "time"

// RawItem — проекция одного элемента RSS/Atom-ленты до нормализации.
// Любое поле может отсутствовать, поэтому проверки делает нормализатор.
type RawItem struct {
	GUID            string
	Title           string
	Link            string
	Description     string
	Content         string
	Published       string
	PublishedParsed *time.Time
	Updated         string
	UpdatedParsed   *time.Time
}
