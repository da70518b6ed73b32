package sources

import (
	"errors"
	"fmt"
	"net/url"

	"auto_briefing/internal/models"

	"github.com/samber/lo"
)

// Defaults — встроенный реестр автомобильных изданий.
var Defaults = []models.Source{
	{
		ID:       "motor1",
		Name:     "Motor1",
		Color:    "#e11d48",
		FeedURL:  "https://www.motor1.com/rss/news/all/",
		Homepage: "https://www.motor1.com",
	},
	{
		ID:       "autocar",
		Name:     "Autocar",
		Color:    "#f97316",
		FeedURL:  "https://www.autocar.co.uk/rss",
		Homepage: "https://www.autocar.co.uk",
	},
	{
		ID:       "caranddriver",
		Name:     "Car and Driver",
		Color:    "#2563eb",
		FeedURL:  "https://www.caranddriver.com/rss/all.xml/",
		Homepage: "https://www.caranddriver.com",
	},
	{
		ID:       "topgear",
		Name:     "Top Gear",
		Color:    "#22c55e",
		FeedURL:  "https://www.topgear.com/feeds/all/rss.xml",
		Homepage: "https://www.topgear.com",
	},
	{
		ID:       "electrek",
		Name:     "Electrek",
		Color:    "#a855f7",
		FeedURL:  "https://electrek.co/feed/",
		Homepage: "https://electrek.co",
	},
}

var ErrEmptyRegistry = errors.New("source registry is empty")

// Registry хранит неизменяемый список источников, загруженный при старте.
type Registry struct {
	sources []models.Source
}

// NewRegistry копирует список и проверяет уникальность id и корректность URL.
func NewRegistry(list []models.Source) (*Registry, error) {
	if len(list) == 0 {
		return nil, ErrEmptyRegistry
	}
	if err := Validate(list); err != nil {
		return nil, err
	}
	return &Registry{sources: append([]models.Source(nil), list...)}, nil
}

// Default возвращает реестр со встроенными источниками.
func Default() *Registry {
	return &Registry{sources: append([]models.Source(nil), Defaults...)}
}

// All возвращает копию списка в порядке регистрации.
func (r *Registry) All() []models.Source {
	return append([]models.Source(nil), r.sources...)
}

func (r *Registry) Len() int {
	return len(r.sources)
}

// Lookup ищет источник по id.
func (r *Registry) Lookup(id string) (models.Source, bool) {
	return lo.Find(r.sources, func(s models.Source) bool { return s.ID == id })
}

// Validate проверяет, что у каждого источника есть id, имя и валидные URL.
func Validate(list []models.Source) error {
	dup := lo.FindDuplicatesBy(list, func(s models.Source) string { return s.ID })
	if len(dup) > 0 {
		return fmt.Errorf("duplicate source id: %s", dup[0].ID)
	}
	for _, s := range list {
		if s.ID == "" || s.Name == "" {
			return fmt.Errorf("source %q: id and name are required", s.FeedURL)
		}
		if _, err := url.ParseRequestURI(s.FeedURL); err != nil {
			return fmt.Errorf("source %s: invalid feed URL: %s", s.ID, s.FeedURL)
		}
		if s.Homepage != "" {
			if _, err := url.ParseRequestURI(s.Homepage); err != nil {
				return fmt.Errorf("source %s: invalid homepage URL: %s", s.ID, s.Homepage)
			}
		}
	}
	return nil
}
