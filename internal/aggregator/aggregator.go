package aggregator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"auto_briefing/internal/logger"
	"auto_briefing/internal/metrics"
	"auto_briefing/internal/models"
	"auto_briefing/internal/parser"
	"auto_briefing/internal/sources"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const DefaultLimit = 8

var ErrNoSources = errors.New("no feed sources registered")

// FeedFetcher загружает сырое содержимое ленты источника.
type FeedFetcher interface {
	Fetch(ctx context.Context, src models.Source) ([]byte, error)
}

// SourceResult — итог обработки одного источника за один проход.
type SourceResult struct {
	Source   models.Source
	Articles []models.Article
	Rejected int
	Err      error
}

// Aggregator параллельно опрашивает все источники реестра и сводит
// результаты в один отсортированный список.
type Aggregator struct {
	registry      *sources.Registry
	fetcher       FeedFetcher
	normalizer    *parser.Normalizer
	metrics       *metrics.Metrics
	maxConcurrent int
}

// New создаёт Aggregator. metrics может быть nil.
func New(registry *sources.Registry, fetcher FeedFetcher, normalizer *parser.Normalizer, m *metrics.Metrics) *Aggregator {
	return &Aggregator{
		registry:   registry,
		fetcher:    fetcher,
		normalizer: normalizer,
		metrics:    m,
	}
}

// SetMaxConcurrent ограничивает число одновременных загрузок; 0 — без ограничения.
func (a *Aggregator) SetMaxConcurrent(n int) {
	a.maxConcurrent = n
}

// Aggregate возвращает не более limit статей, от новых к старым, без
// дубликатов по ID. Ошибки отдельных источников не возвращаются.
func (a *Aggregator) Aggregate(ctx context.Context, limit int) ([]models.Article, error) {
	start := time.Now()
	if limit <= 0 {
		limit = DefaultLimit
	}

	results, err := a.Collect(ctx)
	if err != nil {
		return nil, err
	}

	articles := Merge(results)
	if len(articles) > limit {
		articles = articles[:limit]
	}

	if a.metrics != nil {
		a.metrics.AggregationDuration.Observe(time.Since(start).Seconds())
	}
	logger.Log.WithFields(logger.Fields{
		"sources":  len(results),
		"articles": len(articles),
		"limit":    limit,
		"duration": time.Since(start).String(),
	}).Debug("Aggregation finished")

	return articles, nil
}

// Collect запускает по одной задаче на источник и ждёт завершения всех.
// Результаты возвращаются в порядке реестра.
func (a *Aggregator) Collect(ctx context.Context) ([]SourceResult, error) {
	if a.registry == nil || a.registry.Len() == 0 {
		return nil, ErrNoSources
	}

	list := a.registry.All()
	results := make([]SourceResult, len(list))

	var g errgroup.Group
	if a.maxConcurrent > 0 {
		g.SetLimit(a.maxConcurrent)
	}
	for i, src := range list {
		i, src := i, src
		g.Go(func() error {
			results[i] = a.collectSource(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

// Merge объединяет статьи всех источников, удаляет дубликаты по ID
// (побеждает первое вхождение) и стабильно сортирует по дате публикации.
func Merge(results []SourceResult) []models.Article {
	var all []models.Article
	for _, r := range results {
		all = append(all, r.Articles...)
	}

	merged := lo.UniqBy(all, func(a models.Article) string { return a.ID })
	slices.SortStableFunc(merged, func(x, y models.Article) int {
		return y.PublishedAt.Compare(x.PublishedAt)
	})
	return merged
}

func (a *Aggregator) collectSource(ctx context.Context, src models.Source) (res SourceResult) {
	res.Source = src
	log := logger.Log.WithFields(logger.Fields{
		"source": src.ID,
		"url":    src.FeedURL,
	})

	defer func() {
		if r := recover(); r != nil {
			res = SourceResult{Source: src, Err: fmt.Errorf("panic: %v", r)}
			log.Errorf("Feed processing panicked: %v", r)
			a.countFetch(src.ID, "error")
		}
	}()

	body, err := a.fetcher.Fetch(ctx, src)
	if err != nil {
		log.Warnf("Failed to fetch feed: %v", err)
		a.countFetch(src.ID, "fetch_error")
		res.Err = err
		return res
	}

	items, err := parser.Parse(body)
	if err != nil {
		log.Warnf("Failed to parse feed: %v", err)
		a.countFetch(src.ID, "parse_error")
		res.Err = err
		return res
	}

	res.Articles, res.Rejected = a.normalizer.NormalizeAll(items, src)
	a.countFetch(src.ID, "ok")
	if res.Rejected > 0 && a.metrics != nil {
		a.metrics.ItemsRejected.WithLabelValues(src.ID).Add(float64(res.Rejected))
	}

	log.WithFields(logger.Fields{
		"items_count": len(res.Articles),
		"rejected":    res.Rejected,
	}).Debug("Feed processed")
	return res
}

func (a *Aggregator) countFetch(sourceID, result string) {
	if a.metrics != nil {
		a.metrics.FeedFetches.WithLabelValues(sourceID, result).Inc()
	}
}

// ClampLimit разбирает параметр limit запроса: пустое или некорректное
// значение заменяется def, результат ограничивается диапазоном 1..upper.
func ClampLimit(raw string, def, upper int) int {
	limit, err := strconv.Atoi(raw)
	if err != nil {
		limit = def
	}
	return min(max(limit, 1), upper)
}
