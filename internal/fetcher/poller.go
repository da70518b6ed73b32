package fetcher

import (
	"context"
	"time"

	"auto_briefing/internal/aggregator"
	"auto_briefing/internal/logger"
	"auto_briefing/internal/metrics"
)

// Collector возвращает результат одного прохода по всем источникам.
type Collector interface {
	Collect(ctx context.Context) ([]aggregator.SourceResult, error)
}

// StartPolling периодически опрашивает источники и обновляет метрику
// доступности feed_source_up. Статьи не сохраняются.
func StartPolling(ctx context.Context, c Collector, m *metrics.Metrics, interval time.Duration) {
	log := logger.Log.WithFields(logger.Fields{
		"service":  "poller",
		"interval": interval.String(),
	})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			log.Info("Starting new polling cycle")
			PollOnce(ctx, c, m)

		case <-ctx.Done():
			log.Info("Stopping poller by context")
			return
		}
	}
}

// PollOnce выполняет один цикл проверки источников.
func PollOnce(ctx context.Context, c Collector, m *metrics.Metrics) {
	results, err := c.Collect(ctx)
	if err != nil {
		logger.Log.Errorf("Polling failed: %v", err)
		return
	}

	for _, res := range results {
		log := logger.Log.WithField("source", res.Source.ID)
		up := 1.0
		if res.Err != nil {
			up = 0
			log.Warnf("Source is down: %v", res.Err)
		} else {
			log.WithField("items_count", len(res.Articles)).Debug("Source is up")
		}
		if m != nil {
			m.SourceUp.WithLabelValues(res.Source.ID).Set(up)
		}
	}
}
