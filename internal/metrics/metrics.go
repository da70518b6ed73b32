// Package metrics собирает счётчики конвейера лент и доставки в Telegram.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "briefing"

type Metrics struct {
	registry *prometheus.Registry

	FeedFetches         *prometheus.CounterVec
	ItemsRejected       *prometheus.CounterVec
	AggregationDuration prometheus.Histogram
	TelegramMessages    *prometheus.CounterVec
	SourceUp            *prometheus.GaugeVec
}

// New регистрирует все коллекторы в собственном реестре.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		FeedFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_fetch_total",
			Help:      "Feed fetch attempts by source and result.",
		}, []string{"source", "result"}),
		ItemsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_items_rejected_total",
			Help:      "Feed items dropped during normalization.",
		}, []string{"source"}),
		AggregationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_duration_seconds",
			Help:      "Wall time of one aggregation run.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		}),
		TelegramMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telegram_messages_total",
			Help:      "Briefings sent to the Telegram Bot API by result.",
		}, []string{"result"}),
		SourceUp: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_source_up",
			Help:      "1 if the last poll of the source succeeded.",
		}, []string{"source"}),
	}
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry нужен тестам для чтения значений.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
