package fetcher_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"auto_briefing/internal/aggregator"
	"auto_briefing/internal/fetcher"
	"auto_briefing/internal/metrics"
	"auto_briefing/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type stubCollector struct {
	results []aggregator.SourceResult
	err     error
	calls   chan struct{}
}

func (s *stubCollector) Collect(context.Context) ([]aggregator.SourceResult, error) {
	if s.calls != nil {
		select {
		case s.calls <- struct{}{}:
		default:
		}
	}
	return s.results, s.err
}

func TestPollOnce_SetsSourceHealth(t *testing.T) {
	m := metrics.New()
	c := &stubCollector{results: []aggregator.SourceResult{
		{Source: models.Source{ID: "up"}, Articles: []models.Article{{ID: "1"}}},
		{Source: models.Source{ID: "down"}, Err: errors.New("timeout")},
	}}

	fetcher.PollOnce(context.Background(), c, m)

	require.Equal(t, 1.0, testutil.ToFloat64(m.SourceUp.WithLabelValues("up")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.SourceUp.WithLabelValues("down")))
}

func TestPollOnce_CollectError(t *testing.T) {
	m := metrics.New()
	fetcher.PollOnce(context.Background(), &stubCollector{err: aggregator.ErrNoSources}, m)
	require.Equal(t, 0, testutil.CollectAndCount(m.SourceUp))
}

func TestStartPolling_StopsOnCancel(t *testing.T) {
	c := &stubCollector{calls: make(chan struct{}, 1)}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		fetcher.StartPolling(ctx, c, nil, 10*time.Millisecond)
		close(done)
	}()

	select {
	case <-c.calls:
	case <-time.After(time.Second):
		t.Fatal("poller did not run")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}
