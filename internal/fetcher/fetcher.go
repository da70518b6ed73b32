package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"auto_briefing/internal/models"
)

// MaxFeedBytes ограничивает размер тела одной ленты.
const MaxFeedBytes = 5 << 20

const acceptHeader = "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.9, */*;q=0.8"

// Fetcher загружает содержимое лент по HTTP с таймаутом на каждый запрос.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// NewFetcher создаёт Fetcher с бюджетом timeout на одну ленту.
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		timeout:   timeout,
		userAgent: userAgent,
	}
}

// Fetch загружает ленту источника src и возвращает тело ответа.
// Сетевые ошибки, не-2xx статусы и таймаут возвращаются как ошибка.
func (f *Fetcher) Fetch(ctx context.Context, src models.Source) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.FeedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	return body, nil
}
