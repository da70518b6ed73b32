package fetcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auto_briefing/internal/fetcher"
	"auto_briefing/internal/models"

	"github.com/stretchr/testify/require"
)

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
	<channel>
		<title>Test Feed</title>
		<item>
			<title>Test Title</title>
			<link>http://example.com/test</link>
		</item>
	</channel>
</rss>`

func TestFetch(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		body    string
		delay   time.Duration
		wantErr string
	}{
		{name: "valid rss", status: http.StatusOK, body: testRSS},
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantErr: "unexpected status: 500"},
		{name: "not found", status: http.StatusNotFound, wantErr: "unexpected status: 404"},
		{name: "timeout", status: http.StatusOK, body: testRSS, delay: 300 * time.Millisecond, wantErr: "fetch feed"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("User-Agent") != "test-agent" {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				if tc.delay > 0 {
					select {
					case <-time.After(tc.delay):
					case <-r.Context().Done():
						return
					}
				}
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			f := fetcher.NewFetcher(100*time.Millisecond, "test-agent")
			body, err := f.Fetch(context.Background(), models.Source{ID: "test", FeedURL: server.URL})

			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.body, string(body))
		})
	}
}

func TestFetch_InvalidURL(t *testing.T) {
	f := fetcher.NewFetcher(time.Second, "test-agent")
	_, err := f.Fetch(context.Background(), models.Source{ID: "bad", FeedURL: "://bad"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "create request")
}
