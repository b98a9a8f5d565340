package webcache

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"open": 12.5}`))
	}))
	defer srv.Close()

	now := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	cache := &diskCache{base: http.DefaultTransport, dir: t.TempDir(), period: Daily, now: func() time.Time { return now }}
	client := &http.Client{Transport: cache}
	ctx := context.Background()

	var got struct{ Open float64 }
	for range 2 {
		require.NoError(t, GetJSON(ctx, client, srv.URL+"/quote", &got))
		assert.Equal(t, 12.5, got.Open)
	}
	assert.Equal(t, int32(1), hits.Load(), "second call is served from disk")

	now = now.Add(24 * time.Hour)
	require.NoError(t, GetJSON(ctx, client, srv.URL+"/quote", &got))
	assert.Equal(t, int32(2), hits.Load(), "entries expire the next day")

	for range 2 {
		err := GetJSON(ctx, client, srv.URL+"/missing", &got)
		var status *StatusError
		require.True(t, errors.As(err, &status), "got %v", err)
		assert.Equal(t, http.StatusNotFound, status.StatusCode)
	}
	assert.Equal(t, int32(4), hits.Load(), "errors are not cached")
}

func TestPeriodIdentifier(t *testing.T) {
	d := time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-31", Daily.identifier(d))
	assert.Equal(t, "2024-03", Monthly.identifier(d))
	assert.Equal(t, "2024-03", Monthly.identifier(d.AddDate(0, 0, -30)))
}
