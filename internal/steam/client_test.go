package steam

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/jujucrew/jubot/internal/logger"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(logger.Nop())
	c.baseURL = srv.URL
	c.rateLimiter = rate.NewLimiter(rate.Inf, 0)
	c.httpClient = srv.Client()
	return c
}

func TestAppDetails(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/appdetails", r.URL.Path)
		assert.Equal(t, "233860", r.URL.Query().Get("appids"))
		_, _ = w.Write([]byte(`{"233860":{"success":true,"data":{"name":"Kenshi"}}}`))
	}))

	got, err := c.AppDetails(context.Background(), 233860)
	require.NoError(t, err)
	assert.Equal(t, 233860, got.AppID)
	assert.Equal(t, "Kenshi", got.Name)
	assert.Equal(t, "https://store.steampowered.com/app/233860/", got.StoreLink)
}

func TestAppDetailsMisses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "success false", body: `{"999":{"success":false}}`},
		{name: "missing key", body: `{}`},
		{name: "empty name", body: `{"999":{"success":true,"data":{}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))

			_, err := c.AppDetails(context.Background(), 999)
			assert.ErrorIs(t, err, ErrAppNotFound)
		})
	}
}

func TestAppDetailsTransportFailures(t *testing.T) {
	t.Run("bad status", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		_, err := c.AppDetails(context.Background(), 1)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrAppNotFound)
	})

	t.Run("malformed body", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>rate limited</html>`))
		}))
		_, err := c.AppDetails(context.Background(), 1)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrAppNotFound)
	})
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/storesearch/", r.URL.Path)
		assert.Equal(t, "kenshi", r.URL.Query().Get("term"))
		assert.Equal(t, "english", r.URL.Query().Get("l"))
		assert.Equal(t, "US", r.URL.Query().Get("cc"))
		_, _ = w.Write([]byte(`{"total":3,"items":[
			{"id":233860,"name":"Kenshi"},
			{"id":0,"name":"broken item"},
			{"id":400,"name":"Kenshi OST"},
			{"id":500,"name":""}
		]}`))
	}))

	got, err := c.Search(context.Background(), "kenshi", 5)
	require.NoError(t, err)
	require.Len(t, got, 2, "items without id or name are skipped")
	assert.Equal(t, "Kenshi", got[0].Name)
	assert.Equal(t, 400, got[1].AppID)
	assert.Equal(t, "https://store.steampowered.com/app/400/", got[1].StoreLink)
}

func TestSearchTruncatesToLimit(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total":4,"items":[
			{"id":1,"name":"a"},{"id":2,"name":"b"},{"id":3,"name":"c"},{"id":4,"name":"d"}
		]}`))
	}))

	got, err := c.Search(context.Background(), "x", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].AppID)
	assert.Equal(t, 2, got[1].AppID)
}

func TestSearchEmptyAndFailures(t *testing.T) {
	t.Run("no results", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"total":0,"items":[]}`))
		}))
		got, err := c.Search(context.Background(), "zzzz", 5)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("bad status", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		_, err := c.Search(context.Background(), "x", 5)
		assert.Error(t, err)
	})

	t.Run("malformed body", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		_, err := c.Search(context.Background(), "x", 5)
		assert.Error(t, err)
	})
}

func TestRateLimiterIsConsulted(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total":0,"items":[]}`))
	}))
	// A zero-burst limiter admits nothing; the call must fail on the
	// context deadline instead of hitting the server.
	c.rateLimiter = rate.NewLimiter(rate.Every(time.Hour), 0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Search(ctx, "x", 5)
	assert.Error(t, err)
}
