// Package steam is a thin client for the public Steam storefront API:
// exact lookups by app id and free-text title search.
package steam

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/jujucrew/jubot/internal/logger"
)

const defaultBaseURL = "https://store.steampowered.com"

// ErrAppNotFound is returned when the storefront has no entry for an app id.
var ErrAppNotFound = errors.New("steam: app not found")

// Client wraps the storefront endpoints. The API is unauthenticated but
// unofficial, so requests are rate limited.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
	log         logger.Logger
}

func NewClient(log logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		// 1 request/second sustained, small burst. The storefront starts
		// throttling well below that, so this is headroom, not a target.
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 5),
		baseURL:     defaultBaseURL,
		log:         log,
	}
}

// wait blocks until the rate limiter admits a request.
func (c *Client) wait(ctx context.Context) error {
	return c.rateLimiter.Wait(ctx)
}
