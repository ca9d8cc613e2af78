package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jujucrew/jubot/internal/domain"
	"github.com/jujucrew/jubot/internal/logger"
	"github.com/jujucrew/jubot/internal/utils"
)

// Search queries the storefront for titles matching query and returns up to
// limit candidates in storefront ranking order. Items without an id or name
// are skipped. An empty result is not an error.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.Candidate, error) {
	if err := c.wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("term", query)
	params.Set("l", "english")
	params.Set("cc", "US")
	reqURL := c.baseURL + "/api/storesearch/?" + params.Encode()

	c.log.Debug("storefront search",
		logger.String("query", query),
		logger.Int("limit", limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storesearch request: %w", err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("storesearch: status %d", resp.StatusCode)
	}

	var payload storeSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("parse storesearch: %w", err)
	}

	results := make([]domain.Candidate, 0, limit)
	for _, item := range payload.Items {
		if item.ID == 0 || item.Name == "" {
			continue
		}
		results = append(results, domain.Candidate{
			AppID:     item.ID,
			Name:      item.Name,
			StoreLink: StoreLink(item.ID),
		})
		if len(results) >= limit {
			break
		}
	}

	return results, nil
}
