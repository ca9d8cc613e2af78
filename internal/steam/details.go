package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jujucrew/jubot/internal/domain"
	"github.com/jujucrew/jubot/internal/logger"
	"github.com/jujucrew/jubot/internal/utils"
)

// AppDetails fetches one app's metadata by exact id. A missing or delisted
// id returns ErrAppNotFound; transport and decode failures return their
// underlying error.
func (c *Client) AppDetails(ctx context.Context, appID int) (domain.Candidate, error) {
	if err := c.wait(ctx); err != nil {
		return domain.Candidate{}, fmt.Errorf("rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("appids", strconv.Itoa(appID))
	reqURL := c.baseURL + "/api/appdetails?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("appdetails request: %w", err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return domain.Candidate{}, fmt.Errorf("appdetails: status %d", resp.StatusCode)
	}

	// The response is keyed by the requested id, as a string.
	var payload map[string]appDetailsEntry
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.Candidate{}, fmt.Errorf("parse appdetails: %w", err)
	}

	entry, ok := payload[strconv.Itoa(appID)]
	if !ok || !entry.Success || entry.Data.Name == "" {
		c.log.Debug("appdetails miss", logger.Int("app_id", appID))
		return domain.Candidate{}, ErrAppNotFound
	}

	return domain.Candidate{
		AppID:     appID,
		Name:      entry.Data.Name,
		StoreLink: StoreLink(appID),
	}, nil
}
