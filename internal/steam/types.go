package steam

import "fmt"

// appDetailsEntry is one entry of the appdetails response, which is keyed
// by the requested app id as a string.
type appDetailsEntry struct {
	Success bool           `json:"success"`
	Data    appDetailsData `json:"data"`
}

type appDetailsData struct {
	Name string `json:"name"`
}

// storeSearchResponse is the raw storesearch payload.
type storeSearchResponse struct {
	Total int               `json:"total"`
	Items []storeSearchItem `json:"items"`
}

type storeSearchItem struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// StoreLink returns the canonical store page URL for an app id.
func StoreLink(appID int) string {
	return fmt.Sprintf("https://store.steampowered.com/app/%d/", appID)
}
