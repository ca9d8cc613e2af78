package domain

import "time"

// Candidate is a single Steam storefront match for a user query.
//
// Candidates are produced fresh by every lookup and are never persisted
// directly; a confirmed candidate is copied into a GameRecord or a
// SuggestionRecord.
type Candidate struct {
	// AppID is the Steam application id, unique within the storefront.
	AppID int `json:"app_id"`

	// Name is the storefront display name.
	Name string `json:"name"`

	// StoreLink is the canonical store page URL.
	StoreLink string `json:"store_link"`
}

// GameRecord is one entry of the shared game list.
//
// AppID is unique across the list. The list carries no ordering guarantee
// beyond storage order, which is also display order.
type GameRecord struct {
	AppID     int    `json:"app_id"`
	Name      string `json:"name"`
	StoreLink string `json:"store_link"`
}

// SuggestionRecord is one community suggestion for the game list.
//
// AppID must not duplicate an existing suggestion. The check happens at
// confirmation time and is repeated immediately before the write, since the
// list may have changed during the selection wait.
type SuggestionRecord struct {
	AppID     int    `json:"app_id"`
	Name      string `json:"name"`
	StoreLink string `json:"store_link"`

	// Provenance
	SuggestedByID   string    `json:"suggested_by_id"`
	SuggestedByName string    `json:"suggested_by_name"`
	SuggestedAt     time.Time `json:"suggested_at"` // UTC
}

// FromCandidate copies a confirmed candidate into a GameRecord.
func FromCandidate(c Candidate) GameRecord {
	return GameRecord{AppID: c.AppID, Name: c.Name, StoreLink: c.StoreLink}
}
