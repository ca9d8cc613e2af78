package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jujucrew/jubot/internal/domain"
	"github.com/jujucrew/jubot/internal/httpserver/deps"
)

type suggestionsResponse struct {
	Count       int                       `json:"count"`
	Suggestions []domain.SuggestionRecord `json:"suggestions"`
}

// Suggestions renders the current suggestion queue.
func Suggestions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		suggestions := d.Store.Suggestions()
		if suggestions == nil {
			suggestions = []domain.SuggestionRecord{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(suggestionsResponse{
			Count:       len(suggestions),
			Suggestions: suggestions,
		})
	}
}
