package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jujucrew/jubot/internal/domain"
	"github.com/jujucrew/jubot/internal/httpserver/deps"
)

type gamesResponse struct {
	Count int                 `json:"count"`
	Games []domain.GameRecord `json:"games"`
}

// Games renders the current game list.
func Games(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		games := d.Store.Games()
		if games == nil {
			games = []domain.GameRecord{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(gamesResponse{
			Count: len(games),
			Games: games,
		})
	}
}
