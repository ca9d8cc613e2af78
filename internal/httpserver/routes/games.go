package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/jujucrew/jubot/internal/httpserver/deps"
	"github.com/jujucrew/jubot/internal/httpserver/handlers"
	"github.com/jujucrew/jubot/internal/httpserver/mw"
)

func init() { Register(registerGames, apiRateLimit()) }

// apiRateLimit is shared by the read-only API routes.
func apiRateLimit() Middleware {
	return mw.RateLimit(mw.RateLimitConfig{
		Burst:     10,
		PerMinute: 60,
	})
}

func registerGames(r chi.Router, d deps.Deps) {
	r.Get("/api/games", handlers.Games(d))
}
