package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"cinetrack/handlers"
)

// corsMiddleware allows the configured browser client origin to call the
// API from another host/port during development.
func corsMiddleware(origin string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Register mounts all API endpoints onto the provided router. Every route
// except health, signup and the two login variants requires a bearer
// token.
func Register(
	r *mux.Router,
	verifier handlers.TokenVerifier,
	authHandler *handlers.AuthHandler,
	moviesHandler *handlers.MoviesHandler,
	watchlistHandler *handlers.WatchlistHandler,
	playlistsHandler *handlers.PlaylistsHandler,
	recommendationsHandler *handlers.RecommendationsHandler,
	clientOrigin string,
) {
	r.Use(corsMiddleware(clientOrigin))

	// Preflight requests must match a route for the middleware to run.
	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Backend is running"}`))
	}).Methods(http.MethodGet)

	// Auth routes (no token required)
	r.HandleFunc("/signup", authHandler.Signup).Methods(http.MethodPost)
	r.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
	r.HandleFunc("/google", authHandler.Google).Methods(http.MethodPost)

	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return handlers.RequireAuth(verifier, h)
	}

	r.HandleFunc("/protected", protected(authHandler.Protected)).Methods(http.MethodGet)

	// Catalog
	r.HandleFunc("/movies", protected(moviesHandler.List)).Methods(http.MethodGet)
	r.HandleFunc("/movies", protected(moviesHandler.Sync)).Methods(http.MethodPost)
	r.HandleFunc("/search", protected(moviesHandler.Search)).Methods(http.MethodGet)

	// Watchlist (diary)
	r.HandleFunc("/watchlist", protected(watchlistHandler.List)).Methods(http.MethodGet)
	r.HandleFunc("/watchlist", protected(watchlistHandler.Add)).Methods(http.MethodPost)
	r.HandleFunc("/watchlist/{movieId}", protected(watchlistHandler.Add)).Methods(http.MethodPost)
	r.HandleFunc("/watchlist/{movieId}", protected(watchlistHandler.Update)).Methods(http.MethodPatch)
	r.HandleFunc("/watchlist/{movieId}", protected(watchlistHandler.Remove)).Methods(http.MethodDelete)

	// Playlists
	r.HandleFunc("/playlists", protected(playlistsHandler.Create)).Methods(http.MethodPost)
	r.HandleFunc("/playlists", protected(playlistsHandler.List)).Methods(http.MethodGet)
	r.HandleFunc("/playlists/{playlistId}/add", protected(playlistsHandler.AddMovie)).Methods(http.MethodPost)
	r.HandleFunc("/playlists/{playlistId}/movies", protected(playlistsHandler.Movies)).Methods(http.MethodGet)
	r.HandleFunc("/playlists/{playlistId}/movies/{movieId}", protected(playlistsHandler.RemoveMovie)).Methods(http.MethodDelete)
	r.HandleFunc("/playlists/{playlistId}", protected(playlistsHandler.Delete)).Methods(http.MethodDelete)

	// Recommendations
	r.HandleFunc("/recommendations", protected(recommendationsHandler.Get)).Methods(http.MethodGet)
}
