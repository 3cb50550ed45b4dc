package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"cinetrack/models"
	"cinetrack/services/catalog"
	"cinetrack/services/tmdb"
)

type catalogService interface {
	List(ctx context.Context, limit, offset int) ([]models.Movie, error)
	EnsureLocal(ctx context.Context, ext models.ExternalMovie) (models.Movie, error)
}

var _ catalogService = (*catalog.Service)(nil)

type movieSearcher interface {
	Search(ctx context.Context, query string) ([]models.ExternalMovie, error)
}

var _ movieSearcher = (*tmdb.Client)(nil)

type MoviesHandler struct {
	catalog catalogService
	tmdb    movieSearcher
}

func NewMoviesHandler(catalogSvc catalogService, tmdbClient movieSearcher) *MoviesHandler {
	return &MoviesHandler{catalog: catalogSvc, tmdb: tmdbClient}
}

// List handles GET /movies: the local catalog, id ascending, with
// limit/offset paging.
func (h *MoviesHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	movies, err := h.catalog.List(r.Context(), limit, offset)
	if err != nil {
		log.Printf("[movies] list failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch movies")
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

// Search handles GET /search?query=. It proxies TMDB and degrades to an
// empty result on upstream trouble so the client never renders an error
// page over a flaky provider.
func (h *MoviesHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeJSON(w, http.StatusOK, []models.ExternalMovie{})
		return
	}

	results, err := h.tmdb.Search(r.Context(), query)
	if err != nil {
		log.Printf("[movies] tmdb search failed: %v", err)
		writeJSON(w, http.StatusOK, []models.ExternalMovie{})
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// Sync handles POST /movies: imports one TMDB payload into the local
// catalog and returns the canonical local row. Unlike search this is an
// explicit write with no local fallback, so failures surface.
func (h *MoviesHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var ext models.ExternalMovie
	if err := decodeBody(r, &ext); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid movie payload")
		return
	}

	movie, err := h.catalog.EnsureLocal(r.Context(), ext)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrInvalidTMDBID), errors.Is(err, catalog.ErrTitleRequired):
			writeMessage(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("[movies] sync failed: %v", err)
			writeMessage(w, http.StatusInternalServerError, "Failed to sync movie")
		}
		return
	}
	writeJSON(w, http.StatusCreated, movie)
}
