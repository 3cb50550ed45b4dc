package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cinetrack/handlers"
	"cinetrack/models"
)

type fakeSearcher struct {
	results []models.ExternalMovie
	err     error
}

func (f fakeSearcher) Search(context.Context, string) ([]models.ExternalMovie, error) {
	return f.results, f.err
}

func TestMoviesList(t *testing.T) {
	e := newEnv(t)
	h := handlers.NewMoviesHandler(e.catalog, fakeSearcher{})

	e.seedMovie(t, 1, "First")
	e.seedMovie(t, 2, "Second")

	req := httptest.NewRequest(http.MethodGet, "/movies?limit=1&offset=1", nil)
	req = handlers.WithUserID(req, e.userID)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var movies []models.Movie
	if err := json.Unmarshal(rec.Body.Bytes(), &movies); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(movies) != 1 || movies[0].Title != "Second" {
		t.Fatalf("unexpected page: %+v", movies)
	}
}

func TestSearchProxiesResults(t *testing.T) {
	e := newEnv(t)
	h := handlers.NewMoviesHandler(e.catalog, fakeSearcher{
		results: []models.ExternalMovie{{TMDBID: 603, Title: "The Matrix"}},
	})

	req := httptest.NewRequest(http.MethodGet, "/search?query=matrix", nil)
	req = handlers.WithUserID(req, e.userID)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var results []models.ExternalMovie
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(results) != 1 || results[0].TMDBID != 603 {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestSearchDegradesOnUpstreamFailure(t *testing.T) {
	e := newEnv(t)
	h := handlers.NewMoviesHandler(e.catalog, fakeSearcher{err: errors.New("tmdb down")})

	req := httptest.NewRequest(http.MethodGet, "/search?query=matrix", nil)
	req = handlers.WithUserID(req, e.userID)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	// An upstream failure is an empty 200, never an error page.
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var results []models.ExternalMovie
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty results, got %+v", results)
	}
}

func TestSyncImportsMovie(t *testing.T) {
	e := newEnv(t)
	h := handlers.NewMoviesHandler(e.catalog, fakeSearcher{})

	payload, _ := json.Marshal(map[string]any{
		"id":           603,
		"title":        "The Matrix",
		"overview":     "A hacker discovers the truth.",
		"release_date": "1999-03-31",
		"poster_path":  "/m.jpg",
	})
	req := httptest.NewRequest(http.MethodPost, "/movies", bytes.NewReader(payload))
	req = handlers.WithUserID(req, e.userID)
	rec := httptest.NewRecorder()
	h.Sync(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var movie models.Movie
	if err := json.Unmarshal(rec.Body.Bytes(), &movie); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if movie.ID <= 0 || movie.Title != "The Matrix" {
		t.Fatalf("unexpected movie: %+v", movie)
	}
	if movie.Year == nil || *movie.Year != 1999 {
		t.Fatalf("expected year 1999, got %v", movie.Year)
	}
}

func TestSyncRejectsInvalidPayload(t *testing.T) {
	e := newEnv(t)
	h := handlers.NewMoviesHandler(e.catalog, fakeSearcher{})

	payload, _ := json.Marshal(map[string]any{"title": "No TMDB id"})
	req := httptest.NewRequest(http.MethodPost, "/movies", bytes.NewReader(payload))
	req = handlers.WithUserID(req, e.userID)
	rec := httptest.NewRecorder()
	h.Sync(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}
