package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"cinetrack/models"
	"cinetrack/services/catalog"
	"cinetrack/services/diary"
)

type diaryService interface {
	SetEntry(ctx context.Context, userID int64, ref models.MovieRef, update models.DiaryUpdate) (models.DiaryEntry, error)
	Remove(ctx context.Context, userID, movieID int64) error
	List(ctx context.Context, userID int64) ([]models.DiaryItem, error)
}

var _ diaryService = (*diary.Service)(nil)

type WatchlistHandler struct {
	diary diaryService
}

func NewWatchlistHandler(diarySvc diaryService) *WatchlistHandler {
	return &WatchlistHandler{diary: diarySvc}
}

// List handles GET /watchlist.
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	items, err := h.diary.List(r.Context(), userID)
	if err != nil {
		log.Printf("[watchlist] list failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to load watchlist")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Add handles POST /watchlist and POST /watchlist/{movieId}. The body may
// carry a full TMDB record (sync-then-link for movies not yet local) or a
// plain local movieId; the path parameter is the fallback.
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body struct {
		MovieID   *int64                `json:"movieId"`
		TMDBMovie *models.ExternalMovie `json:"tmdbMovie"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeBody(r, &body); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	var ref models.MovieRef
	switch {
	case body.TMDBMovie != nil:
		ref = models.ExternalRef(*body.TMDBMovie)
	case body.MovieID != nil:
		ref = models.LocalRef(*body.MovieID)
	default:
		id, err := pathID(r, "movieId")
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "Movie id is required")
			return
		}
		ref = models.LocalRef(id)
	}

	// An empty update creates the row with defaults (plan_to_watch) and
	// leaves an existing entry untouched, so re-adding can never clobber a
	// rating or review written earlier.
	entry, err := h.diary.SetEntry(r.Context(), userID, ref, models.DiaryUpdate{})
	if err != nil {
		h.writeDiaryError(w, err, "Failed to add to watchlist")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Update handles PATCH /watchlist/{movieId}: a partial status / rating /
// review write. Fields absent from the body stay as they are.
func (h *WatchlistHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	movieID, err := pathID(r, "movieId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid movie id")
		return
	}

	var update models.DiaryUpdate
	if err := decodeBody(r, &update); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if update.Status == nil && update.Rating == nil && update.Review == nil {
		writeMessage(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	entry, err := h.diary.SetEntry(r.Context(), userID, models.LocalRef(movieID), update)
	if err != nil {
		h.writeDiaryError(w, err, "Update failed")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Remove handles DELETE /watchlist/{movieId}. The id may be either the
// local catalog id or the TMDB id; clients that just synced a movie often
// only hold the latter.
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	movieID, err := pathID(r, "movieId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid movie id")
		return
	}

	if err := h.diary.Remove(r.Context(), userID, movieID); err != nil {
		if errors.Is(err, diary.ErrEntryNotFound) {
			writeMessage(w, http.StatusNotFound, "Watchlist entry not found")
			return
		}
		log.Printf("[watchlist] delete failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Delete failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *WatchlistHandler) writeDiaryError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, diary.ErrInvalidStatus),
		errors.Is(err, diary.ErrRatingOutOfRange),
		errors.Is(err, catalog.ErrTitleRequired),
		errors.Is(err, catalog.ErrInvalidTMDBID),
		errors.Is(err, catalog.ErrEmptyReference):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrMovieNotFound):
		writeMessage(w, http.StatusNotFound, "Movie not found")
	default:
		log.Printf("[watchlist] write failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, fallback)
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(mux.Vars(r)[name])
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
