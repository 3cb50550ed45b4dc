package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"cinetrack/models"
	"cinetrack/services/catalog"
	"cinetrack/services/playlists"
)

type playlistsService interface {
	Create(ctx context.Context, userID int64, name string) (models.Playlist, error)
	List(ctx context.Context, userID int64) ([]models.Playlist, error)
	AddMovie(ctx context.Context, playlistID, userID int64, ref models.MovieRef) (int64, error)
	Movies(ctx context.Context, playlistID, userID int64) (models.PlaylistContents, error)
	RemoveMovie(ctx context.Context, playlistID, movieID, userID int64) error
	Delete(ctx context.Context, playlistID, userID int64) error
}

var _ playlistsService = (*playlists.Service)(nil)

type PlaylistsHandler struct {
	playlists playlistsService
}

func NewPlaylistsHandler(playlistsSvc playlistsService) *PlaylistsHandler {
	return &PlaylistsHandler{playlists: playlistsSvc}
}

// Create handles POST /playlists.
func (h *PlaylistsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Playlist name is required")
		return
	}

	playlist, err := h.playlists.Create(r.Context(), userID, body.Name)
	if err != nil {
		if errors.Is(err, playlists.ErrNameRequired) {
			writeMessage(w, http.StatusBadRequest, "Playlist name is required")
			return
		}
		log.Printf("[playlists] create failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Error creating playlist")
		return
	}
	writeJSON(w, http.StatusCreated, playlist)
}

// List handles GET /playlists: the caller's playlists with counts.
func (h *PlaylistsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	lists, err := h.playlists.List(r.Context(), userID)
	if err != nil {
		log.Printf("[playlists] list failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Error fetching playlists")
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

// AddMovie handles POST /playlists/{playlistId}/add. A duplicate add is a
// 409 so the client can show "already in this playlist".
func (h *PlaylistsHandler) AddMovie(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	playlistID, err := pathID(r, "playlistId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid playlist id")
		return
	}

	var body struct {
		MovieID   *int64                `json:"movieId"`
		TMDBMovie *models.ExternalMovie `json:"tmdbMovie"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var ref models.MovieRef
	switch {
	case body.TMDBMovie != nil:
		ref = models.ExternalRef(*body.TMDBMovie)
	case body.MovieID != nil:
		ref = models.LocalRef(*body.MovieID)
	default:
		writeMessage(w, http.StatusBadRequest, "Movie id is required")
		return
	}

	movieID, err := h.playlists.AddMovie(r.Context(), playlistID, userID, ref)
	if err != nil {
		switch {
		case errors.Is(err, playlists.ErrAlreadyInPlaylist):
			writeMessage(w, http.StatusConflict, "Movie already in this playlist")
		case errors.Is(err, playlists.ErrPlaylistNotFound):
			writeMessage(w, http.StatusNotFound, "Playlist not found")
		case errors.Is(err, playlists.ErrNotOwner):
			writeMessage(w, http.StatusForbidden, "Unauthorized to modify this playlist")
		case errors.Is(err, catalog.ErrMovieNotFound):
			writeMessage(w, http.StatusNotFound, "Movie not found")
		case errors.Is(err, catalog.ErrTitleRequired), errors.Is(err, catalog.ErrInvalidTMDBID), errors.Is(err, catalog.ErrEmptyReference):
			writeMessage(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("[playlists] add movie failed: %v", err)
			writeMessage(w, http.StatusInternalServerError, "Error adding movie to playlist")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Movie added to playlist",
		"movieId": movieID,
	})
}

// Movies handles GET /playlists/{playlistId}/movies: playlist contents
// flattened with the requesting user's own diary fields.
func (h *PlaylistsHandler) Movies(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	playlistID, err := pathID(r, "playlistId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid playlist id")
		return
	}

	contents, err := h.playlists.Movies(r.Context(), playlistID, userID)
	if err != nil {
		if errors.Is(err, playlists.ErrPlaylistNotFound) {
			writeMessage(w, http.StatusNotFound, "Playlist not found")
			return
		}
		log.Printf("[playlists] movies failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Error fetching movies")
		return
	}
	writeJSON(w, http.StatusOK, contents)
}

// RemoveMovie handles DELETE /playlists/{playlistId}/movies/{movieId}.
func (h *PlaylistsHandler) RemoveMovie(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	playlistID, err := pathID(r, "playlistId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid playlist id")
		return
	}
	movieID, err := pathID(r, "movieId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid movie id")
		return
	}

	if err := h.playlists.RemoveMovie(r.Context(), playlistID, movieID, userID); err != nil {
		h.writeOwnershipError(w, err, "Error removing movie from playlist")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Movie removed from playlist"})
}

// Delete handles DELETE /playlists/{playlistId}.
func (h *PlaylistsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	playlistID, err := pathID(r, "playlistId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid playlist id")
		return
	}

	if err := h.playlists.Delete(r.Context(), playlistID, userID); err != nil {
		h.writeOwnershipError(w, err, "Error deleting playlist")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Playlist deleted successfully"})
}

func (h *PlaylistsHandler) writeOwnershipError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, playlists.ErrPlaylistNotFound):
		writeMessage(w, http.StatusNotFound, "Playlist not found")
	case errors.Is(err, playlists.ErrNotOwner):
		writeMessage(w, http.StatusForbidden, "Unauthorized to modify this playlist")
	case errors.Is(err, playlists.ErrMovieNotInPlaylist):
		writeMessage(w, http.StatusNotFound, "Movie not in this playlist")
	default:
		log.Printf("[playlists] mutation failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, fallback)
	}
}
