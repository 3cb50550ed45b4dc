package handlers

import (
	"context"
	"log"
	"net/http"

	"cinetrack/models"
	"cinetrack/services/recommend"
)

type recommendService interface {
	Recommend(ctx context.Context, userID int64) ([]models.Movie, error)
}

var _ recommendService = (*recommend.Service)(nil)

type RecommendationsHandler struct {
	recommend recommendService
}

func NewRecommendationsHandler(recommendSvc recommendService) *RecommendationsHandler {
	return &RecommendationsHandler{recommend: recommendSvc}
}

// Get handles GET /recommendations. Upstream degradation already shows up
// here as an empty list; only local storage failures turn into a 500.
func (h *RecommendationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	movies, err := h.recommend.Recommend(r.Context(), userID)
	if err != nil {
		log.Printf("[recommendations] failed for user %d: %v", userID, err)
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch recommendations")
		return
	}
	writeJSON(w, http.StatusOK, movies)
}
