package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"cinetrack/models"
)

// MovieLoader batch-loads catalog rows keyed by local id.
type MovieLoader interface {
	GetBatch(ctx context.Context, ids []int64) (map[int64]models.Movie, error)
}

// Service bridges the external recommender to the local catalog. The
// recommender returns an ordered list of movie ids; the bridge resolves
// them locally, preserves the upstream order and drops ids with no local
// row. Recommendations are a non-critical enhancement, so upstream
// failures degrade to an empty list instead of failing the request.
type Service struct {
	baseURL string
	httpc   *http.Client
	movies  MovieLoader
}

func NewService(baseURL string, movies MovieLoader, httpc *http.Client) *Service {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Service{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpc:   httpc,
		movies:  movies,
	}
}

// Recommend returns the user's recommended movies in upstream order.
func (s *Service) Recommend(ctx context.Context, userID int64) ([]models.Movie, error) {
	ids, err := s.fetchIDs(ctx, userID)
	if err != nil {
		log.Printf("[recommend] upstream fetch failed for user %d: %v", userID, err)
		return []models.Movie{}, nil
	}
	if len(ids) == 0 {
		return []models.Movie{}, nil
	}

	byID, err := s.movies.GetBatch(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load recommended movies: %w", err)
	}

	// A batch load does not preserve order; map the upstream order through
	// the lookup and skip ids the catalog does not know.
	ordered := make([]models.Movie, 0, len(ids))
	for _, id := range ids {
		if movie, ok := byID[id]; ok {
			ordered = append(ordered, movie)
		}
	}
	return ordered, nil
}

func (s *Service) fetchIDs(ctx context.Context, userID int64) ([]int64, error) {
	if s.baseURL == "" {
		return nil, fmt.Errorf("recommender url not configured")
	}
	endpoint := fmt.Sprintf("%s/recommend/%d", s.baseURL, userID)

	return retry.DoWithData(
		func() ([]int64, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return nil, retry.Unrecoverable(err)
			}

			resp, err := s.httpc.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 500 {
				return nil, fmt.Errorf("recommender failed: %s", resp.Status)
			}
			if resp.StatusCode != http.StatusOK {
				return nil, retry.Unrecoverable(fmt.Errorf("recommender failed: %s", resp.Status))
			}

			var body struct {
				Recommendations []json.Number `json:"recommendations"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				return nil, retry.Unrecoverable(err)
			}

			ids := make([]int64, 0, len(body.Recommendations))
			for _, raw := range body.Recommendations {
				id, err := raw.Int64()
				if err != nil || id <= 0 {
					continue
				}
				ids = append(ids, id)
			}
			return ids, nil
		},
		retry.Context(ctx),
		retry.Attempts(2),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
}
