package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"cinetrack/models"
)

const (
	baseURL = "https://api.themoviedb.org/3"

	searchPath  = "/search/movie"
	popularPath = "/movie/popular"
	genresPath  = "/genre/movie/list"
)

var ErrNotConfigured = errors.New("tmdb api key not configured")

// Client talks to the TMDB v3 API. Requests are throttled to a minimum
// interval and retried with backoff on network errors, 429s and 5xx; 4xx
// responses are not retried since TMDB will keep rejecting them.
type Client struct {
	apiKey   string
	language string
	httpc    *http.Client

	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func NewClient(apiKey, language string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	if strings.TrimSpace(language) == "" {
		language = "en-US"
	}
	return &Client{
		apiKey:      strings.TrimSpace(apiKey),
		language:    language,
		httpc:       httpc,
		minInterval: 20 * time.Millisecond,
	}
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.apiKey != ""
}

// doGET performs a throttled GET against path with query params, decoding
// the JSON response into v.
func (c *Client) doGET(ctx context.Context, path string, params url.Values, v any) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	endpoint, err := url.JoinPath(baseURL, path)
	if err != nil {
		return err
	}

	params.Set("api_key", c.apiKey)
	params.Set("language", c.language)
	endpoint += "?" + params.Encode()

	return retry.Do(
		func() error {
			c.throttle()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			resp, err := c.httpc.Do(req)
			if err != nil {
				log.Printf("[tmdb] http error: %v", err)
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				log.Printf("[tmdb] transient failure: status %d", resp.StatusCode)
				return fmt.Errorf("tmdb request failed: %s", resp.Status)
			}
			if resp.StatusCode >= 400 {
				return retry.Unrecoverable(fmt.Errorf("tmdb request failed: %s", resp.Status))
			}

			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				return retry.Unrecoverable(err)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}

func (c *Client) throttle() {
	c.throttleMu.Lock()
	defer c.throttleMu.Unlock()
	if since := time.Since(c.lastRequest); since < c.minInterval {
		time.Sleep(c.minInterval - since)
	}
	c.lastRequest = time.Now()
}

type movieListResponse struct {
	Results []models.ExternalMovie `json:"results"`
}

// Search runs a free-text movie search.
func (c *Client) Search(ctx context.Context, query string) ([]models.ExternalMovie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.ExternalMovie{}, nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	params.Set("page", "1")

	var resp movieListResponse
	if err := c.doGET(ctx, searchPath, params, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		resp.Results = []models.ExternalMovie{}
	}
	return resp.Results, nil
}

// Popular returns one page of TMDB's popular movie listing.
func (c *Client) Popular(ctx context.Context, page int) ([]models.ExternalMovie, error) {
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("page", fmt.Sprint(page))

	var resp movieListResponse
	if err := c.doGET(ctx, popularPath, params, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Genres returns the id → name lookup for movie genres.
func (c *Client) Genres(ctx context.Context) (map[int]string, error) {
	var resp struct {
		Genres []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"genres"`
	}
	if err := c.doGET(ctx, genresPath, url.Values{}, &resp); err != nil {
		return nil, err
	}

	lookup := make(map[int]string, len(resp.Genres))
	for _, g := range resp.Genres {
		lookup[g.ID] = g.Name
	}
	return lookup, nil
}
