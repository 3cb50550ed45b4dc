package models

import "time"

// Movie is a local catalog row. Rows are shared, unowned data: they enter
// the catalog either through the offline seeder or the first time a user
// references a TMDB movie that is not yet local. TMDBID is the dedup key;
// at most one row exists per TMDB id.
type Movie struct {
	ID          int64     `json:"id"`
	TMDBID      *int64    `json:"tmdbId,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Year        *int      `json:"year"`
	Genre       *string   `json:"genre"`
	PosterURL   *string   `json:"posterUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ExternalMovie is the shape of a TMDB movie record as returned by the
// search and popular endpoints. It is the payload side of a MovieRef.
type ExternalMovie struct {
	TMDBID      int64  `json:"id"`
	Title       string `json:"title"`
	Overview    string `json:"overview"`
	ReleaseDate string `json:"release_date"`
	PosterPath  string `json:"poster_path"`
	GenreIDs    []int  `json:"genre_ids"`
}

// MovieRef identifies a movie either by its local catalog id or by an
// external TMDB payload that may not be local yet. Handlers build a ref at
// the boundary and the catalog resolves it to a single local id before any
// engine touches it, so dual-meaning raw numbers never travel deeper.
type MovieRef struct {
	LocalID  int64
	External *ExternalMovie
}

// LocalRef builds a ref for a movie already known to the local catalog.
func LocalRef(id int64) MovieRef {
	return MovieRef{LocalID: id}
}

// ExternalRef builds a ref carrying a TMDB payload.
func ExternalRef(m ExternalMovie) MovieRef {
	return MovieRef{External: &m}
}
