package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cinetrack/models"
)

var (
	ErrMovieNotFound  = errors.New("movie not found")
	ErrTitleRequired  = errors.New("title is required")
	ErrInvalidTMDBID  = errors.New("tmdb id is required")
	ErrEmptyReference = errors.New("movie reference is empty")
)

const (
	posterBaseURL = "https://image.tmdb.org/t/p/w500"

	// Written when TMDB returns no overview, matching what the seeder has
	// always stored so the frontend never renders an empty card.
	defaultDescription = "No description available"

	defaultListLimit = 100
	maxListLimit     = 500
)

// Service is the local movie catalog. Movies enter it either through the
// offline reseed or through EnsureLocal, and tmdb_id is the dedup key for
// both paths.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

const movieColumns = "id, tmdb_id, title, description, year, genre, poster_url, created_at"

func scanMovie(row interface{ Scan(...any) error }) (models.Movie, error) {
	var (
		m         models.Movie
		tmdbID    sql.NullInt64
		year      sql.NullInt64
		genre     sql.NullString
		posterURL sql.NullString
	)
	err := row.Scan(&m.ID, &tmdbID, &m.Title, &m.Description, &year, &genre, &posterURL, &m.CreatedAt)
	if err != nil {
		return models.Movie{}, err
	}
	if tmdbID.Valid {
		m.TMDBID = &tmdbID.Int64
	}
	if year.Valid {
		y := int(year.Int64)
		m.Year = &y
	}
	if genre.Valid {
		m.Genre = &genre.String
	}
	if posterURL.Valid {
		m.PosterURL = &posterURL.String
	}
	return m, nil
}

// EnsureLocal returns the local row for a TMDB movie, creating it on first
// reference. The insert is a single ON CONFLICT DO NOTHING statement, so
// two concurrent calls for the same tmdb_id leave exactly one row and both
// callers read it back. An existing row is returned unchanged; the payload
// never overwrites stored fields.
func (s *Service) EnsureLocal(ctx context.Context, ext models.ExternalMovie) (models.Movie, error) {
	if ext.TMDBID <= 0 {
		return models.Movie{}, ErrInvalidTMDBID
	}
	if strings.TrimSpace(ext.Title) == "" {
		return models.Movie{}, ErrTitleRequired
	}

	description := strings.TrimSpace(ext.Overview)
	if description == "" {
		description = defaultDescription
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO movies (tmdb_id, title, description, year, poster_url)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (tmdb_id) DO NOTHING`,
		ext.TMDBID, strings.TrimSpace(ext.Title), description,
		yearFromDate(ext.ReleaseDate), posterURL(ext.PosterPath))
	if err != nil {
		return models.Movie{}, fmt.Errorf("sync movie: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT "+movieColumns+" FROM movies WHERE tmdb_id = ?", ext.TMDBID)
	movie, err := scanMovie(row)
	if err != nil {
		return models.Movie{}, fmt.Errorf("load synced movie: %w", err)
	}
	return movie, nil
}

// Resolve turns a movie reference into a canonical local id. External refs
// are imported through EnsureLocal first; local refs are verified to exist.
func (s *Service) Resolve(ctx context.Context, ref models.MovieRef) (int64, error) {
	if ref.External != nil {
		movie, err := s.EnsureLocal(ctx, *ref.External)
		if err != nil {
			return 0, err
		}
		return movie.ID, nil
	}

	if ref.LocalID <= 0 {
		return 0, ErrEmptyReference
	}

	var id int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM movies WHERE id = ?", ref.LocalID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrMovieNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("resolve movie: %w", err)
	}
	return id, nil
}

// Get returns a single catalog row by local id.
func (s *Service) Get(ctx context.Context, id int64) (models.Movie, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+movieColumns+" FROM movies WHERE id = ?", id)
	movie, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Movie{}, ErrMovieNotFound
	}
	if err != nil {
		return models.Movie{}, fmt.Errorf("load movie: %w", err)
	}
	return movie, nil
}

// List returns catalog rows ordered by id ascending. A non-positive limit
// falls back to the default page size.
func (s *Service) List(ctx context.Context, limit, offset int) ([]models.Movie, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+movieColumns+" FROM movies ORDER BY id ASC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	movies := make([]models.Movie, 0, limit)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, movie)
	}
	return movies, rows.Err()
}

// GetBatch loads the movies whose ids appear in ids, keyed by id. Missing
// ids are simply absent from the result.
func (s *Service) GetBatch(ctx context.Context, ids []int64) (map[int64]models.Movie, error) {
	if len(ids) == 0 {
		return map[int64]models.Movie{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+movieColumns+" FROM movies WHERE id IN ("+strings.Join(placeholders, ", ")+")", args...)
	if err != nil {
		return nil, fmt.Errorf("load movies: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]models.Movie, len(ids))
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		byID[movie.ID] = movie
	}
	return byID, rows.Err()
}

// Replace wipes the catalog and reinserts fresh TMDB pages. Diary and
// playlist membership rows are removed first so foreign keys never dangle.
// This is destructive and runs only from the offline seed tool.
func (s *Service) Replace(ctx context.Context, pages [][]models.ExternalMovie, genres map[int]string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin reseed: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"diary_entries", "playlist_movies", "movies"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return 0, fmt.Errorf("clear %s: %w", table, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO movies (tmdb_id, title, description, year, genre, poster_url)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (tmdb_id) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, page := range pages {
		for _, ext := range page {
			if ext.TMDBID <= 0 || strings.TrimSpace(ext.Title) == "" {
				continue
			}
			description := strings.TrimSpace(ext.Overview)
			if description == "" {
				description = defaultDescription
			}
			res, err := stmt.ExecContext(ctx,
				ext.TMDBID, strings.TrimSpace(ext.Title), description,
				yearFromDate(ext.ReleaseDate), genreNames(ext.GenreIDs, genres), posterURL(ext.PosterPath))
			if err != nil {
				return 0, fmt.Errorf("insert %q: %w", ext.Title, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				inserted++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reseed: %w", err)
	}
	return inserted, nil
}

// yearFromDate extracts the leading year of a YYYY-MM-DD release date.
// Unparsable input yields nil rather than an error.
func yearFromDate(date string) *int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return nil
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil || year <= 0 {
		return nil
	}
	return &year
}

func posterURL(path string) *string {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	u := posterBaseURL + path
	return &u
}

// genreNames resolves TMDB genre ids to a comma-joined name string. Ids
// with no lookup entry are dropped; an empty result becomes "Unknown".
func genreNames(ids []int, lookup map[int]string) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := lookup[id]; ok && name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "Unknown"
	}
	return strings.Join(names, ", ")
}
