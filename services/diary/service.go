package diary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cinetrack/models"
)

var (
	ErrInvalidStatus    = errors.New("invalid status value")
	ErrRatingOutOfRange = errors.New("rating must be between 1 and 10")
	ErrEntryNotFound    = errors.New("diary entry not found")
)

// MovieResolver resolves a movie reference to a canonical local id,
// importing external payloads into the catalog when needed.
type MovieResolver interface {
	Resolve(ctx context.Context, ref models.MovieRef) (int64, error)
}

// Service owns the per-(user, movie) diary rows: watch status, rating and
// review. Every method is scoped to the acting user's id.
type Service struct {
	db       *sql.DB
	resolver MovieResolver
}

func NewService(db *sql.DB, resolver MovieResolver) *Service {
	return &Service{db: db, resolver: resolver}
}

// SetEntry writes a diary entry for (userID, ref). The write is a true
// upsert: a first write creates the row with defaults, later writes change
// only the fields present in update. A "watchlist add" and a later
// "rate/review" therefore work in either order, and a nil field can never
// erase a value written earlier. Out-of-range ratings are rejected, not
// clamped.
func (s *Service) SetEntry(ctx context.Context, userID int64, ref models.MovieRef, update models.DiaryUpdate) (models.DiaryEntry, error) {
	if update.Status != nil && !models.ValidStatus(*update.Status) {
		return models.DiaryEntry{}, ErrInvalidStatus
	}
	if update.Rating != nil && (*update.Rating < 1 || *update.Rating > 10) {
		return models.DiaryEntry{}, ErrRatingOutOfRange
	}

	movieID, err := s.resolver.Resolve(ctx, ref)
	if err != nil {
		return models.DiaryEntry{}, err
	}

	// Single atomic statement so concurrent writes for the same pair race
	// on the unique constraint instead of a check-then-insert window. The
	// DO UPDATE branch reuses the raw parameters (not excluded.*) so an
	// absent field keeps its stored value instead of the insert default.
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO diary_entries (user_id, movie_id, status, rating, review)
		VALUES (?1, ?2, COALESCE(?3, 'plan_to_watch'), ?4, COALESCE(?5, ''))
		ON CONFLICT (user_id, movie_id) DO UPDATE SET
			status     = COALESCE(?3, status),
			rating     = COALESCE(?4, rating),
			review     = COALESCE(?5, review),
			updated_at = CURRENT_TIMESTAMP`,
		userID, movieID, update.Status, update.Rating, update.Review)
	if err != nil {
		return models.DiaryEntry{}, fmt.Errorf("upsert diary entry: %w", err)
	}

	return s.get(ctx, userID, movieID)
}

func (s *Service) get(ctx context.Context, userID, movieID int64) (models.DiaryEntry, error) {
	var (
		entry  models.DiaryEntry
		rating sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, movie_id, status, rating, review, created_at, updated_at
		FROM diary_entries WHERE user_id = ? AND movie_id = ?`,
		userID, movieID).Scan(
		&entry.ID, &entry.UserID, &entry.MovieID, &entry.Status,
		&rating, &entry.Review, &entry.CreatedAt, &entry.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DiaryEntry{}, ErrEntryNotFound
	}
	if err != nil {
		return models.DiaryEntry{}, fmt.Errorf("load diary entry: %w", err)
	}
	if rating.Valid {
		r := int(rating.Int64)
		entry.Rating = &r
	}
	return entry, nil
}

// Remove deletes the caller's entry for a movie. The supplied id may be
// either the local catalog id or the TMDB id: clients that just synced a
// movie often only hold the external id, so both must match.
func (s *Service) Remove(ctx context.Context, userID, movieID int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM diary_entries
		WHERE user_id = ?1
		  AND movie_id IN (SELECT id FROM movies WHERE id = ?2 OR tmdb_id = ?2)`,
		userID, movieID)
	if err != nil {
		return fmt.Errorf("delete diary entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// List returns the caller's diary joined with movie data, most recently
// added first.
func (s *Service) List(ctx context.Context, userID int64) ([]models.DiaryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.user_id, d.movie_id, d.status, d.rating, d.review, d.created_at, d.updated_at,
		       m.id, m.tmdb_id, m.title, m.description, m.year, m.genre, m.poster_url, m.created_at
		FROM diary_entries d
		JOIN movies m ON m.id = d.movie_id
		WHERE d.user_id = ?
		ORDER BY d.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list diary: %w", err)
	}
	defer rows.Close()

	items := make([]models.DiaryItem, 0)
	for rows.Next() {
		var (
			item      models.DiaryItem
			rating    sql.NullInt64
			tmdbID    sql.NullInt64
			year      sql.NullInt64
			genre     sql.NullString
			posterURL sql.NullString
		)
		err := rows.Scan(
			&item.ID, &item.UserID, &item.MovieID, &item.Status,
			&rating, &item.Review, &item.CreatedAt, &item.UpdatedAt,
			&item.Movie.ID, &tmdbID, &item.Movie.Title, &item.Movie.Description,
			&year, &genre, &posterURL, &item.Movie.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan diary row: %w", err)
		}
		if rating.Valid {
			r := int(rating.Int64)
			item.Rating = &r
		}
		if tmdbID.Valid {
			item.Movie.TMDBID = &tmdbID.Int64
		}
		if year.Valid {
			y := int(year.Int64)
			item.Movie.Year = &y
		}
		if genre.Valid {
			item.Movie.Genre = &genre.String
		}
		if posterURL.Valid {
			item.Movie.PosterURL = &posterURL.String
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
