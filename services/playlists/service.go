package playlists

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"cinetrack/models"
)

var (
	ErrNameRequired       = errors.New("playlist name is required")
	ErrPlaylistNotFound   = errors.New("playlist not found")
	ErrNotOwner           = errors.New("playlist belongs to another user")
	ErrAlreadyInPlaylist  = errors.New("movie already in this playlist")
	ErrMovieNotInPlaylist = errors.New("movie not in this playlist")
)

// MovieResolver resolves a movie reference to a canonical local id.
type MovieResolver interface {
	Resolve(ctx context.Context, ref models.MovieRef) (int64, error)
}

// Service owns playlists and their memberships. Playlists are exclusively
// owned: every mutation verifies the acting user against the stored owner
// before touching rows.
type Service struct {
	db       *sql.DB
	resolver MovieResolver
}

func NewService(db *sql.DB, resolver MovieResolver) *Service {
	return &Service{db: db, resolver: resolver}
}

// Create makes a new empty playlist owned by userID.
func (s *Service) Create(ctx context.Context, userID int64, name string) (models.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Playlist{}, ErrNameRequired
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO playlists (user_id, name) VALUES (?, ?)", userID, name)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("create playlist: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Playlist{}, fmt.Errorf("playlist id: %w", err)
	}
	return s.getOwned(ctx, id, userID)
}

// List returns the caller's playlists with membership counts.
func (s *Service) List(ctx context.Context, userID int64) ([]models.Playlist, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.user_id, p.name, COUNT(pm.id), p.created_at
		FROM playlists p
		LEFT JOIN playlist_movies pm ON pm.playlist_id = p.id
		WHERE p.user_id = ?
		GROUP BY p.id
		ORDER BY p.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	defer rows.Close()

	lists := make([]models.Playlist, 0)
	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.MovieCount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		lists = append(lists, p)
	}
	return lists, rows.Err()
}

// AddMovie resolves ref and inserts a membership row. Adding a movie that
// is already present fails with ErrAlreadyInPlaylist so callers can show
// "already in this playlist" instead of a generic failure. Only the owner
// may add.
func (s *Service) AddMovie(ctx context.Context, playlistID, userID int64, ref models.MovieRef) (int64, error) {
	if err := s.verifyOwner(ctx, playlistID, userID); err != nil {
		return 0, err
	}

	movieID, err := s.resolver.Resolve(ctx, ref)
	if err != nil {
		return 0, err
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO playlist_movies (playlist_id, movie_id) VALUES (?, ?)", playlistID, movieID)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return 0, ErrAlreadyInPlaylist
		}
		return 0, fmt.Errorf("add movie to playlist: %w", err)
	}
	return movieID, nil
}

// Movies returns the playlist's contents with the requesting user's own
// diary fields flattened onto each row. Membership is shared playlist
// state but the diary is per-user, so status/rating/review come from the
// caller's entries and default to plan_to_watch/0/"" where none exists.
func (s *Service) Movies(ctx context.Context, playlistID, userID int64) (models.PlaylistContents, error) {
	var contents models.PlaylistContents
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM playlists WHERE id = ?", playlistID).Scan(&contents.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PlaylistContents{}, ErrPlaylistNotFound
	}
	if err != nil {
		return models.PlaylistContents{}, fmt.Errorf("load playlist: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT pm.movie_id,
		       COALESCE(d.status, 'plan_to_watch'),
		       COALESCE(d.rating, 0),
		       COALESCE(d.review, ''),
		       m.id, m.tmdb_id, m.title, m.description, m.year, m.genre, m.poster_url, m.created_at
		FROM playlist_movies pm
		JOIN movies m ON m.id = pm.movie_id
		LEFT JOIN diary_entries d ON d.movie_id = pm.movie_id AND d.user_id = ?
		WHERE pm.playlist_id = ?
		ORDER BY pm.id ASC`, userID, playlistID)
	if err != nil {
		return models.PlaylistContents{}, fmt.Errorf("list playlist movies: %w", err)
	}
	defer rows.Close()

	contents.Movies = make([]models.PlaylistEntry, 0)
	for rows.Next() {
		var (
			entry     models.PlaylistEntry
			tmdbID    sql.NullInt64
			year      sql.NullInt64
			genre     sql.NullString
			posterURL sql.NullString
		)
		err := rows.Scan(
			&entry.MovieID, &entry.Status, &entry.Rating, &entry.Review,
			&entry.Movie.ID, &tmdbID, &entry.Movie.Title, &entry.Movie.Description,
			&year, &genre, &posterURL, &entry.Movie.CreatedAt)
		if err != nil {
			return models.PlaylistContents{}, fmt.Errorf("scan playlist movie: %w", err)
		}
		if tmdbID.Valid {
			entry.Movie.TMDBID = &tmdbID.Int64
		}
		if year.Valid {
			y := int(year.Int64)
			entry.Movie.Year = &y
		}
		if genre.Valid {
			entry.Movie.Genre = &genre.String
		}
		if posterURL.Valid {
			entry.Movie.PosterURL = &posterURL.String
		}
		contents.Movies = append(contents.Movies, entry)
	}
	return contents, rows.Err()
}

// RemoveMovie deletes one membership row after verifying ownership.
func (s *Service) RemoveMovie(ctx context.Context, playlistID, movieID, userID int64) error {
	if err := s.verifyOwner(ctx, playlistID, userID); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM playlist_movies WHERE playlist_id = ? AND movie_id = ?", playlistID, movieID)
	if err != nil {
		return fmt.Errorf("remove movie from playlist: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotInPlaylist
	}
	return nil
}

// Delete removes a playlist and all its membership rows. Memberships go
// first so no orphaned join rows survive a partial failure.
func (s *Service) Delete(ctx context.Context, playlistID, userID int64) error {
	if err := s.verifyOwner(ctx, playlistID, userID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM playlist_movies WHERE playlist_id = ?", playlistID); err != nil {
		return fmt.Errorf("clear playlist movies: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM playlists WHERE id = ?", playlistID); err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	return tx.Commit()
}

func (s *Service) verifyOwner(ctx context.Context, playlistID, userID int64) error {
	var ownerID int64
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id FROM playlists WHERE id = ?", playlistID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPlaylistNotFound
	}
	if err != nil {
		return fmt.Errorf("load playlist: %w", err)
	}
	if ownerID != userID {
		return ErrNotOwner
	}
	return nil
}

func (s *Service) getOwned(ctx context.Context, id, userID int64) (models.Playlist, error) {
	var p models.Playlist
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.user_id, p.name, COUNT(pm.id), p.created_at
		FROM playlists p
		LEFT JOIN playlist_movies pm ON pm.playlist_id = p.id
		WHERE p.id = ? AND p.user_id = ?
		GROUP BY p.id`, id, userID).Scan(&p.ID, &p.UserID, &p.Name, &p.MovieCount, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Playlist{}, ErrPlaylistNotFound
	}
	if err != nil {
		return models.Playlist{}, fmt.Errorf("load playlist: %w", err)
	}
	return p, nil
}
