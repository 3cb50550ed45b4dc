package handlers_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"cinetrack/internal/database"
	"cinetrack/models"
	"cinetrack/services/accounts"
	"cinetrack/services/catalog"
	"cinetrack/services/diary"
	"cinetrack/services/playlists"
)

// env wires real services over a throwaway database so handler tests
// exercise the full stack below the HTTP boundary.
type env struct {
	db        *sql.DB
	accounts  *accounts.Service
	catalog   *catalog.Service
	diary     *diary.Service
	playlists *playlists.Service
	userID    int64
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	accountsSvc := accounts.NewService(db)
	user, err := accountsSvc.Signup(context.Background(), "tester@example.com", "secret")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	catalogSvc := catalog.NewService(db)
	return &env{
		db:        db,
		accounts:  accountsSvc,
		catalog:   catalogSvc,
		diary:     diary.NewService(db, catalogSvc),
		playlists: playlists.NewService(db, catalogSvc),
		userID:    user.ID,
	}
}

func (e *env) seedMovie(t *testing.T, tmdbID int64, title string) models.Movie {
	t.Helper()
	movie, err := e.catalog.EnsureLocal(context.Background(), models.ExternalMovie{TMDBID: tmdbID, Title: title})
	if err != nil {
		t.Fatalf("failed to seed movie: %v", err)
	}
	return movie
}
