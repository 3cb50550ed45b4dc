package playlists_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"cinetrack/internal/database"
	"cinetrack/models"
	"cinetrack/services/accounts"
	"cinetrack/services/catalog"
	"cinetrack/services/diary"
	"cinetrack/services/playlists"
)

type fixture struct {
	db        *sql.DB
	playlists *playlists.Service
	catalog   *catalog.Service
	owner     int64
	stranger  int64
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	accountsSvc := accounts.NewService(db)
	owner, err := accountsSvc.Signup(ctx, "owner@example.com", "secret")
	if err != nil {
		t.Fatalf("failed to create owner: %v", err)
	}
	stranger, err := accountsSvc.Signup(ctx, "stranger@example.com", "secret")
	if err != nil {
		t.Fatalf("failed to create second user: %v", err)
	}

	catalogSvc := catalog.NewService(db)
	return fixture{
		db:        db,
		playlists: playlists.NewService(db, catalogSvc),
		catalog:   catalogSvc,
		owner:     owner.ID,
		stranger:  stranger.ID,
	}
}

func (f fixture) seedMovie(t *testing.T, tmdbID int64, title string) models.Movie {
	t.Helper()
	movie, err := f.catalog.EnsureLocal(context.Background(), models.ExternalMovie{TMDBID: tmdbID, Title: title})
	if err != nil {
		t.Fatalf("failed to seed movie: %v", err)
	}
	return movie
}

func TestCreateAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.playlists.Create(ctx, f.owner, "  Favorites  ")
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if created.Name != "Favorites" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}
	if created.MovieCount != 0 {
		t.Fatalf("expected empty playlist, got count %d", created.MovieCount)
	}

	if _, err := f.playlists.Create(ctx, f.owner, "   "); !errors.Is(err, playlists.ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}

	// The other user sees none of the owner's playlists.
	lists, err := f.playlists.List(ctx, f.stranger)
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if len(lists) != 0 {
		t.Fatalf("expected no playlists for other user, got %d", len(lists))
	}

	lists, err = f.playlists.List(ctx, f.owner)
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if len(lists) != 1 || lists[0].ID != created.ID {
		t.Fatalf("unexpected owner playlists: %+v", lists)
	}
}

func TestAddMovieDuplicateConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	movie := f.seedMovie(t, 1, "One")

	playlist, err := f.playlists.Create(ctx, f.owner, "Favorites")
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	if _, err := f.playlists.AddMovie(ctx, playlist.ID, f.owner, models.LocalRef(movie.ID)); err != nil {
		t.Fatalf("first add returned error: %v", err)
	}
	if _, err := f.playlists.AddMovie(ctx, playlist.ID, f.owner, models.LocalRef(movie.ID)); !errors.Is(err, playlists.ErrAlreadyInPlaylist) {
		t.Fatalf("expected ErrAlreadyInPlaylist, got %v", err)
	}

	// The duplicate attempt must not inflate the count.
	lists, err := f.playlists.List(ctx, f.owner)
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if lists[0].MovieCount != 1 {
		t.Fatalf("expected count 1 after duplicate add, got %d", lists[0].MovieCount)
	}
}

func TestAddMovieOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	movie := f.seedMovie(t, 1, "One")

	playlist, err := f.playlists.Create(ctx, f.owner, "Private")
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	if _, err := f.playlists.AddMovie(ctx, playlist.ID, f.stranger, models.LocalRef(movie.ID)); !errors.Is(err, playlists.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if _, err := f.playlists.AddMovie(ctx, 9999, f.owner, models.LocalRef(movie.ID)); !errors.Is(err, playlists.ErrPlaylistNotFound) {
		t.Fatalf("expected ErrPlaylistNotFound, got %v", err)
	}
}

func TestAddMovieSyncsExternal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	playlist, err := f.playlists.Create(ctx, f.owner, "Imports")
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	movieID, err := f.playlists.AddMovie(ctx, playlist.ID, f.owner,
		models.ExternalRef(models.ExternalMovie{TMDBID: 42, Title: "Imported"}))
	if err != nil {
		t.Fatalf("add returned error: %v", err)
	}

	movie, err := f.catalog.Get(ctx, movieID)
	if err != nil {
		t.Fatalf("expected imported movie to exist: %v", err)
	}
	if movie.TMDBID == nil || *movie.TMDBID != 42 {
		t.Fatalf("expected tmdb id 42, got %v", movie.TMDBID)
	}
}

func TestMoviesFlattensCallerDiary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rated := f.seedMovie(t, 1, "Rated")
	unrated := f.seedMovie(t, 2, "Unrated")

	playlist, err := f.playlists.Create(ctx, f.owner, "Mixed")
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	for _, m := range []models.Movie{rated, unrated} {
		if _, err := f.playlists.AddMovie(ctx, playlist.ID, f.owner, models.LocalRef(m.ID)); err != nil {
			t.Fatalf("add returned error: %v", err)
		}
	}

	status := models.StatusWatched
	rating := 8
	review := "Solid"
	diarySvc := diary.NewService(f.db, f.catalog)
	if _, err := diarySvc.SetEntry(ctx, f.owner, models.LocalRef(rated.ID), models.DiaryUpdate{
		Status: &status, Rating: &rating, Review: &review,
	}); err != nil {
		t.Fatalf("diary write returned error: %v", err)
	}

	contents, err := f.playlists.Movies(ctx, playlist.ID, f.owner)
	if err != nil {
		t.Fatalf("movies returned error: %v", err)
	}
	if contents.Name != "Mixed" {
		t.Fatalf("expected playlist name, got %q", contents.Name)
	}
	if len(contents.Movies) != 2 {
		t.Fatalf("expected 2 movies, got %d", len(contents.Movies))
	}

	first := contents.Movies[0]
	if first.Status != models.StatusWatched || first.Rating != 8 || first.Review != "Solid" {
		t.Fatalf("expected caller's diary fields on rated movie, got %+v", first)
	}
	second := contents.Movies[1]
	if second.Status != models.StatusPlanToWatch || second.Rating != 0 || second.Review != "" {
		t.Fatalf("expected diary defaults on unrated movie, got %+v", second)
	}

	// Another user sees the same membership but their own (empty) diary.
	contents, err = f.playlists.Movies(ctx, playlist.ID, f.stranger)
	if err != nil {
		t.Fatalf("movies for other user returned error: %v", err)
	}
	if contents.Movies[0].Status != models.StatusPlanToWatch || contents.Movies[0].Rating != 0 {
		t.Fatalf("expected defaults for other user's view, got %+v", contents.Movies[0])
	}
}

func TestRemoveMovie(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	movie := f.seedMovie(t, 1, "One")

	playlist, err := f.playlists.Create(ctx, f.owner, "Shrinking")
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if _, err := f.playlists.AddMovie(ctx, playlist.ID, f.owner, models.LocalRef(movie.ID)); err != nil {
		t.Fatalf("add returned error: %v", err)
	}

	if err := f.playlists.RemoveMovie(ctx, playlist.ID, movie.ID, f.stranger); !errors.Is(err, playlists.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := f.playlists.RemoveMovie(ctx, playlist.ID, movie.ID, f.owner); err != nil {
		t.Fatalf("remove returned error: %v", err)
	}
	if err := f.playlists.RemoveMovie(ctx, playlist.ID, movie.ID, f.owner); !errors.Is(err, playlists.ErrMovieNotInPlaylist) {
		t.Fatalf("expected ErrMovieNotInPlaylist, got %v", err)
	}
}

func TestDeleteRemovesMemberships(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	movie := f.seedMovie(t, 1, "One")

	playlist, err := f.playlists.Create(ctx, f.owner, "Doomed")
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if _, err := f.playlists.AddMovie(ctx, playlist.ID, f.owner, models.LocalRef(movie.ID)); err != nil {
		t.Fatalf("add returned error: %v", err)
	}

	if err := f.playlists.Delete(ctx, playlist.ID, f.stranger); !errors.Is(err, playlists.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := f.playlists.Delete(ctx, playlist.ID, f.owner); err != nil {
		t.Fatalf("delete returned error: %v", err)
	}

	if _, err := f.playlists.Movies(ctx, playlist.ID, f.owner); !errors.Is(err, playlists.ErrPlaylistNotFound) {
		t.Fatalf("expected ErrPlaylistNotFound after delete, got %v", err)
	}

	var orphans int
	if err := f.db.QueryRow(
		"SELECT COUNT(*) FROM playlist_movies WHERE playlist_id = ?", playlist.ID).Scan(&orphans); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("expected membership rows to be deleted, found %d", orphans)
	}
}
