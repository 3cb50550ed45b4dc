// Command seed wipes the local movie catalog and repopulates it from the
// current TMDB popular listings. Destructive: diary entries and playlist
// contents referencing the old catalog are removed as well.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/sourcegraph/conc/pool"

	"cinetrack/config"
	"cinetrack/internal/database"
	"cinetrack/models"
	"cinetrack/services/catalog"
	"cinetrack/services/tmdb"
)

func main() {
	var (
		configPath = flag.String("config", "cache/settings.json", "Path to backend settings.json")
		pages      = flag.Int("pages", 5, "Number of TMDB popular pages to fetch")
	)
	flag.Parse()

	mgr := config.NewManager(*configPath)
	settings, err := mgr.Load()
	if err != nil {
		log.Fatalf("load settings: %v", err)
	}
	if settings.TMDB.APIKey == "" {
		log.Fatalf("TMDB API key is not configured; set tmdb.apiKey in %s", *configPath)
	}

	db, err := database.Open(settings.Database.Path)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	client := tmdb.NewClient(settings.TMDB.APIKey, settings.TMDB.Language, nil)
	ctx := context.Background()

	genres, err := client.Genres(ctx)
	if err != nil {
		log.Fatalf("fetch genres: %v", err)
	}
	log.Printf("Fetched %d genres", len(genres))

	// Fetch the popular pages concurrently, keeping page order.
	results := make([][]models.ExternalMovie, *pages)
	p := pool.New().WithErrors().WithContext(ctx)
	for i := 0; i < *pages; i++ {
		p.Go(func(ctx context.Context) error {
			page := i + 1
			movies, err := client.Popular(ctx, page)
			if err != nil {
				return fmt.Errorf("fetch popular page %d: %w", page, err)
			}
			log.Printf("Fetched page %d (%d movies)", page, len(movies))
			results[i] = movies
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		log.Fatalf("fetch popular movies: %v", err)
	}

	inserted, err := catalog.NewService(db).Replace(ctx, results, genres)
	if err != nil {
		log.Fatalf("reseed catalog: %v", err)
	}
	log.Printf("Seeding complete: %d movies in catalog", inserted)
}
