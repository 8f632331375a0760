// Command libinspect loads an eXoDOS data directory read-only and prints
// what the backend would see: platforms per library, playlists, load
// errors and, optionally, the first results of a search.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/colin969/exodos-launcher/internal/cache"
	"github.com/colin969/exodos-launcher/internal/domain"
	"github.com/colin969/exodos-launcher/internal/launchbox"
	"github.com/colin969/exodos-launcher/internal/service"
	"github.com/colin969/exodos-launcher/internal/store"
	"github.com/colin969/exodos-launcher/internal/taskqueue"
)

func main() {
	exodos := flag.String("exodos-path", os.Getenv("EXODOS_PATH"), "Root of the eXoDOS install")
	library := flag.String("library", "", "Library to search (empty: all)")
	text := flag.String("search", "", "Search text to try against the loaded games")
	limit := flag.Int("limit", 10, "Search results to print")
	flag.Parse()

	if *exodos == "" {
		log.Fatal("set -exodos-path or EXODOS_PATH")
	}
	platformsDir := filepath.Join(*exodos, "Data", "Platforms")
	playlistsDir := filepath.Join(*exodos, "Data", "Playlists")

	games := store.New(nil, "arcade")
	playlists := store.NewPlaylistStore(nil)
	svc := service.New(service.Deps{
		Games:     games,
		Playlists: playlists,
		Cache:     cache.New(games, playlists, cache.Options{}),
		Queue:     taskqueue.New(nil),
		// Nothing is ever written.
		PlatformWriter: launchbox.NewPlatformWriter(launchbox.WriteDisabled, nil),
		PlaylistWriter: launchbox.NewPlaylistWriter(launchbox.WriteDisabled, nil),
	}, service.Config{PlatformsPath: platformsDir, PlaylistsPath: playlistsDir})

	ctx := context.Background()

	fmt.Println("=== Platforms ===")
	loaded, err := svc.LoadPlatforms(ctx, "")
	if err != nil {
		log.Fatalf("Failed to load platforms: %v", err)
	}
	totalGames := 0
	perLibrary := make(map[string]int)
	for _, p := range loaded.Platforms {
		fmt.Printf("  %-40s %-10s %6d games\n", p.Name, p.Library, p.GameCount)
		totalGames += p.GameCount
		perLibrary[p.Library] += p.GameCount
	}
	fmt.Printf("  %d platforms, %d games\n", len(loaded.Platforms), totalGames)
	for _, lib := range games.Libraries() {
		fmt.Printf("  library %-10s %6d games\n", lib, perLibrary[lib])
	}
	printErrors(loaded.Errors)

	fmt.Println()
	fmt.Println("=== Playlists ===")
	lists, err := svc.LoadPlaylists(ctx, "")
	if err != nil {
		fmt.Printf("  not loaded: %v\n", err)
	} else {
		all, _ := svc.Playlists(ctx)
		for _, p := range all {
			res, _ := svc.PlaylistGames(ctx, p.ID)
			fmt.Printf("  %-40s %5d games %5d missing\n", p.Title, len(res.Games), len(res.Missing))
		}
		printErrors(lists.Errors)
	}

	if *text != "" {
		fmt.Println()
		fmt.Printf("=== Search %q ===\n", *text)
		page, err := svc.Search(ctx, service.SearchRequest{
			Query: domain.Query{Text: *text, Library: *library},
			Limit: *limit,
		})
		if err != nil {
			log.Fatalf("Search failed: %v", err)
		}
		for _, g := range page.Games {
			fmt.Printf("  %-50s %-8s %s\n", g.Title, releaseYear(g.ReleaseDate), g.Platform)
		}
		fmt.Printf("  %d matches\n", page.Total)
	}

	stats := svc.Stats()
	fmt.Println()
	fmt.Println("=== Cache ===")
	fmt.Printf("  %d views, %d hits, %d misses\n", stats.Cache.Views, stats.Cache.Hits, stats.Cache.Misses)
}

func printErrors(errs []*store.LoadError) {
	for _, le := range errs {
		fmt.Printf("  ! %s: %s\n", le.FilePath, le.Cause)
	}
}

func releaseYear(date string) string {
	if len(date) < 4 {
		return date
	}
	return date[:4]
}
