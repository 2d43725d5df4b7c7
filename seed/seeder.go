// Package seed repopulates the catalog collections from JSON fixtures.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/annazecevic/catalog-service/domain"
	"github.com/annazecevic/catalog-service/logger"
	"github.com/annazecevic/catalog-service/repository"
)

// SongFilter keeps songs released before MaxYear whose genre contains Genre,
// ignoring case. A zero MaxYear or empty Genre disables that condition.
type SongFilter struct {
	MaxYear int
	Genre   string
}

func (f SongFilter) Keep(s domain.Song) bool {
	if f.MaxYear > 0 && s.Year >= f.MaxYear {
		return false
	}
	return strings.Contains(strings.ToLower(s.Genre), strings.ToLower(f.Genre))
}

type Result struct {
	Artists int
	Songs   int
	Skipped int
}

type Seeder struct {
	store repository.Store
}

func NewSeeder(store repository.Store) *Seeder {
	return &Seeder{store: store}
}

// Seed clears both collections, inserts every artist and the songs the
// filter keeps.
func (s *Seeder) Seed(ctx context.Context, artistsFile, songsFile string, filter SongFilter) (Result, error) {
	var res Result
	var artists []domain.Artist
	if err := readFixture(artistsFile, &artists); err != nil {
		return res, err
	}
	var songs []domain.Song
	if err := readFixture(songsFile, &songs); err != nil {
		return res, err
	}

	n, err := replace(ctx, s.store, domain.KindArtist, artists)
	if err != nil {
		return res, err
	}
	res.Artists = n

	kept := make([]domain.Song, 0, len(songs))
	for _, song := range songs {
		if filter.Keep(song) {
			kept = append(kept, song)
		}
	}
	res.Skipped = len(songs) - len(kept)
	if res.Songs, err = replace(ctx, s.store, domain.KindSong, kept); err != nil {
		return res, err
	}

	logger.Info(logger.EventSeed, "catalog seeded", logger.Fields(
		"artists", res.Artists,
		"songs", res.Songs,
		"skipped_songs", res.Skipped,
	))
	return res, nil
}

func replace[T any](ctx context.Context, store repository.Store, kind domain.Kind, records []T) (int, error) {
	col := store.Collection(kind.Collection())
	removed, err := col.DeleteMany(ctx, repository.Filter{})
	if err != nil {
		return 0, fmt.Errorf("clear %s: %w", kind, err)
	}
	logger.Info(logger.EventSeed, "collection cleared", logger.Fields("collection", kind, "removed", removed))
	// Only after clearing: duplicate Ids left in the old data would fail the index.
	if err := store.EnsureUniqueIndex(ctx, kind.Collection(), domain.IDField); err != nil {
		return 0, err
	}

	docs := make([]repository.Document, 0, len(records))
	for i := range records {
		doc, err := repository.ToDocument(&records[i])
		if err != nil {
			return 0, err
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return 0, nil
	}
	if err := col.InsertMany(ctx, docs); err != nil {
		return 0, fmt.Errorf("insert %s: %w", kind, err)
	}
	return len(docs), nil
}

func readFixture(path string, out interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("fixture %s not available: %w", path, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("fixture %s: %w", path, err)
	}
	return nil
}
