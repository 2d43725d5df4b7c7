package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/annazecevic/catalog-service/config"
	"github.com/annazecevic/catalog-service/logger"
	"github.com/annazecevic/catalog-service/repository"
	"github.com/annazecevic/catalog-service/seed"
	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.NewApp()
	app.Name = "seed"
	app.Usage = "Clear and repopulate the artists and songs collections from JSON fixtures."
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "artists",
			Value:   "data/artists.json",
			Usage:   "artists fixture file",
			EnvVars: []string{"SEED_ARTISTS_FILE"},
		},
		&cli.StringFlag{
			Name:    "songs",
			Value:   "data/songs.json",
			Usage:   "songs fixture file",
			EnvVars: []string{"SEED_SONGS_FILE"},
		},
		&cli.IntFlag{
			Name:    "max-year",
			Value:   2016,
			Usage:   "keep only songs released before this year, 0 keeps all",
			EnvVars: []string{"SEED_MAX_YEAR"},
		},
		&cli.StringFlag{
			Name:    "genre",
			Value:   "metal",
			Usage:   "keep only songs whose genre contains this text, empty keeps all",
			EnvVars: []string{"SEED_GENRE"},
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Value: time.Minute,
			Usage: "overall time limit",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger.Init(logger.Config{
		ServiceName: "catalog-seed",
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
		LogFilePath: cfg.LogFilePath,
		MaxSizeMB:   cfg.LogMaxSizeMB,
		MaxBackups:  cfg.LogMaxBackups,
		MaxAgeDays:  cfg.LogMaxAgeDays,
	})
	defer logger.GetLogger().Close()

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	store, err := repository.Open(ctx, repository.Options{
		Backend:       cfg.StoreBackend,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
		SQLitePath:    cfg.SQLitePath,
	})
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	defer store.Close(context.Background())

	res, err := seed.NewSeeder(store).Seed(ctx, c.String("artists"), c.String("songs"), seed.SongFilter{
		MaxYear: c.Int("max-year"),
		Genre:   c.String("genre"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Inserted %d artists and %d songs (%d songs filtered out).\n", res.Artists, res.Songs, res.Skipped)
	return nil
}
