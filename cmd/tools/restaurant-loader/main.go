// cmd/tools/restaurant-loader/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"zomato-recommender/internal/common/config"
	"zomato-recommender/internal/common/database"
	"zomato-recommender/internal/common/logger"
	"zomato-recommender/internal/recommendation/dedup"
	"zomato-recommender/internal/store"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (defaults to configs/config.yaml)")
	inputPath := flag.String("input", "-", "JSON array or JSON lines file of raw restaurant rows, - for stdin")
	index := flag.Bool("index", false, "Also bulk index the inserted rows into Elasticsearch")
	dryRun := flag.Bool("dry-run", false, "Normalize and dedup only; print counts without writing")
	flag.Parse()

	if err := run(*configPath, *inputPath, *index, *dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "restaurant-loader: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, inputPath string, index, dryRun bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log := logger.NewStructured(cfg.Logging.Level, "console")

	rows, err := readInput(inputPath)
	if err != nil {
		return err
	}

	normalized, skipped := normalizeAll(rows)
	unique := dedup.Restaurants(normalized)
	log.Info("rows normalized", map[string]interface{}{
		"read":       len(rows),
		"skipped":    skipped,
		"duplicates": len(normalized) - len(unique),
		"unique":     len(unique),
	})

	if dryRun || len(unique) == 0 {
		fmt.Printf("%d restaurants ready (dry run: %t)\n", len(unique), dryRun)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var pg *database.PostgresClient
	err = database.ConnectWithRetry(ctx, func(ctx context.Context) error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 5, time.Second, log, "PostgreSQL connection")
	if err != nil {
		return err
	}
	defer pg.Close()

	pgStore := store.NewPostgresStore(pg.DB)
	if err := pgStore.EnsureSchema(ctx); err != nil {
		return err
	}

	inserted, err := pgStore.InsertRestaurants(ctx, unique)
	if err != nil {
		return err
	}
	log.Info("restaurants inserted", map[string]interface{}{"count": len(inserted)})

	if index {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		indexed, err := store.NewElasticsearchStore(es.Client, cfg.Store.Elasticsearch.Index, cfg.Store.Elasticsearch.MaxDocuments).
			IndexRestaurants(ctx, inserted)
		if err != nil {
			return err
		}
		log.Info("restaurants indexed", map[string]interface{}{
			"count": indexed,
			"index": cfg.Store.Elasticsearch.Index,
		})
	}

	if cfg.Database.Redis.Address != "" {
		rdb, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()

		cached := store.NewCachedStore(pgStore, rdb.Client, config.GetDuration(cfg.Cache.TTL), log)
		if err := cached.Invalidate(ctx); err != nil {
			log.Warn("listing cache invalidation failed", map[string]interface{}{"error": err})
		}
	}

	fmt.Printf("%d restaurants loaded\n", len(inserted))
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func readInput(path string) ([]rawRow, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	return readRows(r)
}
