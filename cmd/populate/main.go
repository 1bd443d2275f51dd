// Command populate seeds the Rango database with a few categories and pages.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"rango/utils"
)

func main() {
	cfg, err := utils.LoadConfig()
	if err != nil {
		panic(err)
	}

	log, err := utils.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()
	zap.ReplaceGlobals(log)

	log.Info("starting Rango population script")

	ctx := context.Background()
	dbPool, err := utils.OpenDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	store := utils.NewStore(dbPool)
	if err := store.Migrate(ctx); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	if err := populate(ctx, store, SeedData()); err != nil {
		log.Fatal("population failed", zap.Error(err))
	}

	if err := report(ctx, store, os.Stdout); err != nil {
		log.Fatal("listing populated data", zap.Error(err))
	}
}

// report prints every category with its pages.
func report(ctx context.Context, store *utils.Store, out io.Writer) error {
	categories, err := store.AllCategories(ctx)
	if err != nil {
		return err
	}
	for _, c := range categories {
		pages, err := store.PagesByCategory(ctx, c.ID)
		if err != nil {
			return err
		}
		for _, p := range pages {
			fmt.Fprintf(out, "- %s: %s\n", c, p)
		}
	}
	return nil
}
