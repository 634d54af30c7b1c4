package main

import (
	"context"
	"flag"
	"log"

	"bookcatalogue/internal/config"
	"bookcatalogue/internal/platform/logging"
	"bookcatalogue/internal/store"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func main() {
	var (
		from = flag.String("from", "file", "Source backend: file, sqlite, postgres, mongo, s3")
		to   = flag.String("to", "postgres", "Destination backend: file, sqlite, postgres, mongo, s3")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger, err := logging.New(cfg.Development())
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(context.Background(), cfg.Storage, *from, *to, logger); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
}

func run(ctx context.Context, base config.Storage, from, to string, logger *zap.Logger) (err error) {
	if err := checkPair(from, to); err != nil {
		return err
	}
	srcCfg, err := storageFor(base, from)
	if err != nil {
		return err
	}
	dstCfg, err := storageFor(base, to)
	if err != nil {
		return err
	}

	src, err := store.Open(ctx, srcCfg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, src.Close()) }()

	dst, err := store.Open(ctx, dstCfg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dst.Close()) }()

	books, reviews, err := copySnapshots(ctx, src, dst)
	if err != nil {
		return err
	}
	logger.Info("catalogue copied",
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("books", books),
		zap.Int("reviews", reviews),
	)
	return nil
}
