package main

import (
	"context"
	"errors"
	"log"

	"github.com/AbdallahIsmaili/DeepBTC/internal/cache"
	"github.com/AbdallahIsmaili/DeepBTC/internal/config"
	"github.com/AbdallahIsmaili/DeepBTC/internal/dataset"
	"github.com/AbdallahIsmaili/DeepBTC/internal/db"
	"github.com/AbdallahIsmaili/DeepBTC/internal/pipeline"
	"github.com/AbdallahIsmaili/DeepBTC/internal/repository"
	"github.com/AbdallahIsmaili/DeepBTC/pkg/tracing"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	initTracerFunc   = tracing.InitTracer
	initPostgresFunc = db.InitPostgres
	initRedisFunc    = cache.InitRedis
	loadSourcesFunc  = dataset.Load
	writeCSVFunc     = dataset.WriteCSV
	newRunRepoFunc   = func(pool repository.PgxPool, tracer trace.Tracer) *repository.RunRepository {
		return repository.NewRunRepository(pool, tracer)
	}
	fatalf = log.Fatalf
)

func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	sources, err := loadSourcesFunc(dataset.Paths{
		OHLCV:      cfg.OHLCVPath,
		Blockchain: cfg.BlockchainPath,
		Sentiment:  cfg.SentimentPath,
		Macro:      cfg.MacroPath,
	})
	if err != nil {
		fatalf("failed to load sources: %v", err)
	}

	pipe := pipeline.New(tracer, cfg.RetentionTarget)
	features, report, err := pipe.Run(ctx, sources)
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyResult) {
			fatalf("refusing to write an empty feature table: %v", err)
		}
		fatalf("pipeline failed: %v", err)
	}

	if err := writeCSVFunc(cfg.FeaturesPath, features); err != nil {
		fatalf("failed to write features: %v", err)
	}
	log.Printf("feature table written to %s (%d rows, %d columns)",
		cfg.FeaturesPath, features.Len(), features.NumCols())

	if db.Pool != nil {
		repo := newRunRepoFunc(db.Pool, tracer)
		if err := repo.RunMigrations(ctx); err != nil {
			log.Printf("failed to run migrations: %v", err)
		} else if err := repo.InsertRun(ctx, report); err != nil {
			log.Printf("failed to record run: %v", err)
		}
	}
	if err := cache.StoreLatestReport(ctx, report); err != nil {
		log.Printf("failed to cache run report: %v", err)
	}
}
