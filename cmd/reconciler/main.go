package main

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"storyreel/internal/adapter/repo"
	"storyreel/internal/infra"
	"storyreel/internal/pipeline"
	"storyreel/internal/providers/video"
	"storyreel/internal/storage"
)

// The reconciler drains the async video queue: each task polls one
// submitted vendor job until it resolves, then persists the media and
// settles the ledger.
func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	store, err := newStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}

	videoClient, err := video.NewClient(video.Options{
		APIKey:  cfg.VideoAPIKey,
		Model:   cfg.VideoModel,
		BaseURL: cfg.VideoBaseURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize video provider")
	}

	scenes := repo.NewSceneRepository(dbpool)
	artifacts := repo.NewArtifactRepository(dbpool)

	reconciler := pipeline.NewReconciler(pipeline.ReconcilerConfig{
		Ledger:    scenes,
		Artifacts: artifacts,
		Store:     store,
		Video:     videoClient,
		Fetcher:   pipeline.NewHTTPFetcher(nil),
		Logger:    logger,
		Interval:  cfg.ReconcileInterval,
		Ceiling:   cfg.ReconcileCeiling,
	})
	worker := pipeline.NewWorker(reconciler, logger)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword},
		asynq.Config{Concurrency: cfg.WorkerConcurrency},
	)

	logger.Info().Int("concurrency", cfg.WorkerConcurrency).Msg("reconciler worker starting")
	if err := srv.Run(worker.Mux()); err != nil {
		logger.Fatal().Err(err).Msg("worker failed")
	}
}

func newStore(ctx context.Context, cfg *infra.Config) (storage.Store, error) {
	if cfg.MinioEndpoint != "" {
		store, err := storage.NewMinioStore(ctx, storage.MinioOptions{
			Endpoint:      cfg.MinioEndpoint,
			AccessKey:     cfg.MinioAccessKey,
			SecretKey:     cfg.MinioSecretKey,
			Bucket:        cfg.MinioBucket,
			UseSSL:        cfg.MinioUseSSL,
			PublicBaseURL: cfg.StorageBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("minio store: %w", err)
		}
		return store, nil
	}
	return storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
}
