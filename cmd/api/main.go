package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"storyreel/internal/adapter/repo"
	"storyreel/internal/http/handlers"
	httpapi "storyreel/internal/http/httpapi"
	"storyreel/internal/infra"
	"storyreel/internal/pipeline"
	"storyreel/internal/providers/image"
	"storyreel/internal/providers/storyboard"
	"storyreel/internal/providers/video"
	"storyreel/internal/storage"
)

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

	redisClient, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	defer redisClient.Close()

	store, err := newStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}

	storyboardClient, err := storyboard.NewClient(storyboard.Options{
		APIKey:  cfg.StoryboardAPIKey,
		Model:   cfg.StoryboardModel,
		BaseURL: cfg.StoryboardBaseURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storyboard provider")
	}
	imageClient, err := image.NewClient(image.Options{
		APIKey:  cfg.ImageAPIKey,
		Model:   cfg.ImageModel,
		BaseURL: cfg.ImageBaseURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize image provider")
	}
	videoClient, err := video.NewClient(video.Options{
		APIKey:  cfg.VideoAPIKey,
		Model:   cfg.VideoModel,
		BaseURL: cfg.VideoBaseURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize video provider")
	}

	projects := repo.NewProjectRepository(dbpool)
	scenes := repo.NewSceneRepository(dbpool)
	artifacts := repo.NewArtifactRepository(dbpool)

	queue := pipeline.NewQueue(cfg.RedisAddr, cfg.RedisPassword)
	defer queue.Close()

	fetcher := pipeline.NewHTTPFetcher(nil)
	generator := pipeline.NewGenerator(pipeline.GeneratorConfig{
		Projects:  projects,
		Ledger:    scenes,
		Artifacts: artifacts,
		Store:     store,
		Image:     imageClient,
		Video:     videoClient,
		Fetcher:   fetcher,
		Queue:     queue,
		Logger:    logger,
	})
	batch := pipeline.NewBatch(projects, scenes, generator, logger)
	reconciler := pipeline.NewReconciler(pipeline.ReconcilerConfig{
		Ledger:    scenes,
		Artifacts: artifacts,
		Store:     store,
		Video:     videoClient,
		Fetcher:   fetcher,
		Logger:    logger,
		Interval:  cfg.ReconcileInterval,
		Ceiling:   cfg.ReconcileCeiling,
	})

	app := handlers.NewApp(logger)
	app.Projects = projects
	app.Scenes = scenes
	app.Artifacts = artifacts
	app.Storyboard = storyboardClient
	app.Generator = generator
	app.Batch = batch
	app.Reconciler = reconciler

	routerCfg := httpapi.RouterConfig{
		JWTSecret:       cfg.JWTSecret,
		RateLimiter:     redisClient,
		RateLimitPerMin: cfg.RateLimitPerMin,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
	}
	if cfg.MinioEndpoint == "" {
		routerCfg.StaticDir = cfg.StoragePath
	}
	router := httpapi.NewRouter(app, routerCfg)

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
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
