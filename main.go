package main

import (
	"context"
	"log"
	"os"
	"time"

	"docqa/internal/api"
	"docqa/internal/artifact"
	"docqa/internal/cache"
	"docqa/internal/config"
	"docqa/internal/extract"
	"docqa/internal/integrations/github"
	"docqa/internal/integrations/vercel"
	"docqa/internal/prompt"
	"docqa/internal/redis"
	"docqa/internal/service/ai"
	"docqa/internal/service/assistant"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := os.Getenv("DOCQA_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mirror artifact.Mirror
	if cfg.Artifacts.S3.Enabled {
		s3, err := artifact.NewS3Mirror(cfg.Artifacts.S3)
		if err != nil {
			log.Fatalf("init artifact mirror: %v", err)
		}
		mirror = s3
	}
	store, err := artifact.NewLocalStore(cfg.Artifacts.Dir, mirror)
	if err != nil {
		log.Fatalf("init artifact store: %v", err)
	}
	retention := time.Duration(cfg.Artifacts.Retention) * time.Minute
	artifact.NewCleaner(store.Dir(), retention).
		Start(ctx, time.Duration(cfg.Artifacts.CleanInterval)*time.Minute)

	var answers cache.Store
	cacheTTL := time.Duration(cfg.Cache.TTL) * time.Minute
	switch cfg.Cache.Backend {
	case "memory":
		answers = cache.NewMemoryStore(cfg.Cache.Size, cacheTTL)
	case "redis":
		rdb, err := redis.NewRedisClient(ctx, cfg, cache.KeyPrefix)
		if err != nil {
			log.Fatalf("create redis client: %v", err)
		}
		defer rdb.Close()
		answers = cache.NewRedisStore(rdb, cacheTTL)
	}

	llm, err := ai.NewClient(ctx, cfg, answers)
	if err != nil {
		log.Fatalf("init llm client: %v", err)
	}

	opts := assistant.Options{}
	if cfg.GitHubEnabled() {
		finder, err := github.NewFinder(cfg.GitHub)
		if err != nil {
			log.Fatalf("init github finder: %v", err)
		}
		opts.Repos = finder
	}
	if cfg.Deploy.Enabled {
		opts.Deployer = vercel.NewDeployer(cfg.Deploy)
	}

	extractor := extract.New(store, extract.Options{
		Limit:  cfg.Extraction.ContextCap,
		Strict: cfg.StrictExtraction(),
	})
	assistantService := assistant.NewService(extractor, prompt.NewComposer(cfg.Prompt), llm, opts)
	log.Printf("provider: %s, prompt mode: %s\n", cfg.LLM.Provider, cfg.Prompt.Mode)

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"*"},
		ExposeHeaders:   []string{api.OutcomeHeader, "Content-Disposition"},
	}))
	api.NewHandler(assistantService, cfg.BasicConfig.MaxUploadBytes).RegisterRoutes(router)

	if err := router.Run(cfg.BasicConfig.ServerAddress); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
