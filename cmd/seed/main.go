// Command seed replaces the stored level-1 questions with the embedded
// catalog and drops the cached copies.
package main

import (
	"context"
	"flag"
	"time"

	"digitalmaturity/internal/cache"
	"digitalmaturity/internal/config"
	"digitalmaturity/internal/logger"
	"digitalmaturity/internal/repository"
	"digitalmaturity/internal/service"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	onlyIfEmpty := flag.Bool("if-empty", false, "seed only when the questions collection is empty")
	skipCache := flag.Bool("skip-cache", false, "do not invalidate the Redis catalog cache")
	flag.Parse()

	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("failed to connect to MongoDB", "error", err)
	}
	defer client.Disconnect(context.Background())
	db := client.Database(cfg.MongoDB)

	var catalogCache cache.CatalogCache
	if !*skipCache {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr()})
		defer rdb.Close()
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Fatal("failed to ping Redis", "error", err)
		}
		catalogCache = cache.NewCatalogCache(rdb, cfg.CatalogCacheTTL)
	}

	questions := service.NewQuestionService(
		repository.NewQuestionRepo(db),
		repository.NewAssessmentRepo(db),
		catalogCache,
		log,
	)

	if *onlyIfEmpty {
		seeded, err := questions.SeedIfEmpty(ctx)
		if err != nil {
			log.Fatal("seed failed", "error", err)
		}
		log.Info("seed finished", "seeded", seeded)
		return
	}

	n, err := questions.Seed(ctx)
	if err != nil {
		log.Fatal("seed failed", "error", err)
	}
	log.Info("level-1 questions seeded", "count", n, "database", cfg.MongoDB)
}
