package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"digitalmaturity/internal/cache"
	"digitalmaturity/internal/config"
	"digitalmaturity/internal/event"
	"digitalmaturity/internal/logger"
	"digitalmaturity/internal/repository"
	"digitalmaturity/internal/scoring"
	"digitalmaturity/internal/service"
	"digitalmaturity/internal/transport/rest"
	"digitalmaturity/internal/transport/rest/middleware"
	"digitalmaturity/internal/transport/ws"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("failed to connect to MongoDB", "error", err)
	}
	defer mongoClient.Disconnect(context.Background())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("failed to ping MongoDB", "error", err)
	}
	log.Info("connected to MongoDB", "database", cfg.MongoDB)

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr()})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("failed to ping Redis", "error", err)
	}
	log.Info("connected to Redis", "addr", cfg.RedisAddr())

	publisher, err := event.NewRabbitPublisher(cfg.RabbitURI, cfg.RabbitExchange, log)
	if err != nil {
		log.Fatal("failed to connect to RabbitMQ", "error", err)
	}
	defer publisher.Close()
	if !publisher.Enabled() {
		log.Warn("RABBITMQ_URI not set, domain events are disabled")
	}

	// Repositories
	orgRepo := repository.NewOrganizationRepo(db)
	assessmentRepo := repository.NewAssessmentRepo(db)
	questionRepo := repository.NewQuestionRepo(db)

	indexCtx, indexCancel := context.WithTimeout(ctx, 10*time.Second)
	defer indexCancel()
	if err := orgRepo.EnsureIndexes(indexCtx); err != nil {
		log.Fatal("failed to create organization indexes", "error", err)
	}
	if err := assessmentRepo.EnsureIndexes(indexCtx); err != nil {
		log.Fatal("failed to create assessment indexes", "error", err)
	}

	// Caches
	catalogCache := cache.NewCatalogCache(rdb, cfg.CatalogCacheTTL)
	statsCache := cache.NewStatsCache(rdb, cfg.StatsCacheTTL)

	wsHub := ws.NewHub(log)
	defer wsHub.Close()

	// Services
	engine := scoring.NewEngine(scoring.Config{
		TargetScore:    scoring.MaxScore,
		HighGapAbove:   cfg.PriorityHighGap,
		MediumGapAbove: cfg.PriorityMediumGap,
	})
	authSvc := service.NewAuthService(orgRepo, publisher, service.AuthConfig{
		JWTSecret:   cfg.JWTSecret,
		AdminSecret: cfg.AdminSecret,
		TokenTTL:    cfg.TokenTTL,
	}, log)
	questionSvc := service.NewQuestionService(questionRepo, assessmentRepo, catalogCache, log)
	assessmentSvc := service.NewAssessmentService(assessmentRepo, orgRepo, questionSvc, engine, statsCache, publisher, log)
	adminSvc := service.NewAdminService(orgRepo, assessmentRepo, assessmentSvc, questionSvc, statsCache, publisher, log)

	// wsHub implements service.Broadcaster
	assessmentSvc.SetBroadcaster(wsHub)
	adminSvc.SetBroadcaster(wsHub)

	if seeded, err := questionSvc.SeedIfEmpty(ctx); err != nil {
		log.Fatal("failed to seed questions", "error", err)
	} else if seeded {
		log.Info("seeded level-1 questions from the embedded catalog")
	}

	router := rest.NewRouter(&rest.Container{
		AuthService:       authSvc,
		QuestionService:   questionSvc,
		AssessmentService: assessmentSvc,
		AdminService:      adminSvc,
		WSHub:             wsHub,
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: cfg.CORSAllowedMethods,
			AllowedHeaders: cfg.CORSAllowedHeaders,
		},
		Logger: log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	log.Info("server exited")
}
