package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"social-service/internal/config"
	"social-service/internal/db"
	"social-service/internal/handlers"
	"social-service/internal/metrics"
	"social-service/internal/middleware"
	"social-service/internal/observability"
	"social-service/internal/rabbitmq"
	"social-service/internal/ratelimit"
	"social-service/internal/repositories"
	"social-service/internal/services"
	"social-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if cfg.Database.DSN == "" || cfg.Auth.JWTSecret == "" {
		log.Fatal("DATABASE_DSN and AUTH_JWT_SECRET must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	publisher := rabbitmq.NewNoopPublisher()
	if cfg.AMQP.URL == "" {
		log.Printf("warning: AMQP URL not set; event publishing disabled")
	} else {
		pub, err := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.EventsExchange)
		if err != nil {
			log.Printf("warning: failed to initialize RabbitMQ publisher: %v", err)
		} else {
			publisher = pub
		}
	}
	defer publisher.Close()

	auditPublisher := rabbitmq.NewNoopPublisher()
	if cfg.AMQP.URL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.LogsExchange)
		if err != nil {
			log.Printf("warning: failed to initialize RabbitMQ audit publisher: %v", err)
		} else {
			auditPublisher = pub
		}
	}
	defer auditPublisher.Close()

	observability.InitMetrics(prometheus.DefaultRegisterer)
	metrics.RegisterRelationshipMetrics()

	store := repositories.NewRelationshipStore(database)
	entryRepo := repositories.NewEntryRepository(database)
	accounts := services.NewAccountClient(cfg.Accounts.BaseURL)

	relationshipQueries := services.NewRelationshipQueryService(store)
	friendships := services.NewFriendshipService(store, accounts, publisher)
	visibility := services.NewVisibilityResolver(relationshipQueries)

	auditEmitter := telemetry.NewAuditEmitter(auditPublisher, cfg.ServiceName, cfg.Environment)
	friendHandler := handlers.NewFriendHandler(friendships, relationshipQueries, accounts, auditEmitter)
	entryHandler := handlers.NewEntryHandler(entryRepo, visibility)

	governor := ratelimit.NewGovernor()

	r := gin.Default()
	r.Use(gin.Logger(), gin.Recovery(), middleware.Metrics())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	feed := r.Group("", middleware.JWTIdentity(cfg.Auth.JWTSecret))
	feed.GET("/entries", entryHandler.ListFeed)
	feed.GET("/entries/:id", entryHandler.GetEntry)

	auth := r.Group("", middleware.JWTAuth(cfg.Auth.JWTSecret))
	auth.GET("/friends", friendHandler.ListFriends)
	auth.GET("/users/:id/relationship", friendHandler.GetRelationship)

	mutations := auth.Group("", ratelimit.Middleware(governor, "friends.mutate", cfg.RateLimit.Window, cfg.RateLimit.Capacity))
	mutations.POST("/friends/request", friendHandler.SendRequest)
	mutations.POST("/friends/requests/:id/decline", friendHandler.DeclineRequest)
	mutations.DELETE("/friends/requests/:id", friendHandler.DeleteRequest)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
}
