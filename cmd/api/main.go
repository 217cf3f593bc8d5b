package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lws-dev/hiring/backend/internal/ai"
	"github.com/lws-dev/hiring/backend/internal/config"
	"github.com/lws-dev/hiring/backend/internal/domain"
	"github.com/lws-dev/hiring/backend/internal/extract"
	"github.com/lws-dev/hiring/backend/internal/handler"
	"github.com/lws-dev/hiring/backend/internal/queue"
	"github.com/lws-dev/hiring/backend/internal/repository"
	"github.com/lws-dev/hiring/backend/internal/storage"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * config
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("could not load config", "error", err)
		return
	}

	/**********************************************
	 * database
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("could not create database pool", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open does not connect
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("could not connect to database", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("could not connect to rabbitmq", "error", err)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("could not open channel", "error", err)
		return
	}
	defer ch.Close()

	if err := queue.Declare(ch, domain.EmailQueue, domain.ScreeningQueue); err != nil {
		logger.Error("could not declare queues", "error", err)
		return
	}

	publisher := queue.NewPublisher(ch, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)

	/**********************************************
	 * redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer rdb.Close()

	/**********************************************
	 * object storage
	 **********************************************/
	store, err := storage.NewClient(cfg)
	if err != nil {
		logger.Error("could not create storage client", "error", err)
		return
	}

	if err := store.EnsureBucket(ctx); err != nil {
		logger.Error("could not prepare bucket", "bucket", cfg.Storage.Bucket, "error", err)
		return
	}

	/**********************************************
	 * ai
	 **********************************************/
	completer, err := ai.NewCompleter(context.Background(), cfg)
	if err != nil {
		logger.Error("could not create ai client", "provider", cfg.AI.Provider, "error", err)
		return
	}
	assistant := ai.NewAssistant(completer, time.Duration(cfg.AI.Timeout)*time.Second)

	/**********************************************
	 * handler
	 **********************************************/
	handler, err := handler.NewHandler(cfg, handler.Dependencies{
		Repository:  repo,
		Publisher:   publisher,
		RedisClient: rdb,
		Store:       store,
		Assistant:   assistant,
		Fetcher:     extract.NewFetcher(time.Duration(cfg.AI.Timeout) * time.Second),
	})
	if err != nil {
		logger.Error("could not create handler", "error", err)
		return
	}
	handler.RegisterRoutes()

	/**********************************************
	 * http server
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", "port", cfg.Server.Port, "aiProvider", cfg.AI.Provider)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped", slog.String("error", err.Error()))
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	logger.Info("shutting down server")

	ctx, cancel = context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("could not shut down server", slog.String("error", err.Error()))
	}
	logger.Info("server stopped gracefully")
}
