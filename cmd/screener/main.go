package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lws-dev/hiring/backend/internal/ai"
	"github.com/lws-dev/hiring/backend/internal/config"
	"github.com/lws-dev/hiring/backend/internal/domain"
	"github.com/lws-dev/hiring/backend/internal/extract"
	"github.com/lws-dev/hiring/backend/internal/queue"
	"github.com/lws-dev/hiring/backend/internal/repository"
	"github.com/lws-dev/hiring/backend/internal/screening"
	"github.com/lws-dev/hiring/backend/internal/storage"
	amqp "github.com/rabbitmq/amqp091-go"

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

	if err := extract.SetLicense(cfg.Unidoc.LicenseKey); err != nil {
		logger.Error("could not set pdf license", "error", err)
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

	pingCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("could not connect to database", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * object storage and ai
	 **********************************************/
	store, err := storage.NewClient(cfg)
	if err != nil {
		logger.Error("could not create storage client", "error", err)
		return
	}

	completer, err := ai.NewCompleter(context.Background(), cfg)
	if err != nil {
		logger.Error("could not create ai client", "provider", cfg.AI.Provider, "error", err)
		return
	}
	assistant := ai.NewAssistant(completer, time.Duration(cfg.AI.Timeout)*time.Second)

	/**********************************************
	 * rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("could not connect to rabbitmq", "error", err)
		return
	}
	defer conn.Close()

	// retries are published on their own channel so a slow publish never blocks acks
	consumeCh, err := conn.Channel()
	if err != nil {
		logger.Error("could not open channel", "error", err)
		return
	}
	defer consumeCh.Close()

	publishCh, err := conn.Channel()
	if err != nil {
		logger.Error("could not open channel", "error", err)
		return
	}
	defer publishCh.Close()

	if err := queue.Declare(consumeCh, domain.ScreeningQueue); err != nil {
		logger.Error("could not declare queue", "error", err)
		return
	}

	if err := consumeCh.Qos(cfg.Screening.Concurrency, 0, false); err != nil {
		logger.Error("could not set prefetch", "error", err)
		return
	}

	msgs, err := consumeCh.Consume(domain.ScreeningQueue, "", false, false, false, false, nil)
	if err != nil {
		logger.Error("could not consume queue", "error", err)
		return
	}

	screener := screening.NewScreener(
		repo,
		store,
		assistant,
		queue.NewPublisher(publishCh, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second),
		screening.Options{
			MaxAttempts: cfg.Screening.MaxAttempts,
			Index:       cfg.Screening.Index,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("waiting for screening tasks (press CTRL+C to quit)", "workers", cfg.Screening.Concurrency, "aiProvider", cfg.AI.Provider)
	queue.Consume(ctx, msgs, cfg.Screening.Concurrency, screener.Handle)

	logger.Info("screener stopped gracefully")
}
