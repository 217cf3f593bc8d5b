package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/lws-dev/hiring/backend/internal/config"
	"github.com/lws-dev/hiring/backend/internal/repository"
	"github.com/lws-dev/hiring/backend/internal/seed"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var (
		email       string
		name        string
		projectName string
		description string
		jobsFile    string
	)

	flag.StringVar(&email, "email", "demo@lws.dev", "email of the project owner")
	flag.StringVar(&name, "name", "Demo", "name of the project owner")
	flag.StringVar(&projectName, "project", "Demo hiring", "name of the project to create")
	flag.StringVar(&description, "description", "Seeded for local development", "project description")
	flag.StringVar(&jobsFile, "jobs", "", "CSV file with title,department,description,requirements[,url] columns")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("could not load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	demo := &seed.Demo{
		OwnerEmail:         email,
		OwnerName:          name,
		ProjectName:        projectName,
		ProjectDescription: description,
	}

	if jobsFile != "" {
		file, err := os.Open(jobsFile)
		if err != nil {
			logger.Error("could not open jobs file", "error", err)
			os.Exit(1)
		}
		demo.Jobs, err = seed.LoadJobs(file)
		file.Close()
		if err != nil {
			logger.Error("could not read jobs file", "error", err)
			os.Exit(1)
		}
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("could not create database pool", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("could not connect to database", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	project, err := seed.Seed(repo, demo)
	if err != nil {
		logger.Error("seeding failed", "error", err)
		return
	}

	logger.Info("seeded demo project", "projectID", project.ID, "jobs", len(demo.Jobs), "owner", email)
}
