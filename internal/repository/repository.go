package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lws-dev/hiring/backend/internal/config"
)

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

func (r *Repository) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var one int
	return r.dbpool.QueryRowContext(ctx, `SELECT 1`).Scan(&one)
}
