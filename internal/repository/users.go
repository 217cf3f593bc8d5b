package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lws-dev/hiring/backend/internal/domain"
)

// UpsertUser creates the user or refreshes the name of the existing one with the same email.
func (r *Repository) UpsertUser(email string, name string) (*domain.User, error) {
	query := `
		INSERT INTO users (user_id, email, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING user_id, email, name, created_at
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	user := &domain.User{}
	dst := []any{&user.ID, &user.Email, &user.Name, &user.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, uuid.NewString(), email, name).Scan(dst...); err != nil {
		return nil, err
	}

	return user, nil
}

// FindOrCreateUser returns the user with this email, creating it with the given name if needed.
// Unlike UpsertUser it never touches the name of an existing user.
func (r *Repository) FindOrCreateUser(email string, name string) (*domain.User, error) {
	query := `
		INSERT INTO users (user_id, email, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING user_id, email, name, created_at
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	user := &domain.User{}
	dst := []any{&user.ID, &user.Email, &user.Name, &user.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, uuid.NewString(), email, name).Scan(dst...); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *Repository) GetUserByID(id string) (*domain.User, error) {
	query := `
		SELECT email, name, created_at FROM users WHERE user_id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	user := &domain.User{
		ID: id,
	}

	dst := []any{&user.Email, &user.Name, &user.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *Repository) GetUserByEmail(email string) (*domain.User, error) {
	query := `
		SELECT user_id, name, created_at FROM users WHERE email = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	user := &domain.User{
		Email: email,
	}

	dst := []any{&user.ID, &user.Name, &user.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, email).Scan(dst...); err != nil {
		return nil, err
	}

	return user, nil
}
