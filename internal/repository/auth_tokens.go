package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lws-dev/hiring/backend/internal/domain"
)

func (r *Repository) CreateAuthToken(token *domain.AuthToken) error {
	query := `
		INSERT INTO tokens (token, user_id, code_hash, expiry, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{token.Token, token.UserID, token.CodeHash, token.Expiry, token.Status}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&token.CreatedAt); err != nil {
		return err
	}

	return nil
}

// GetLatestPendingToken returns the newest code of the user that is still waiting for verification.
func (r *Repository) GetLatestPendingToken(userID string) (*domain.AuthToken, error) {
	query := `
		SELECT token, code_hash, expiry, status, created_at
		FROM tokens
		WHERE user_id = $1 AND status = 'pending' AND expiry > NOW()
		ORDER BY created_at DESC
		LIMIT 1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	token := &domain.AuthToken{
		UserID: userID,
	}

	dst := []any{&token.Token, &token.CodeHash, &token.Expiry, &token.Status, &token.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, userID).Scan(dst...); err != nil {
		return nil, err
	}

	return token, nil
}

func (r *Repository) RejectAuthToken(token string) error {
	query := `
		UPDATE tokens SET status = 'rejected' WHERE token = $1 AND status = 'pending'
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, token)
	return err
}

// VerifyAuthToken turns a pending code into a session valid until expiry.
func (r *Repository) VerifyAuthToken(token string, expiry time.Time) error {
	query := `
		UPDATE tokens SET status = 'verified', expiry = $2 WHERE token = $1 AND status = 'pending'
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, token, expiry)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// GetSession returns the token only if it is a verified, unexpired session.
func (r *Repository) GetSession(token string) (*domain.AuthToken, error) {
	query := `
		SELECT user_id, code_hash, expiry, status, created_at
		FROM tokens
		WHERE token = $1 AND status = 'verified' AND expiry > NOW()
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	session := &domain.AuthToken{
		Token: token,
	}

	dst := []any{&session.UserID, &session.CodeHash, &session.Expiry, &session.Status, &session.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, token).Scan(dst...); err != nil {
		return nil, err
	}

	return session, nil
}

// ExpireSessions ends every verified session of the user and returns the affected tokens.
func (r *Repository) ExpireSessions(userID string) ([]string, error) {
	query := `
		UPDATE tokens SET status = 'expired' WHERE user_id = $1 AND status = 'verified'
		RETURNING token
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := make([]string, 0)
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tokens, nil
}
