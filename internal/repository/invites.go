package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lws-dev/hiring/backend/internal/domain"
)

// UpsertInvite creates the invite or renews the existing one for the same (project, user) pair.
// Accepted rows are left alone, in which case sql.ErrNoRows is returned.
func (r *Repository) UpsertInvite(invite *domain.AccessInvite) error {
	query := `
		INSERT INTO project_access (invite_id, project_id, user_id, inviter_id, expiry, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		ON CONFLICT (project_id, user_id) DO UPDATE
		SET inviter_id = EXCLUDED.inviter_id, expiry = EXCLUDED.expiry, status = 'pending'
		WHERE project_access.status <> 'accepted'
		RETURNING invite_id, status, created_at
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{uuid.NewString(), invite.ProjectID, invite.UserID, invite.InviterID, invite.Expiry}
	dst := []any{&invite.ID, &invite.Status, &invite.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetInviteByID(id string) (*domain.AccessInvite, error) {
	query := `
		SELECT project_id, user_id, inviter_id, expiry, status, created_at
		FROM project_access WHERE invite_id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	invite := &domain.AccessInvite{
		ID: id,
	}

	dst := []any{&invite.ProjectID, &invite.UserID, &invite.InviterID, &invite.Expiry, &invite.Status, &invite.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return invite, nil
}

func (r *Repository) UpdateInviteStatus(id string, status domain.InviteStatus) error {
	query := `
		UPDATE project_access SET status = $2 WHERE invite_id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, id, status)
	return err
}

func (r *Repository) GetProjectMembers(projectID string) ([]*domain.ProjectMember, error) {
	query := `
		SELECT u.user_id, u.email, u.name, pa.status
		FROM project_access pa
		JOIN users u ON u.user_id = pa.user_id
		WHERE pa.project_id = $1
		ORDER BY pa.created_at
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]*domain.ProjectMember, 0)
	for rows.Next() {
		member := &domain.ProjectMember{}
		if err := rows.Scan(&member.UserID, &member.Email, &member.Name, &member.Status); err != nil {
			return nil, err
		}
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return members, nil
}
