package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lws-dev/hiring/backend/internal/domain"
)

// CreateProject inserts the project and the creator's accepted access row in one transaction.
func (r *Repository) CreateProject(project *domain.Project) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if project.ID == "" {
		project.ID = uuid.NewString()
	}

	query := `
		INSERT INTO projects (project_id, name, description, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	args := []any{project.ID, project.Name, project.Description, project.CreatedBy}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&project.CreatedAt); err != nil {
		return err
	}

	query = `
		INSERT INTO project_access (invite_id, project_id, user_id, inviter_id, expiry, status)
		VALUES ($1, $2, $3, $3, NOW(), 'accepted')
	`
	if _, err := tx.ExecContext(ctx, query, uuid.NewString(), project.ID, project.CreatedBy); err != nil {
		return err
	}

	return tx.Commit()
}

// GetProjectsByMember lists the projects the user has accepted access to, newest first.
func (r *Repository) GetProjectsByMember(userID string) ([]*domain.Project, error) {
	query := `
		SELECT p.project_id, p.name, p.description, p.created_by, p.created_at
		FROM projects p
		JOIN project_access pa ON pa.project_id = p.project_id
		WHERE pa.user_id = $1 AND pa.status = 'accepted'
		ORDER BY p.created_at DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]*domain.Project, 0)
	for rows.Next() {
		project := &domain.Project{}
		dst := []any{&project.ID, &project.Name, &project.Description, &project.CreatedBy, &project.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return projects, nil
}

func (r *Repository) GetProjectByID(id string) (*domain.Project, error) {
	query := `
		SELECT name, description, created_by, created_at FROM projects WHERE project_id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	project := &domain.Project{
		ID: id,
	}

	dst := []any{&project.Name, &project.Description, &project.CreatedBy, &project.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return project, nil
}

func (r *Repository) DeleteProject(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM project_access WHERE project_id = $1`, id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE project_id = $1`, id); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) IsProjectMember(projectID string, userID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM project_access
			WHERE project_id = $1 AND user_id = $2 AND status = 'accepted'
		)
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var ok bool
	if err := r.dbpool.QueryRowContext(ctx, query, projectID, userID).Scan(&ok); err != nil {
		return false, err
	}

	return ok, nil
}
