package repository

import (
	"context"
	"time"

	"github.com/lws-dev/hiring/backend/internal/domain"
)

const jobColumns = `id, project_id, title, department, description, requirements, url, created_by, created_at, updated_at`

func jobDst(job *domain.Job) []any {
	return []any{
		&job.ID,
		&job.ProjectID,
		&job.Title,
		&job.Department,
		&job.Description,
		&job.Requirements,
		&job.URL,
		&job.CreatedBy,
		&job.CreatedAt,
		&job.UpdatedAt,
	}
}

func (r *Repository) CreateJob(job *domain.Job) error {
	query := `
		INSERT INTO jobs (project_id, title, department, description, requirements, url, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{job.ProjectID, job.Title, job.Department, job.Description, job.Requirements, job.URL, job.CreatedBy}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetJobByID(id int64) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	job := &domain.Job{}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(jobDst(job)...); err != nil {
		return nil, err
	}

	return job, nil
}

// GetJobsByProject lists the jobs of a project, optionally narrowed to one department.
func (r *Repository) GetJobsByProject(projectID string, department string) ([]*domain.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE project_id = $1 AND ($2 = '' OR department = $2)
		ORDER BY created_at DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, projectID, department)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]*domain.Job, 0)
	for rows.Next() {
		job := &domain.Job{}
		if err := rows.Scan(jobDst(job)...); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return jobs, nil
}

func (r *Repository) UpdateJob(job *domain.Job) error {
	query := `
		UPDATE jobs
		SET
			title = $1,
			department = $2,
			description = $3,
			requirements = $4,
			url = $5,
			updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{job.Title, job.Department, job.Description, job.Requirements, job.URL, job.ID}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&job.UpdatedAt); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteJob(id int64) error {
	query := `
		DELETE FROM jobs WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, id)
	return err
}

func (r *Repository) DeleteJobsByDepartment(projectID string, department string) (int64, error) {
	query := `
		DELETE FROM jobs WHERE project_id = $1 AND department = $2
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, projectID, department)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
