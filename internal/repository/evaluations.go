package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lws-dev/hiring/backend/internal/domain"
)

const evaluationColumns = `e.id, e.name, e.job_id, e.created_by, e.status, e.total_resumes, e.processed, e.accepted, e.rejected, e.pending, e.created_at, e.updated_at`

func evaluationDst(evaluation *domain.Evaluation) []any {
	return []any{
		&evaluation.ID,
		&evaluation.Name,
		&evaluation.JobID,
		&evaluation.CreatedBy,
		&evaluation.Status,
		&evaluation.TotalResumes,
		&evaluation.Processed,
		&evaluation.Accepted,
		&evaluation.Rejected,
		&evaluation.Pending,
		&evaluation.CreatedAt,
		&evaluation.UpdatedAt,
	}
}

// CreateEvaluationWithResumes inserts the evaluation and all of its resumes as pending in one transaction.
func (r *Repository) CreateEvaluationWithResumes(evaluation *domain.Evaluation, resumes []*domain.Resume) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO evaluations (name, job_id, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, status, created_at, updated_at
	`
	args := []any{evaluation.Name, evaluation.JobID, evaluation.CreatedBy}
	dst := []any{&evaluation.ID, &evaluation.Status, &evaluation.CreatedAt, &evaluation.UpdatedAt}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	if len(resumes) > 0 {
		if err := insertResumes(ctx, tx, evaluation.ID, resumes); err != nil {
			return err
		}
	}

	query = `
		UPDATE evaluations SET total_resumes = $2, pending = $2 WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, query, evaluation.ID, len(resumes)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	evaluation.TotalResumes = int32(len(resumes))
	evaluation.Pending = int32(len(resumes))

	return nil
}

func insertResumes(ctx context.Context, tx *sql.Tx, evaluationID int64, resumes []*domain.Resume) error {
	const columns = 7

	placeholders := make([]string, 0, len(resumes))
	args := make([]any, 0, len(resumes)*columns)
	for i, resume := range resumes {
		resume.EvaluationID = evaluationID
		resume.Status = domain.ResumePending

		n := i * columns
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5, n+6, n+7))
		args = append(args, evaluationID, resume.Filename, resume.OriginalFilename, resume.FilePath, resume.FileSize, resume.MimeType, resume.Status)
	}

	// rows come back in VALUES order
	query := `
		INSERT INTO resumes (evaluation_id, filename, original_filename, file_path, file_size, mime_type, status)
		VALUES ` + strings.Join(placeholders, ", ") + `
		RETURNING id, created_at, updated_at
	`

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if i >= len(resumes) {
			return fmt.Errorf("insert resumes: got more rows than inserted")
		}
		if err := rows.Scan(&resumes[i].ID, &resumes[i].CreatedAt, &resumes[i].UpdatedAt); err != nil {
			return err
		}
		i++
	}

	if err := rows.Err(); err != nil {
		return err
	}

	if i != len(resumes) {
		return fmt.Errorf("insert resumes: inserted %d of %d", i, len(resumes))
	}

	return nil
}

// GetEvaluationsByMember lists evaluations of jobs in the projects the user belongs to, newest first.
func (r *Repository) GetEvaluationsByMember(userID string) ([]*domain.EvaluationDetails, error) {
	query := `
		SELECT ` + evaluationColumns + `, j.title, j.project_id
		FROM evaluations e
		JOIN jobs j ON j.id = e.job_id
		JOIN project_access pa ON pa.project_id = j.project_id
		WHERE pa.user_id = $1 AND pa.status = 'accepted'
		ORDER BY e.created_at DESC, e.id DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	evaluations := make([]*domain.EvaluationDetails, 0)
	for rows.Next() {
		details := &domain.EvaluationDetails{}
		dst := append(evaluationDst(&details.Evaluation), &details.JobTitle, &details.ProjectID)
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		evaluations = append(evaluations, details)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return evaluations, nil
}

func (r *Repository) GetEvaluationDetails(id int64) (*domain.EvaluationDetails, error) {
	query := `
		SELECT ` + evaluationColumns + `, j.title, j.project_id
		FROM evaluations e
		JOIN jobs j ON j.id = e.job_id
		WHERE e.id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	details := &domain.EvaluationDetails{}
	dst := append(evaluationDst(&details.Evaluation), &details.JobTitle, &details.ProjectID)
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return details, nil
}

// lockEvaluation serialises writers of one evaluation so that the recomputed counts see every committed verdict.
func lockEvaluation(ctx context.Context, tx *sql.Tx, evaluationID int64) error {
	var id int64
	return tx.QueryRowContext(ctx, `SELECT id FROM evaluations WHERE id = $1 FOR UPDATE`, evaluationID).Scan(&id)
}

// recomputeEvaluationCounts rebuilds the aggregate from the resumes table.
func recomputeEvaluationCounts(ctx context.Context, tx *sql.Tx, evaluationID int64) error {
	query := `
		UPDATE evaluations e
		SET
			total_resumes = c.total,
			processed = c.processed,
			accepted = c.accepted,
			rejected = c.rejected,
			pending = c.pending,
			status = CASE
				WHEN c.pending = 0 THEN 'completed'
				WHEN c.processed > 0 THEN 'processing'
				ELSE 'pending'
			END,
			updated_at = NOW()
		FROM (
			SELECT
				COUNT(*) AS total,
				COUNT(*) FILTER (WHERE status <> 'pending') AS processed,
				COUNT(*) FILTER (WHERE status = 'accepted') AS accepted,
				COUNT(*) FILTER (WHERE status = 'rejected') AS rejected,
				COUNT(*) FILTER (WHERE status = 'pending') AS pending
			FROM resumes
			WHERE evaluation_id = $1
		) c
		WHERE e.id = $1
	`

	_, err := tx.ExecContext(ctx, query, evaluationID)
	return err
}

func (r *Repository) RecomputeEvaluationCounts(evaluationID int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := lockEvaluation(ctx, tx, evaluationID); err != nil {
		return err
	}

	if err := recomputeEvaluationCounts(ctx, tx, evaluationID); err != nil {
		return err
	}

	return tx.Commit()
}
