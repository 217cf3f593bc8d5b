package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lws-dev/hiring/backend/internal/domain"
)

const resumeColumns = `r.id, r.evaluation_id, r.filename, r.original_filename, r.file_path, r.file_size, r.mime_type, r.status, r.score, r.feedback, r.attempts, r.created_at, r.updated_at`

func resumeDst(resume *domain.Resume) []any {
	return []any{
		&resume.ID,
		&resume.EvaluationID,
		&resume.Filename,
		&resume.OriginalFilename,
		&resume.FilePath,
		&resume.FileSize,
		&resume.MimeType,
		&resume.Status,
		&resume.Score,
		&resume.Feedback,
		&resume.Attempts,
		&resume.CreatedAt,
		&resume.UpdatedAt,
	}
}

func (r *Repository) GetResumeByID(id int64) (*domain.Resume, error) {
	query := `SELECT ` + resumeColumns + ` FROM resumes r WHERE r.id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	resume := &domain.Resume{}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(resumeDst(resume)...); err != nil {
		return nil, err
	}

	return resume, nil
}

func (r *Repository) GetResumesByEvaluation(evaluationID int64) ([]*domain.Resume, error) {
	query := `
		SELECT ` + resumeColumns + `
		FROM resumes r
		WHERE r.evaluation_id = $1
		ORDER BY r.created_at DESC, r.id DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, evaluationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	resumes := make([]*domain.Resume, 0)
	for rows.Next() {
		resume := &domain.Resume{}
		if err := rows.Scan(resumeDst(resume)...); err != nil {
			return nil, err
		}
		resumes = append(resumes, resume)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return resumes, nil
}

// SaveVerdict stores the verdict of a pending resume and recomputes the evaluation counts.
// sql.ErrNoRows means the resume was no longer pending.
func (r *Repository) SaveVerdict(resume *domain.Resume, verdict *domain.Verdict) error {
	query := `
		UPDATE resumes
		SET status = $2, score = $3, feedback = $4, attempts = attempts + 1, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	return r.finishResume(resume.EvaluationID, query, resume.ID, verdict.Status, verdict.Score, verdict.Feedback)
}

// MarkResumeFailed gives up on a pending resume and recomputes the evaluation counts.
func (r *Repository) MarkResumeFailed(resumeID int64, evaluationID int64, reason string) error {
	query := `
		UPDATE resumes
		SET status = 'failed', feedback = $2, attempts = attempts + 1, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	return r.finishResume(evaluationID, query, resumeID, reason)
}

func (r *Repository) finishResume(evaluationID int64, query string, args ...any) error {
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

	result, err := tx.ExecContext(ctx, query, args...)
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

	if err := recomputeEvaluationCounts(ctx, tx, evaluationID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) IncrementResumeAttempts(id int64) error {
	query := `
		UPDATE resumes SET attempts = attempts + 1, updated_at = NOW() WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, id)
	return err
}

