package repository

import (
	"context"
	"time"

	"github.com/lws-dev/hiring/backend/internal/domain"
	"github.com/pgvector/pgvector-go"
)

// SaveDocument stores the extracted text and embedding of a resume, replacing a previous one.
func (r *Repository) SaveDocument(doc *domain.Document) error {
	query := `
		INSERT INTO documents (resume_id, content, embedding)
		VALUES ($1, $2, $3)
		ON CONFLICT (resume_id) DO UPDATE SET content = EXCLUDED.content, embedding = EXCLUDED.embedding
		RETURNING id, created_at
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{doc.ResumeID, doc.Content, pgvector.NewVector(doc.Embedding)}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&doc.ID, &doc.CreatedAt); err != nil {
		return err
	}

	return nil
}

// SearchResumes returns the indexed resumes of an evaluation closest to the embedding by cosine distance.
func (r *Repository) SearchResumes(evaluationID int64, embedding []float32, limit int) ([]*domain.SearchHit, error) {
	query := `
		SELECT ` + resumeColumns + `, d.embedding <=> $2 AS distance
		FROM documents d
		JOIN resumes r ON r.id = d.resume_id
		WHERE r.evaluation_id = $1
		ORDER BY distance
		LIMIT $3
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, evaluationID, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hits := make([]*domain.SearchHit, 0)
	for rows.Next() {
		hit := &domain.SearchHit{Resume: &domain.Resume{}}
		dst := append(resumeDst(hit.Resume), &hit.Distance)
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return hits, nil
}
