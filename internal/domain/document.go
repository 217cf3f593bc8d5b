package domain

import "time"

type Document struct {
	ID        int64     `json:"id"`
	ResumeID  int64     `json:"resumeID"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

type SearchHit struct {
	Resume   *Resume `json:"resume"`
	Distance float64 `json:"distance"`
}
