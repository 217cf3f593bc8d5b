package domain

import "time"

type Job struct {
	ID           int64     `json:"id"`
	ProjectID    string    `json:"projectID"`
	Title        string    `json:"title"`
	Department   string    `json:"department"`
	Description  string    `json:"description"`
	Requirements string    `json:"requirements"`
	URL          *string   `json:"url"`
	CreatedBy    string    `json:"createdBy"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// JobDraft is what the model extracts from a job posting; it is never stored as is.
type JobDraft struct {
	Title        string `json:"title"`
	Department   string `json:"department"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
}
