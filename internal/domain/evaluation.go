package domain

import "time"

type EvaluationStatus string

const (
	EvaluationPending    EvaluationStatus = "pending"
	EvaluationProcessing EvaluationStatus = "processing"
	EvaluationCompleted  EvaluationStatus = "completed"
)

type Evaluation struct {
	ID           int64            `json:"id"`
	Name         string           `json:"name"`
	JobID        int64            `json:"jobID"`
	CreatedBy    string           `json:"createdBy"`
	Status       EvaluationStatus `json:"status"`
	TotalResumes int32            `json:"totalResumes"`
	Processed    int32            `json:"processed"`
	Accepted     int32            `json:"accepted"`
	Rejected     int32            `json:"rejected"`
	Pending      int32            `json:"pending"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

type EvaluationDetails struct {
	Evaluation
	JobTitle  string `json:"jobTitle"`
	ProjectID string `json:"projectID"`
}
