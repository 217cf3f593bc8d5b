package domain

import "time"

type ResumeStatus string

const (
	ResumePending  ResumeStatus = "pending"
	ResumeAccepted ResumeStatus = "accepted"
	ResumeRejected ResumeStatus = "rejected"
	ResumeFailed   ResumeStatus = "failed"
)

type Resume struct {
	ID               int64        `json:"id"`
	EvaluationID     int64        `json:"evaluationID"`
	Filename         string       `json:"filename"`
	OriginalFilename string       `json:"originalFilename"`
	FilePath         string       `json:"-"`
	FileSize         int64        `json:"fileSize"`
	MimeType         string       `json:"mimeType"`
	Status           ResumeStatus `json:"status"`
	Score            *float64     `json:"score"`
	Feedback         *string      `json:"feedback"`
	Attempts         int32        `json:"attempts"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// Verdict is the model's decision about one resume.
type Verdict struct {
	Score    float64      `json:"score"`
	Status   ResumeStatus `json:"status"`
	Feedback string       `json:"feedback"`
}
