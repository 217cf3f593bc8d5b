package domain

const (
	EmailQueue     = "email_queue"
	ScreeningQueue = "screening_queue"
)

type ScreeningTask struct {
	ResumeID     int64 `json:"resumeID"`
	EvaluationID int64 `json:"evaluationID"`
	JobID        int64 `json:"jobID"`
	Attempt      int   `json:"attempt"`
}
