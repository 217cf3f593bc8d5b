package handler

type ContextKey string

var (
	UserCtx       ContextKey = "user"
	SessionCtx    ContextKey = "session"
	ProjectCtx    ContextKey = "project"
	JobCtx        ContextKey = "job"
	EvaluationCtx ContextKey = "evaluation"
	ResumeCtx     ContextKey = "resume"
)
