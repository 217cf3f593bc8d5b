package ai

import (
	"encoding/json"
	"fmt"

	"github.com/lws-dev/hiring/backend/internal/domain"
)

// resumes and pages beyond this many characters are cut before prompting
const maxSourceChars = 30000

const evaluationPrompt = `You are a senior recruiter with deep technical expertise. Assess the resume against the job description.

RESUME:
%s

JOB DESCRIPTION:
%s

Judge relevant skills and experience, technical qualifications, career progression and overall fit for the role.

Reply with a single JSON object and nothing else:
{"score": <number between 0 and 100>, "status": "accepted" or "rejected", "feedback": "<your reasoning as one paragraph on a single line>"}`

const jobDraftPrompt = `You turn job postings into structured job openings.

POSTING:
%s

Reply with a single JSON object and nothing else:
{"title": "<job title>", "department": "<department or team>", "description": "<what the role does, one or two paragraphs>", "requirements": "<the requirements, one per line>"}`

type jobPromptView struct {
	Title        string `json:"title"`
	Department   string `json:"department"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func EvaluationPrompt(resumeText string, job *domain.Job) (string, error) {
	jobJSON, err := json.Marshal(jobPromptView{
		Title:        job.Title,
		Department:   job.Department,
		Description:  job.Description,
		Requirements: job.Requirements,
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(evaluationPrompt, truncate(resumeText, maxSourceChars), jobJSON), nil
}

func JobDraftPrompt(sourceText string) string {
	return fmt.Sprintf(jobDraftPrompt, truncate(sourceText, maxSourceChars))
}
