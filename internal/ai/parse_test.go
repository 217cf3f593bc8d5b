package ai

import (
	"testing"

	"github.com/lws-dev/hiring/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"chatter", "Sure! Here it is: {\"a\":1} Hope it helps.", `{"a":1}`},
		{"no object", "nothing here", "nothing here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSON(tt.input))
		})
	}
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected domain.Verdict
	}{
		{
			name:     "string score in fences",
			raw:      "```json\n{\"score\": \"75.5\", \"status\": \"accepted\", \"feedback\": \"Solid\\nGo experience.\"}\n```",
			expected: domain.Verdict{Score: 75.5, Status: domain.ResumeAccepted, Feedback: "Solid Go experience."},
		},
		{
			name:     "numeric score and capitalised status",
			raw:      `{"score": 40, "status": "Rejected", "feedback": "Lacks  backend\r\nwork."}`,
			expected: domain.Verdict{Score: 40, Status: domain.ResumeRejected, Feedback: "Lacks backend work."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := ParseVerdict(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, *verdict)
		})
	}
}

func TestParseVerdictInvalid(t *testing.T) {
	tests := map[string]string{
		"not json":        "I think the candidate is great",
		"missing status":  `{"score": 50, "feedback": "ok"}`,
		"unknown status":  `{"score": 50, "status": "maybe", "feedback": "ok"}`,
		"score too high":  `{"score": 150, "status": "accepted", "feedback": "ok"}`,
		"string too high": `{"score": "101", "status": "accepted", "feedback": "ok"}`,
		"score not num":   `{"score": "high", "status": "accepted", "feedback": "ok"}`,
		"feedback number": `{"score": 50, "status": "accepted", "feedback": 3}`,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseVerdict(raw)
			assert.ErrorIs(t, err, domain.ErrInvalidVerdict)
		})
	}
}

func TestParseJobDraft(t *testing.T) {
	draft, err := ParseJobDraft("```json\n" + `{"title": " Backend Engineer ", "department": "Engineering", "description": "Build APIs.", "requirements": "Go\nPostgreSQL"}` + "\n```")
	require.NoError(t, err)

	assert.Equal(t, "Backend Engineer", draft.Title)
	assert.Equal(t, "Engineering", draft.Department)
	assert.Equal(t, "Build APIs.", draft.Description)
	assert.Equal(t, "Go\nPostgreSQL", draft.Requirements)
}

func TestParseJobDraftRequirementList(t *testing.T) {
	draft, err := ParseJobDraft(`{"title": "SRE", "department": "Ops", "description": "Keep it up.", "requirements": ["Linux", " ", "Kubernetes"]}`)
	require.NoError(t, err)

	assert.Equal(t, "- Linux\n- Kubernetes", draft.Requirements)
}

func TestParseJobDraftInvalid(t *testing.T) {
	_, err := ParseJobDraft(`{"title": "", "department": "Ops", "description": "x", "requirements": "y"}`)
	assert.ErrorIs(t, err, domain.ErrInvalidJobDraft)

	_, err = ParseJobDraft(`{"title": "SRE"}`)
	assert.ErrorIs(t, err, domain.ErrInvalidJobDraft)
}

func TestParseJobDraftBlankFields(t *testing.T) {
	for name, raw := range map[string]string{
		"title":             `{"title": "   ", "department": "Ops", "description": "x", "requirements": "y"}`,
		"department":        `{"title": "SRE", "department": "\n", "description": "x", "requirements": "y"}`,
		"description":       `{"title": "SRE", "department": "Ops", "description": " \t ", "requirements": "y"}`,
		"requirements":      `{"title": "SRE", "department": "Ops", "description": "x", "requirements": "  "}`,
		"requirements list": `{"title": "SRE", "department": "Ops", "description": "x", "requirements": [" ", ""]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJobDraft(raw)
			assert.ErrorIs(t, err, domain.ErrInvalidJobDraft)
		})
	}
}
