package ai

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lws-dev/hiring/backend/internal/domain"
	"github.com/xeipuuv/gojsonschema"
)

const verdictSchema = `{
	"type": "object",
	"required": ["score", "status", "feedback"],
	"properties": {
		"score": {
			"oneOf": [
				{"type": "number", "minimum": 0, "maximum": 100},
				{"type": "string", "pattern": "^\\s*[0-9]+(\\.[0-9]+)?\\s*$"}
			]
		},
		"status": {"type": "string", "enum": ["accepted", "rejected"]},
		"feedback": {"type": "string"}
	}
}`

const jobDraftSchema = `{
	"type": "object",
	"required": ["title", "department", "description", "requirements"],
	"properties": {
		"title": {"type": "string", "minLength": 1},
		"department": {"type": "string", "minLength": 1},
		"description": {"type": "string", "minLength": 1},
		"requirements": {
			"oneOf": [
				{"type": "string", "minLength": 1},
				{"type": "array", "minItems": 1, "items": {"type": "string"}}
			]
		}
	}
}`

var (
	verdictSchemaDoc  = mustSchema(verdictSchema)
	jobDraftSchemaDoc = mustSchema(jobDraftSchema)
)

func mustSchema(schema string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(err)
	}
	return s
}

// CleanJSON strips markdown fences and any chatter around the outermost JSON object.
func CleanJSON(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end > start {
		content = content[start : end+1]
	}

	return content
}

func validate(schema *gojsonschema.Schema, doc map[string]any) error {
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

// ParseVerdict decodes the model's answer about a resume.
func ParseVerdict(raw string) (*domain.Verdict, error) {
	doc := map[string]any{}
	if err := json.Unmarshal([]byte(CleanJSON(raw)), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidVerdict, err)
	}

	if status, ok := doc["status"].(string); ok {
		doc["status"] = strings.ToLower(strings.TrimSpace(status))
	}

	if err := validate(verdictSchemaDoc, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidVerdict, err)
	}

	var score float64
	switch v := doc["score"].(type) {
	case float64:
		score = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: score %q", domain.ErrInvalidVerdict, v)
		}
		score = parsed
	}
	if score < 0 || score > 100 {
		return nil, fmt.Errorf("%w: score %v out of range", domain.ErrInvalidVerdict, score)
	}

	return &domain.Verdict{
		Score:    score,
		Status:   domain.ResumeStatus(doc["status"].(string)),
		Feedback: CleanFeedback(doc["feedback"].(string)),
	}, nil
}

// CleanFeedback keeps the feedback on a single line.
func CleanFeedback(feedback string) string {
	return strings.Join(strings.Fields(feedback), " ")
}

// ParseJobDraft decodes the job opening the model extracted from a page.
func ParseJobDraft(raw string) (*domain.JobDraft, error) {
	doc := map[string]any{}
	if err := json.Unmarshal([]byte(CleanJSON(raw)), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidJobDraft, err)
	}

	if err := validate(jobDraftSchemaDoc, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidJobDraft, err)
	}

	draft := &domain.JobDraft{
		Title:       strings.TrimSpace(doc["title"].(string)),
		Department:  strings.TrimSpace(doc["department"].(string)),
		Description: strings.TrimSpace(doc["description"].(string)),
	}
	if draft.Title == "" || draft.Department == "" || draft.Description == "" {
		return nil, fmt.Errorf("%w: blank title, department or description", domain.ErrInvalidJobDraft)
	}

	switch v := doc["requirements"].(type) {
	case string:
		draft.Requirements = strings.TrimSpace(v)
	case []any:
		lines := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				lines = append(lines, "- "+strings.TrimSpace(s))
			}
		}
		draft.Requirements = strings.Join(lines, "\n")
	}
	if draft.Requirements == "" {
		return nil, fmt.Errorf("%w: blank requirements", domain.ErrInvalidJobDraft)
	}

	return draft, nil
}
