package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lws-dev/hiring/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	mu      sync.Mutex
	answer  string
	err     error
	prompts []string
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	return s.answer, s.err
}

func (s *stubCompleter) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2}, s.err
}

func TestAssistantEvaluate(t *testing.T) {
	stub := &stubCompleter{answer: `{"score": "80", "status": "accepted", "feedback": "Good fit."}`}
	assistant := NewAssistant(stub, time.Second)

	job := &domain.Job{Title: "Backend Engineer", Department: "Engineering", Description: "Build APIs", Requirements: "Go"}
	verdict, err := assistant.Evaluate(context.Background(), "Jane Doe, 6 years of Go", job)
	require.NoError(t, err)

	assert.Equal(t, 80.0, verdict.Score)
	assert.Equal(t, domain.ResumeAccepted, verdict.Status)
	require.Len(t, stub.prompts, 1)
	assert.Contains(t, stub.prompts[0], "Jane Doe, 6 years of Go")
	assert.Contains(t, stub.prompts[0], `"title":"Backend Engineer"`)
}

func TestAssistantEvaluatePropagatesErrors(t *testing.T) {
	assistant := NewAssistant(&stubCompleter{err: errors.New("boom")}, time.Second)

	_, err := assistant.Evaluate(context.Background(), "resume", &domain.Job{})
	assert.EqualError(t, err, "boom")
}

func TestAssistantGenerateJob(t *testing.T) {
	stub := &stubCompleter{answer: `{"title": "SRE", "department": "Ops", "description": "Run things", "requirements": "Linux"}`}
	assistant := NewAssistant(stub, time.Second)

	draft, err := assistant.GenerateJob(context.Background(), "We are hiring an SRE")
	require.NoError(t, err)
	assert.Equal(t, "SRE", draft.Title)
	assert.Contains(t, stub.prompts[0], "We are hiring an SRE")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", truncate("héllo", 4))
	assert.Equal(t, "abc", truncate("abc", 4))
}

func TestOpenAI(t *testing.T) {
	var embeddingReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  hello  "},"finish_reason":"stop"}]}`))
		case strings.HasSuffix(r.URL.Path, "/embeddings"):
			_ = json.NewDecoder(r.Body).Decode(&embeddingReq)
			_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.5,0.25]}],"model":"m"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewOpenAI(srv.URL+"/v1/", "key", "gpt-4o-mini", "text-embedding-3-small")

	answer, err := client.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", answer)

	embedding, err := client.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, embedding)
	assert.EqualValues(t, EmbeddingDimensions, embeddingReq["dimensions"])
}

func TestOpenAIEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAI(srv.URL, "key", "m", "e").Complete(context.Background(), "hi")
	assert.Error(t, err)
}

func TestWithRateLimit(t *testing.T) {
	stub := &stubCompleter{answer: "ok"}
	limited := WithRateLimit(stub, 1)

	_, err := limited.Complete(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = limited.Complete(ctx, "second")
	assert.Error(t, err)
	assert.Len(t, stub.prompts, 1)
}
