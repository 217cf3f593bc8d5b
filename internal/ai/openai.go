package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAI talks to any server implementing the OpenAI chat and embeddings API.
type OpenAI struct {
	client         *openai.Client
	model          string
	embeddingModel string
}

func NewOpenAI(endpoint, key, model, embeddingModel string) *OpenAI {
	cfg := openai.DefaultConfig(key)
	if endpoint != "" {
		cfg.BaseURL = strings.TrimRight(endpoint, "/")
	}

	return &OpenAI{
		client:         openai.NewClientWithConfig(cfg),
		model:          model,
		embeddingModel: embeddingModel,
	}
}

func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("chat completion returned empty content")
	}

	return content, nil
}

func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(o.embeddingModel),
	}
	// only the text-embedding-3 family can shorten its vectors
	if strings.HasPrefix(o.embeddingModel, "text-embedding-3") {
		req.Dimensions = EmbeddingDimensions
	}

	resp, err := o.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, errors.New("create embeddings returned no data")
	}

	return resp.Data[0].Embedding, nil
}
