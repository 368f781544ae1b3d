package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/grantstream/patentrag/internal/domain"
)

const summarizeSystemPrompt = "You are a patent analyst. Using only the " +
	"patent documents provided, answer the question in plain language. " +
	"Cite patents by their document number. If the documents do not " +
	"answer the question, say so."

// Summarizer generates an answer over retrieved documents via an
// OpenAI-compatible chat completion API.
type Summarizer struct {
	client *openai.Client
	model  string
}

// SummarizerConfig holds the chat provider settings.
type SummarizerConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewSummarizer creates an OpenAI-compatible chat provider.
func NewSummarizer(cfg *SummarizerConfig) *Summarizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Summarizer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

// Summarize answers query grounded on docs.
func (s *Summarizer) Summarize(ctx context.Context, query string, docs []string) (string, error) {
	var sb strings.Builder
	sb.WriteString("Question: ")
	sb.WriteString(query)
	sb.WriteString("\n\nPatent documents:\n")
	for i, doc := range docs {
		fmt.Fprintf(&sb, "\n--- Document %d ---\n%s\n", i+1, doc)
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summarizeSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %v: %w", err, domain.ErrChatProviderError)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty chat response: %w", domain.ErrChatProviderError)
	}

	return resp.Choices[0].Message.Content, nil
}
