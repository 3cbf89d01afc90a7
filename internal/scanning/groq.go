package scanning

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const (
	groqBaseURL      = "https://api.groq.com/openai/v1"
	defaultGroqModel = "meta-llama/llama-4-scout-17b-16e-instruct"
)

// Groq implements Vision through Groq's OpenAI compatible chat API
type Groq struct {
	client *openai.Client
	model  string
}

// NewGroq creates a new Groq client. An empty baseURL uses Groq's endpoint.
func NewGroq(apiKey, baseURL, modelName string) (*Groq, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("groq api key is required")
	}
	if baseURL == "" {
		baseURL = groqBaseURL
	}
	if modelName == "" {
		modelName = defaultGroqModel
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL

	return &Groq{
		client: openai.NewClientWithConfig(config),
		model:  modelName,
	}, nil
}

// Complete sends the prompt with the image inlined as a data URL
func (g *Groq) Complete(ctx context.Context, image []byte, mimeType string, prompt string) (string, error) {
	imageURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: imageURL}},
				},
			},
		},
		MaxTokens:   500,
		Temperature: 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("calling groq API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Close is a no-op for the HTTP client
func (g *Groq) Close() error {
	return nil
}
