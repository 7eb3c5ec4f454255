package openai

import (
	"context"
	"fmt"
	"math"

	"github.com/alan-mat/sqlsuggest/internal/api"
	"github.com/sashabaranov/go-openai"
)

const DefaultModel = openai.GPT3Dot5Turbo1106

type OpenAIProvider struct {
	client *openai.Client
}

type Option func(*openai.ClientConfig)

// WithBaseURL points the client at an OpenAI compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *openai.ClientConfig) {
		c.BaseURL = url
	}
}

func New(apiKey string, opts ...Option) *OpenAIProvider {
	config := openai.DefaultConfig(apiKey)
	for _, opt := range opts {
		opt(&config)
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(config),
	}
}

func (p OpenAIProvider) Chat(ctx context.Context, req api.ChatRequest) (api.CompletionStream, error) {
	openaiReq := openai.ChatCompletionRequest{
		Model:       DefaultModel,
		Messages:    parseRequestMessages(req),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      true,
	}

	if req.ModelName != "" {
		openaiReq.Model = req.ModelName
	}

	// temperature is omitempty on the wire, a zero value would fall back to the API default
	if openaiReq.Temperature == 0 {
		openaiReq.Temperature = math.SmallestNonzeroFloat32
	}

	s, err := p.client.CreateChatCompletionStream(ctx, openaiReq)
	if err != nil {
		return nil, fmt.Errorf("chat streaming request failed: %w", err)
	}

	return &OpenAIChatStream{stream: s}, nil
}

func parseRequestMessages(req api.ChatRequest) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = openai.ChatCompletionMessage{
			Role:    m.Role.String(),
			Content: m.Content,
		}
	}
	return msgs
}

type OpenAIChatStream struct {
	stream *openai.ChatCompletionStream
}

func (s OpenAIChatStream) Recv() (string, error) {
	for {
		res, err := s.stream.Recv()
		if err != nil {
			return "", err
		}

		// usage and keep-alive chunks carry no choices
		if len(res.Choices) == 0 {
			continue
		}

		return res.Choices[0].Delta.Content, nil
	}
}

func (s OpenAIChatStream) Close() error {
	return s.stream.Close()
}
