package gemini

import (
	"context"
	"fmt"
	"io"
	"iter"
	"math"
	"strings"

	"github.com/alan-mat/sqlsuggest/internal/api"
	"github.com/alan-mat/sqlsuggest/internal/llm"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.0-flash"

type GeminiProvider struct {
	client *genai.Client
}

func New(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiProvider{client: c}, nil
}

func (p GeminiProvider) Chat(ctx context.Context, req api.ChatRequest) (api.CompletionStream, error) {
	system, contents := parseRequestMessages(req.Messages)

	temperature := req.Temperature
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: maxOutputTokens(req.MaxTokens),
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, "")
	}

	modelName := DefaultModel
	if req.ModelName != "" {
		modelName = req.ModelName
	}

	i := p.client.Models.GenerateContentStream(ctx, modelName, contents, config)

	next, stop := iter.Pull2(i)
	return &GeminiCompletionStream{
		next: next,
		stop: stop,
	}, nil
}

func maxOutputTokens(n int) int32 {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	if n < 0 {
		return 0
	}
	return int32(n)
}

// parseRequestMessages splits system messages off into a single system
// instruction, since gemini only accepts user and model turns in contents.
func parseRequestMessages(msgs []llm.Message) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(msgs))

	for _, m := range msgs {
		switch m.Role {
		case llm.MessageRoleSystem:
			system = append(system, m.Content)
		case llm.MessageRoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	return strings.Join(system, "\n\n"), contents
}

type GeminiCompletionStream struct {
	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()
}

func (s GeminiCompletionStream) Recv() (string, error) {
	res, err, valid := s.next()
	if !valid {
		// iterator is finished
		return "", io.EOF
	}

	if err != nil {
		return "", err
	}

	return res.Text(), nil
}

func (s GeminiCompletionStream) Close() error {
	s.stop()
	return nil
}
