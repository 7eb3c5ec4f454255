package cohere

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/alan-mat/sqlsuggest/internal/api"
	"github.com/alan-mat/sqlsuggest/internal/llm"
	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	coherecore "github.com/cohere-ai/cohere-go/v2/core"
)

const DefaultModel = "command-r-08-2024"

type CohereProvider struct {
	client *cohereclient.Client
}

func New(apiKey string) *CohereProvider {
	c := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(
			&http.Client{
				// no overall timeout, a streamed answer may take longer than a minute
				Transport: &http.Transport{
					ResponseHeaderTimeout: 60 * time.Second,
				},
			},
		),
	)
	return &CohereProvider{
		client: c,
	}
}

func (p CohereProvider) Chat(ctx context.Context, req api.ChatRequest) (api.CompletionStream, error) {
	temp := float64(req.Temperature)
	cohereReq := &cohere.V2ChatStreamRequest{
		Model:       DefaultModel,
		Messages:    parseRequestMessages(req.Messages),
		Temperature: &temp,
	}

	if req.ModelName != "" {
		cohereReq.Model = req.ModelName
	}

	if req.MaxTokens > 0 {
		maxTokens := req.MaxTokens
		cohereReq.MaxTokens = &maxTokens
	}

	stream, err := p.client.V2.ChatStream(ctx, cohereReq)
	if err != nil {
		return nil, fmt.Errorf("chat streaming request failed: %w", err)
	}

	return &CohereCompletionStream{stream: stream}, nil
}

func parseRequestMessages(msgs []llm.Message) cohere.ChatMessages {
	messages := make([]*cohere.ChatMessageV2, 0, len(msgs))
	for _, m := range msgs {
		var coMsg *cohere.ChatMessageV2
		switch m.Role {
		case llm.MessageRoleSystem:
			coMsg = &cohere.ChatMessageV2{
				Role: "system",
				System: &cohere.SystemMessage{Content: &cohere.SystemMessageContent{
					String: m.Content,
				}},
			}
		case llm.MessageRoleAssistant:
			coMsg = &cohere.ChatMessageV2{
				Role: "assistant",
				Assistant: &cohere.AssistantMessage{Content: &cohere.AssistantMessageContent{
					String: m.Content,
				}},
			}
		default:
			coMsg = &cohere.ChatMessageV2{
				Role: "user",
				User: &cohere.UserMessage{Content: &cohere.UserMessageContent{
					String: m.Content,
				}},
			}
		}

		messages = append(messages, coMsg)
	}

	return messages
}

type CohereCompletionStream struct {
	stream *coherecore.Stream[cohere.StreamedChatResponseV2]
}

// Recv skips stream events that carry no text, such as message-start
// and content-end.
func (s CohereCompletionStream) Recv() (string, error) {
	for {
		resp, err := s.stream.Recv()
		if err != nil {
			return "", err
		}

		if text, ok := contentDeltaText(resp); ok {
			return text, nil
		}
	}
}

func (s CohereCompletionStream) Close() error {
	return s.stream.Close()
}

func contentDeltaText(resp cohere.StreamedChatResponseV2) (string, bool) {
	cd := resp.ContentDelta
	if cd == nil || cd.Delta == nil || cd.Delta.Message == nil ||
		cd.Delta.Message.Content == nil || cd.Delta.Message.Content.Text == nil {
		return "", false
	}
	return *cd.Delta.Message.Content.Text, true
}
