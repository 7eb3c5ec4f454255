package api

import (
	"context"
	"errors"
	"io"

	"github.com/alan-mat/sqlsuggest/internal/llm"
)

// ChatRequest is a streamed chat completion request. Messages are sent
// to the provider in order.
type ChatRequest struct {
	// Required
	Messages []llm.Message

	// Optional params
	ModelName   string
	MaxTokens   int
	Temperature float32
}

type CompletionStream interface {
	Recv() (string, error)
	Close() error
}

// StreamCopy writes every chunk received from a completion stream to w in order,
// until the stream is exhausted or the context is done. Calling this function will
// always close the underlying stream.
func StreamCopy(ctx context.Context, w io.Writer, stream CompletionStream) error {
	defer stream.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if _, err := io.WriteString(w, chunk); err != nil {
			return err
		}
	}
}
