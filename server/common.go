// Copyright 2025 Alan Matykiewicz
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alan-mat/sqlsuggest/internal/api"
)

// relayCompletionStream writes the completion to the response as plain text,
// flushing after every chunk. Nothing is written until the first non-empty
// chunk arrives, so a stream that fails up front still gets a JSON 500.
// A failure after that aborts the response.
func relayCompletionStream(c *gin.Context, traceID string, cs api.CompletionStream) {
	first, err := recvNonEmpty(cs)
	if err != nil && !errors.Is(err, io.EOF) {
		slog.Error("provider stream failed", "id", traceID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgProcessingError})
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Status(http.StatusOK)

	if errors.Is(err, io.EOF) {
		c.Writer.WriteHeaderNow()
		slog.Debug("provider stream finished", "id", traceID, "chunks", 0)
		return
	}

	chunk := first
	sent := 0
	for {
		if _, err := c.Writer.WriteString(chunk); err != nil {
			slog.Warn("failed writing chunk, client gone", "id", traceID, "err", err)
			return
		}
		c.Writer.Flush()
		sent += 1

		chunk, err = cs.Recv()
		if errors.Is(err, io.EOF) {
			slog.Debug("provider stream finished", "id", traceID, "chunks", sent)
			return
		}

		if err != nil {
			if c.Request.Context().Err() != nil {
				slog.Debug("client disconnected", "id", traceID)
				return
			}
			slog.Error("provider stream failed mid-response, aborting", "id", traceID, "chunks", sent, "err", err)
			panic(http.ErrAbortHandler)
		}
	}
}

func recvNonEmpty(cs api.CompletionStream) (string, error) {
	for {
		chunk, err := cs.Recv()
		if err != nil {
			return "", err
		}
		if chunk != "" {
			return chunk, nil
		}
	}
}
