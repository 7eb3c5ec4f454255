package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alan-mat/sqlsuggest/internal/llm"
	"github.com/alan-mat/sqlsuggest/internal/suggest"
)

const (
	msgProcessingError = "There was an error processing your request"
	msgInvalidBody     = "Invalid request body"
)

var errMissingRole = errors.New("message is missing a valid role")

// SuggestRequest is the body of a suggestion request. Both fields are optional.
type SuggestRequest struct {
	Messages          []llm.Message `json:"messages"`
	EntityDefinitions []string      `json:"entityDefinitions"`
}

func (s *Server) Suggest(c *gin.Context) {
	if s.config.APIKey == "" {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("No %s set. Create this environment variable to use AI features.", s.config.KeyEnv),
		})
		return
	}

	if c.Request.Method != http.MethodPost {
		c.Header("Allow", http.MethodPost)
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error": fmt.Sprintf("Method %s Not Allowed", c.Request.Method),
		})
		return
	}

	rid := requestID(c)

	req, err := decodeSuggestRequest(c.Request.Body)
	if err != nil {
		slog.Debug("rejected suggestion request", "id", rid, "err", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidBody})
		return
	}
	slog.Debug("received suggestion request", "id", rid,
		"messages", len(req.Messages), "entityDefinitions", len(req.EntityDefinitions))

	msgs := suggest.BuildMessages(req.EntityDefinitions, req.Messages)
	creq := suggest.NewChatRequest(s.config.Completion, msgs)

	cs, err := s.provider.Chat(c.Request.Context(), creq)
	if err != nil {
		slog.Error("failed to create completion stream", "id", rid, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgProcessingError})
		return
	}
	defer cs.Close()

	relayCompletionStream(c, rid, cs)
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// decodeSuggestRequest accepts an empty body as a request with no fields.
func decodeSuggestRequest(body io.Reader) (*SuggestRequest, error) {
	var req SuggestRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	for i, m := range req.Messages {
		if !m.Role.Valid() {
			return nil, fmt.Errorf("messages[%d]: %w", i, errMissingRole)
		}
	}

	return &req, nil
}
