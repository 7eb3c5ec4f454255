package gemini

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/alan-mat/sqlsuggest/internal/llm"
)

func TestParseRequestMessages(t *testing.T) {
	system, contents := parseRequestMessages([]llm.Message{
		llm.TextMessage(llm.MessageRoleSystem, "You're an Postgres expert."),
		llm.TextMessage(llm.MessageRoleUser, "Here is my database schema for reference: ..."),
		llm.TextMessage(llm.MessageRoleUser, "allow users to read their own row"),
		llm.TextMessage(llm.MessageRoleAssistant, "CREATE POLICY ..."),
	})

	assert.Equal(t, "You're an Postgres expert.", system)
	require.Len(t, contents, 3)

	roles := make([]string, len(contents))
	texts := make([]string, len(contents))
	for i, c := range contents {
		roles[i] = c.Role
		require.Len(t, c.Parts, 1)
		texts[i] = c.Parts[0].Text
	}

	assert.Equal(t, []string{string(genai.RoleUser), string(genai.RoleUser), string(genai.RoleModel)}, roles)
	assert.Equal(t, []string{
		"Here is my database schema for reference: ...",
		"allow users to read their own row",
		"CREATE POLICY ...",
	}, texts)
}

func TestParseRequestMessagesNoSystem(t *testing.T) {
	system, contents := parseRequestMessages([]llm.Message{
		llm.TextMessage(llm.MessageRoleUser, "hi"),
	})
	assert.Empty(t, system)
	assert.Len(t, contents, 1)
}

func TestCompletionStream(t *testing.T) {
	streamErr := errors.New("quota exceeded")
	responses := []struct {
		text string
		err  error
	}{
		{text: "CREATE "},
		{text: "POLICY"},
		{err: streamErr},
	}

	stopped := false
	i := 0
	s := GeminiCompletionStream{
		next: func() (*genai.GenerateContentResponse, error, bool) {
			if i >= len(responses) {
				return nil, nil, false
			}
			r := responses[i]
			i++
			if r.err != nil {
				return nil, r.err, true
			}
			return &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{
					Content: genai.NewContentFromText(r.text, genai.RoleModel),
				}},
			}, nil, true
		},
		stop: func() { stopped = true },
	}

	chunk, err := s.Recv()
	require.NoError(t, err)
	assert.Equal(t, "CREATE ", chunk)

	chunk, err = s.Recv()
	require.NoError(t, err)
	assert.Equal(t, "POLICY", chunk)

	_, err = s.Recv()
	assert.ErrorIs(t, err, streamErr)

	_, err = s.Recv()
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, s.Close())
	assert.True(t, stopped)
}

func TestMaxOutputTokens(t *testing.T) {
	assert.Equal(t, int32(1024), maxOutputTokens(1024))
	assert.Equal(t, int32(0), maxOutputTokens(-5))
	assert.Equal(t, int32(math.MaxInt32), maxOutputTokens(math.MaxInt32+1))
}
