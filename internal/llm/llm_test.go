package llm_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alan-mat/sqlsuggest/internal/llm"
)

func TestMessageUnmarshal(t *testing.T) {
	var msgs []llm.Message
	err := json.Unmarshal([]byte(`[
		{"role": "user", "content": "allow users to read their own row"},
		{"role": "assistant", "content": "CREATE POLICY ..."},
		{"role": "system", "content": "be brief"}
	]`), &msgs)
	require.NoError(t, err)

	expected := []llm.Message{
		llm.TextMessage(llm.MessageRoleUser, "allow users to read their own row"),
		llm.TextMessage(llm.MessageRoleAssistant, "CREATE POLICY ..."),
		llm.TextMessage(llm.MessageRoleSystem, "be brief"),
	}
	assert.Equal(t, expected, msgs)
}

func TestMessageUnmarshalInvalidRole(t *testing.T) {
	var msg llm.Message
	err := json.Unmarshal([]byte(`{"role": "tool", "content": "x"}`), &msg)
	assert.ErrorIs(t, err, llm.ErrInvalidRole)

	err = json.Unmarshal([]byte(`{"role": 3, "content": "x"}`), &msg)
	assert.Error(t, err)
}

func TestMessageRoleValid(t *testing.T) {
	assert.True(t, llm.MessageRoleUser.Valid())
	assert.True(t, llm.MessageRoleAssistant.Valid())
	assert.True(t, llm.MessageRoleSystem.Valid())
	assert.False(t, llm.MessageRole("").Valid())
	assert.False(t, llm.MessageRole("model").Valid())
}
