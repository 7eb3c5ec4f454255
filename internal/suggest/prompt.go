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

// Package suggest assembles the chat completion request used to draft
// Postgres row level security policies.
package suggest

import (
	"strings"

	"github.com/alan-mat/sqlsuggest/internal/api"
	"github.com/alan-mat/sqlsuggest/internal/llm"
)

const DefaultMaxTokens = 1024

const schemaPreamble = "Here is my database schema for reference: "

// SystemPrompt instructs the model on the shape of the policies it writes.
// Its wording is the product behavior, keep it as is.
const SystemPrompt = `You're an Postgres expert in writing row level security policies. Your purpose is to 
generate a policy with the constraints given by the user. You will be provided a schema 
on which the policy should be applied.

The output should use the following instructions:
- The generated SQL must be valid SQL.
- Always use double apostrophe in SQL strings (eg. 'Night''s watch')
- You can use only CREATE POLICY queries, no other queries are allowed.
- You can add short explanations to your messages.
- The result should be a valid markdown. The SQL code should be wrapped in ` + "```" + `.
- Always use "auth.uid()" instead of "current_user".
- Only use "WITH CHECK" on INSERT or UPDATE policies.
- The policy name should be short text explaining the policy, enclosed in double quotes.
- Always make sure that every ` + "```" + ` has a corresponding ending tag ` + "```" + `.
- Always put explanations as separate text. Don't use inline SQL comments. 

The output should look like this: 
"CREATE POLICY user_policy ON users FOR INSERT USING (user_name = current_user) WITH (true);"`

// Options holds the fixed completion parameters. An empty Model leaves
// the choice to the provider.
type Options struct {
	Model     string
	MaxTokens int
}

// BuildMessages returns the ordered conversation sent to the provider:
// the system prompt, the schema context when any entity definitions are
// given, then the caller's messages.
func BuildMessages(entityDefinitions []string, messages []llm.Message) []llm.Message {
	out := make([]llm.Message, 0, len(messages)+2)
	out = append(out, llm.TextMessage(llm.MessageRoleSystem, SystemPrompt))

	if len(entityDefinitions) > 0 {
		out = append(out, llm.TextMessage(llm.MessageRoleUser, schemaPreamble+codeBlock(entityDefinitions)))
	}

	return append(out, messages...)
}

// NewChatRequest wraps msgs into a request with the fixed parameters.
// Temperature is always 0.
func NewChatRequest(opts Options, msgs []llm.Message) api.ChatRequest {
	req := api.ChatRequest{
		Messages:    msgs,
		ModelName:   opts.Model,
		MaxTokens:   opts.MaxTokens,
		Temperature: 0,
	}

	if req.MaxTokens <= 0 {
		req.MaxTokens = DefaultMaxTokens
	}

	return req
}

func codeBlock(defs []string) string {
	var sb strings.Builder
	sb.WriteString("```sql\n")
	sb.WriteString(strings.Join(defs, "\n\n"))
	sb.WriteString("\n```")
	return sb.String()
}
