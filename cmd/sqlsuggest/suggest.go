package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alan-mat/sqlsuggest/internal/api"
	"github.com/alan-mat/sqlsuggest/internal/config"
	"github.com/alan-mat/sqlsuggest/internal/llm"
	"github.com/alan-mat/sqlsuggest/internal/provider"
	"github.com/alan-mat/sqlsuggest/internal/suggest"
)

func runSuggest(ctx context.Context, conf *config.Config, cmd *suggestCmd, prov provider.LMProvider) error {
	if prov == nil {
		return fmt.Errorf("no %s set, create this environment variable to use AI features", conf.ProviderType().KeyEnv())
	}

	defs := make([]string, 0, len(cmd.Schema))
	for _, path := range cmd.Schema {
		b, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read schema file: %w", err)
		}
		defs = append(defs, string(b))
	}

	msgs := suggest.BuildMessages(defs, []llm.Message{
		llm.TextMessage(llm.MessageRoleUser, cmd.Prompt),
	})
	req := suggest.NewChatRequest(suggest.Options{
		Model:     conf.Provider.Model,
		MaxTokens: conf.Provider.MaxTokens,
	}, msgs)

	cs, err := prov.Chat(ctx, req)
	if err != nil {
		return err
	}

	if err := api.StreamCopy(ctx, os.Stdout, cs); err != nil {
		return fmt.Errorf("completion stream failed: %w", err)
	}
	fmt.Fprintln(os.Stdout)
	return nil
}
