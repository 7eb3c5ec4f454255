package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alan-mat/sqlsuggest/internal/api"
	"github.com/alan-mat/sqlsuggest/internal/provider/cohere"
	"github.com/alan-mat/sqlsuggest/internal/provider/gemini"
	"github.com/alan-mat/sqlsuggest/internal/provider/openai"
)

var (
	ErrInvalidLMProviderType = errors.New("no lmprovider found for given type")
	ErrMissingAPIKey         = errors.New("missing api key")
)

type LMProviderType string

const (
	LMProviderTypeOpenAI LMProviderType = "openai"
	LMProviderTypeGemini LMProviderType = "gemini"
	LMProviderTypeCohere LMProviderType = "cohere"
)

var keyEnv = map[LMProviderType]string{
	LMProviderTypeOpenAI: "OPENAI_KEY",
	LMProviderTypeGemini: "GEMINI_API_KEY",
	LMProviderTypeCohere: "COHERE_API_KEY",
}

// ParseLMProviderType returns the provider type for a case-insensitive name.
// An empty name selects OpenAI.
func ParseLMProviderType(s string) (LMProviderType, error) {
	if s == "" {
		return LMProviderTypeOpenAI, nil
	}

	t := LMProviderType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := keyEnv[t]; !ok {
		return "", fmt.Errorf("%w: '%s'", ErrInvalidLMProviderType, s)
	}
	return t, nil
}

// KeyEnv returns the environment variable holding the provider's API key.
func (t LMProviderType) KeyEnv() string {
	return keyEnv[t]
}

type LMProvider interface {
	Chat(context.Context, api.ChatRequest) (api.CompletionStream, error)
}

func NewLMProvider(t LMProviderType, apiKey string) (LMProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s is not set", ErrMissingAPIKey, t.KeyEnv())
	}

	switch t {
	case LMProviderTypeOpenAI:
		return openai.New(apiKey), nil
	case LMProviderTypeGemini:
		p, err := gemini.New(context.Background(), apiKey)
		if err != nil {
			return nil, err
		}
		return p, nil
	case LMProviderTypeCohere:
		return cohere.New(apiKey), nil
	default:
		return nil, ErrInvalidLMProviderType
	}
}
