package factory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ilkoid/selcat/pkg/config"
	"github.com/ilkoid/selcat/pkg/llm"
	"github.com/ilkoid/selcat/pkg/llm/openai"
)

// ErrMissingAPIKey возвращается, когда облачному провайдеру не передан ключ.
var ErrMissingAPIKey = errors.New("api key is not configured")

// Базовые адреса OpenAI-совместимых API.
const (
	GroqBaseURL       = "https://api.groq.com/openai/v1"
	DeepSeekBaseURL   = "https://api.deepseek.com/v1"
	ZaiBaseURL        = "https://api.z.ai/api/paas/v4"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	LocalBaseURL      = "http://localhost:1234/v1"
)

// localAPIKey подставляется для локальных серверов, которые ключ не проверяют.
const localAPIKey = "lm-studio"

// NewLLMProvider создает провайдера на основе конфигурации модели.
//
// Все провайдеры говорят на OpenAI-совместимом протоколе и отличаются
// только BaseURL. Явно заданный base_url имеет приоритет.
func NewLLMProvider(modelDef config.ModelDef) (llm.Provider, error) {
	def := modelDef

	switch strings.ToLower(def.Provider) {
	case "groq", "":
		def.BaseURL = orDefault(def.BaseURL, GroqBaseURL)
	case "openai":
	case "deepseek":
		def.BaseURL = orDefault(def.BaseURL, DeepSeekBaseURL)
	case "zai":
		def.BaseURL = orDefault(def.BaseURL, ZaiBaseURL)
	case "openrouter":
		def.BaseURL = orDefault(def.BaseURL, OpenRouterBaseURL)
	case "local":
		def.BaseURL = orDefault(def.BaseURL, LocalBaseURL)
		def.APIKey = orDefault(def.APIKey, localAPIKey)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", modelDef.Provider)
	}

	if def.APIKey == "" {
		return nil, fmt.Errorf("provider %q: %w", orDefault(modelDef.Provider, "groq"), ErrMissingAPIKey)
	}

	return openai.NewClient(def), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
