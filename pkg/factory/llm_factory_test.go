package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/selcat/pkg/config"
)

func TestNewLLMProvider(t *testing.T) {
	tests := []struct {
		name    string
		def     config.ModelDef
		wantErr error
		anyErr  bool
	}{
		{name: "groq", def: config.ModelDef{Provider: "groq", APIKey: "gsk", ModelName: "llama-3.1-8b-instant"}},
		{name: "empty provider means groq", def: config.ModelDef{APIKey: "gsk"}},
		{name: "openai", def: config.ModelDef{Provider: "openai", APIKey: "sk"}},
		{name: "deepseek", def: config.ModelDef{Provider: "DeepSeek", APIKey: "sk"}},
		{name: "zai", def: config.ModelDef{Provider: "zai", APIKey: "sk"}},
		{name: "openrouter", def: config.ModelDef{Provider: "openrouter", APIKey: "sk"}},
		{name: "local without key", def: config.ModelDef{Provider: "local", ModelName: "openai/gpt-oss-20b"}},
		{name: "groq without key", def: config.ModelDef{Provider: "groq"}, wantErr: ErrMissingAPIKey},
		{name: "unknown provider", def: config.ModelDef{Provider: "anthropic-direct", APIKey: "k"}, anyErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewLLMProvider(tt.def)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, p)
			case tt.anyErr:
				assert.Error(t, err)
				assert.Nil(t, p)
			default:
				require.NoError(t, err)
				assert.NotNil(t, p)
			}
		})
	}
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, "x", orDefault("x", "y"))
	assert.Equal(t, "y", orDefault("", "y"))
}
