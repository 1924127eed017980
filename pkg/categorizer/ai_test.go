package categorizer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/selcat/pkg/config"
	"github.com/ilkoid/selcat/pkg/llm"
	"github.com/ilkoid/selcat/pkg/prompt"
	"github.com/ilkoid/selcat/pkg/selectors"
)

// sampleRequest — выборка из трёх записей, две с одинаковым selector.
func sampleRequest() *prompt.Request {
	return &prompt.Request{
		Categories: selectors.Definitions(),
		Samples: []prompt.Sample{
			{ID: "a", Group: "id_selectors", Selector: "#search"},
			{ID: "b", Group: "class_selectors", Selector: ".card"},
			{ID: "c", Group: "class_selectors", Selector: ".card"},
		},
	}
}

const fullResponse = `{
  "categorized_selectors": {
    "navigation_layout": [],
    "authentication_account": [],
    "search_filters": [{"id": "a", "selector": "#search", "confidence": 0.95, "reason": "search box"}],
    "category_listing": [{"selector": ".card", "confidence": 0.8, "reason": "listing card"},
                         {"selector": ".card", "confidence": 0.7, "reason": "listing card"}],
    "product_details": [],
    "support_misc": []
  },
  "summary": {"total_categorized": 3}
}`

func TestParseResponse_Valid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"plain", fullResponse},
		{"fenced", "```json\n" + fullResponse + "\n```"},
		{"fenced upper", "```JSON " + fullResponse + " ```"},
		{"prose around", "Here is the result:\n" + fullResponse + "\nHope it helps!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResponse(tt.raw, sampleRequest())
			require.NoError(t, err)
			require.Len(t, got, 3)

			assert.Equal(t, "a", got[0].ID)
			assert.Equal(t, selectors.SearchFilters, got[0].Category)
			assert.Equal(t, 0.95, got[0].Confidence)
			assert.Equal(t, "id_selectors", got[0].Group)
			assert.Equal(t, selectors.SourceAI, got[0].Source)

			assert.Equal(t, "b", got[1].ID, "duplicate selectors resolve in sample order")
			assert.Equal(t, 0.8, got[1].Confidence)
			assert.Equal(t, "c", got[2].ID)
			assert.Equal(t, 0.7, got[2].Confidence)
		})
	}
}

func TestParseResponse_PartialCoverage(t *testing.T) {
	raw := `{"categorized_selectors": {
		"navigation_layout": [], "authentication_account": [],
		"search_filters": [{"id": "a", "selector": "#search", "confidence": 1, "reason": ""}],
		"category_listing": [], "product_details": [], "support_misc": null}}`

	got, err := ParseResponse(raw, sampleRequest())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "classified by AI", got[0].Reason)
}

func TestParseResponse_SchemaFailures(t *testing.T) {
	entry := func(body string) string {
		return `{"categorized_selectors": {
			"navigation_layout": [` + body + `], "authentication_account": [],
			"search_filters": [], "category_listing": [], "product_details": [], "support_misc": []}}`
	}

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", "   "},
		{"not json", "I cannot help with that."},
		{"truncated", `{"categorized_selectors": {"navigation_layout": [`},
		{"missing top key", `{"selectors": {}}`},
		{"top key null", `{"categorized_selectors": null}`},
		{"missing category", `{"categorized_selectors": {"navigation_layout": []}}`},
		{"unknown category", `{"categorized_selectors": {"navigation_layout": [], "authentication_account": [],
			"search_filters": [], "category_listing": [], "product_details": [], "support_misc": [], "checkout": []}}`},
		{"category is not a list", `{"categorized_selectors": {"navigation_layout": {"id": "a"}, "authentication_account": [],
			"search_filters": [], "category_listing": [], "product_details": [], "support_misc": []}}`},
		{"unknown id", entry(`{"id": "zzz", "selector": "#search", "confidence": 0.5, "reason": "r"}`)},
		{"unknown selector", entry(`{"selector": "#nope", "confidence": 0.5, "reason": "r"}`)},
		{"id with foreign selector", entry(`{"id": "a", "selector": "#totally-different", "confidence": 0.5, "reason": "r"}`)},
		{"id points at another sample", entry(`{"id": "b", "selector": "#search", "confidence": 0.5, "reason": "r"}`)},
		{"empty selector", entry(`{"id": "a", "selector": " ", "confidence": 0.5, "reason": "r"}`)},
		{"id twice", entry(`{"id": "a", "selector": "#search", "confidence": 0.5, "reason": "r"},
			{"id": "a", "selector": "#search", "confidence": 0.5, "reason": "r"}`)},
		{"selector exhausted", entry(`{"selector": "#search", "confidence": 0.5, "reason": "r"},
			{"selector": "#search", "confidence": 0.5, "reason": "r"}`)},
		{"confidence above 1", entry(`{"id": "a", "selector": "#search", "confidence": 1.2, "reason": "r"}`)},
		{"confidence negative", entry(`{"id": "a", "selector": "#search", "confidence": -0.1, "reason": "r"}`)},
		{"confidence missing", entry(`{"id": "a", "selector": "#search", "reason": "r"}`)},
		{"confidence as string", entry(`{"id": "a", "selector": "#search", "confidence": "high", "reason": "r"}`)},
		{"unknown entry field", entry(`{"id": "a", "selector": "#search", "confidence": 0.5, "reason": "r", "category": "x"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResponse(tt.raw, sampleRequest())
			require.Error(t, err)

			kind, ok := KindOf(err)
			require.True(t, ok, "error must be a ClassificationError: %v", err)
			assert.Equal(t, SchemaFailure, kind)
		})
	}
}

func TestAIClassifier_Classify(t *testing.T) {
	mock := &MockLLMProvider{response: fullResponse}
	c := NewAIClassifier(mock, nil, OptionsFromModel(config.ModelDef{ModelName: "llama-3.1-8b-instant"}))

	got, err := c.Classify(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, "llama-3.1-8b-instant", c.Model())

	require.Len(t, mock.requests, 1)
	req := mock.requests[0]
	assert.Equal(t, "llama-3.1-8b-instant", req.Model)
	assert.Equal(t, 0.1, req.Temperature)
	assert.Equal(t, 4000, req.MaxTokens)
	assert.Equal(t, llm.FormatJSONObject, req.Format)
	require.Len(t, req.Messages, 2)
	assert.Contains(t, req.Messages[1].Content, `"selector": "#search"`)
}

func TestAIClassifier_Failures(t *testing.T) {
	tests := []struct {
		name     string
		provider llm.Provider
		timeout  time.Duration
		wantKind FailureKind
		wantErr  error
	}{
		{
			name:     "no provider",
			provider: nil,
			wantKind: ConfigurationFailure,
			wantErr:  ErrAIUnavailable,
		},
		{
			name:     "service error",
			provider: &MockLLMProvider{err: errors.New("openai api error: 503")},
			wantKind: TransportFailure,
		},
		{
			name:     "empty choices",
			provider: &MockLLMProvider{err: llm.ErrEmptyResponse},
			wantKind: SchemaFailure,
			wantErr:  llm.ErrEmptyResponse,
		},
		{
			name:     "timeout",
			provider: &MockLLMProvider{block: true},
			timeout:  20 * time.Millisecond,
			wantKind: TransportFailure,
			wantErr:  context.DeadlineExceeded,
		},
		{
			name:     "garbage",
			provider: &MockLLMProvider{response: "sorry"},
			wantKind: SchemaFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			if tt.timeout > 0 {
				opts.Timeout = tt.timeout
			}
			c := NewAIClassifier(tt.provider, nil, opts)

			_, err := c.Classify(context.Background(), sampleRequest())
			require.Error(t, err)

			kind, ok := KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, kind)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestAIClassifier_BrokenPromptIsConfigurationFailure(t *testing.T) {
	pf := &prompt.PromptFile{Messages: []prompt.Message{{Role: llm.RoleUser, Content: "{{.Missing}}"}}}
	c := NewAIClassifier(&MockLLMProvider{response: fullResponse}, pf, DefaultOptions())

	_, err := c.Classify(context.Background(), sampleRequest())
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ConfigurationFailure, kind)
}

func TestOptionsFromModel(t *testing.T) {
	tests := []struct {
		name     string
		def      config.ModelDef
		wantTemp float64
	}{
		{"explicit", config.ModelDef{ModelName: "m", Temperature: config.Float(0.3), Timeout: 5 * time.Second}, 0.3},
		{"explicit zero", config.ModelDef{ModelName: "m", Temperature: config.Float(0), Timeout: 5 * time.Second}, 0},
		{"unset", config.ModelDef{ModelName: "m", Timeout: 5 * time.Second}, config.DefaultTemperature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := OptionsFromModel(tt.def)
			assert.Equal(t, "m", opts.Model)
			assert.Equal(t, tt.wantTemp, opts.Temperature)
			assert.Equal(t, config.DefaultMaxTokens, opts.MaxTokens)
			assert.Equal(t, 5*time.Second, opts.Timeout)
		})
	}
}

func TestFailureKind_String(t *testing.T) {
	assert.Equal(t, "transport", TransportFailure.String())
	assert.Equal(t, "schema", SchemaFailure.String())
	assert.Equal(t, "configuration", ConfigurationFailure.String())
	assert.Equal(t, "unknown", FailureKind(0).String())
}
