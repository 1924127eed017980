package categorizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ilkoid/selcat/pkg/config"
	"github.com/ilkoid/selcat/pkg/llm"
	"github.com/ilkoid/selcat/pkg/prompt"
	"github.com/ilkoid/selcat/pkg/selectors"
	"github.com/ilkoid/selcat/pkg/utils"
)

// Classifier — AI-классификация выборки записей.
//
// Любая ошибка должна быть *ClassificationError; иные ошибки оркестратор
// считает TransportFailure.
type Classifier interface {
	Classify(ctx context.Context, req *prompt.Request) ([]selectors.Assignment, error)
}

// ErrAIUnavailable — AI-классификатор не передан оркестратору.
var ErrAIUnavailable = errors.New("ai classifier is not configured")

// Options — параметры обращения к модели.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// DefaultOptions возвращает параметры по умолчанию.
func DefaultOptions() Options {
	return Options{
		Temperature: config.DefaultTemperature,
		MaxTokens:   config.DefaultMaxTokens,
		Timeout:     config.DefaultTimeout,
	}
}

// OptionsFromModel берёт параметры из определения модели,
// незаполненные поля получают значения по умолчанию.
func OptionsFromModel(def config.ModelDef) Options {
	opts := DefaultOptions()
	opts.Model = def.ModelName
	opts.Temperature = def.Temp()
	if def.MaxTokens > 0 {
		opts.MaxTokens = def.MaxTokens
	}
	if def.Timeout > 0 {
		opts.Timeout = def.Timeout
	}
	return opts
}

// AIClassifier классифицирует выборку через llm.Provider.
type AIClassifier struct {
	provider llm.Provider
	prompt   *prompt.PromptFile
	opts     Options
}

var _ Classifier = (*AIClassifier)(nil)

// NewAIClassifier создаёт классификатор. nil pf означает встроенный промпт.
func NewAIClassifier(provider llm.Provider, pf *prompt.PromptFile, opts Options) *AIClassifier {
	if pf == nil {
		pf = prompt.DefaultPrompt()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultTimeout
	}
	return &AIClassifier{provider: provider, prompt: pf, opts: opts}
}

// Model возвращает имя модели для метаданных результата.
func (c *AIClassifier) Model() string {
	return c.opts.Model
}

// Classify выполняет одну попытку без повторов.
//
// Вызов ограничен таймаутом Options.Timeout; истечение таймаута
// и ошибки сервиса дают TransportFailure.
func (c *AIClassifier) Classify(ctx context.Context, req *prompt.Request) ([]selectors.Assignment, error) {
	if c.provider == nil {
		return nil, configurationError(ErrAIUnavailable)
	}

	messages, err := prompt.Render(c.prompt, req)
	if err != nil {
		return nil, configurationError(err)
	}

	opts := c.prompt.Options()
	if c.opts.Model != "" {
		opts = append(opts, llm.WithModel(c.opts.Model))
	}
	opts = append(opts,
		llm.WithTemperature(c.opts.Temperature),
		llm.WithMaxTokens(c.opts.MaxTokens),
	)

	callCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	raw, err := c.provider.Chat(callCtx, llm.NewChatRequest(messages, opts...))
	if err != nil {
		if errors.Is(err, llm.ErrEmptyResponse) {
			return nil, schemaError("%w", err)
		}
		return nil, transportError(err)
	}

	utils.Debug("AI response", "samples", len(req.Samples), "length", len(raw))

	return ParseResponse(raw, req)
}

// aiEntry — одна запись ответа модели. Лишние поля запрещены.
type aiEntry struct {
	ID         string   `json:"id"`
	Selector   string   `json:"selector"`
	Confidence *float64 `json:"confidence"`
	Reason     string   `json:"reason"`
}

// ParseResponse нормализует и строго валидирует ответ модели.
//
// Требования: есть categorized_selectors; в нём ровно шесть известных
// ключей; у каждой записи непустой selector и confidence в [0, 1];
// запись ссылается на элемент выборки (по id, иначе по точному совпадению
// selector); ни один элемент выборки не назначен дважды.
// Элементы выборки, которые модель пропустила, в ответ не попадают.
func ParseResponse(raw string, req *prompt.Request) ([]selectors.Assignment, error) {
	cleaned := utils.CleanJsonBlock(raw)
	if !json.Valid([]byte(cleaned)) {
		if extracted := utils.ExtractJSON(cleaned); extracted != "" {
			cleaned = extracted
		}
	}
	if cleaned == "" {
		return nil, schemaError("empty response")
	}

	var top struct {
		Categorized map[string]json.RawMessage `json:"categorized_selectors"`
	}
	if err := json.Unmarshal([]byte(cleaned), &top); err != nil {
		return nil, schemaError("response is not valid JSON: %w", err)
	}
	if top.Categorized == nil {
		return nil, schemaError("missing categorized_selectors")
	}
	for key := range top.Categorized {
		if !selectors.Category(key).Valid() {
			return nil, schemaError("unknown category %q", key)
		}
	}

	idx := newSampleIndex(req.Samples)
	assigned := make(map[int]selectors.Assignment, len(req.Samples))

	for _, category := range selectors.Categories() {
		rawEntries, ok := top.Categorized[string(category)]
		if !ok {
			return nil, schemaError("missing category %q", category)
		}

		entries, err := decodeEntries(rawEntries)
		if err != nil {
			return nil, schemaError("category %q: %w", category, err)
		}

		for i, e := range entries {
			pos, err := idx.resolve(e, assigned)
			if err != nil {
				return nil, schemaError("%s[%d]: %w", category, i, err)
			}
			if e.Confidence == nil {
				return nil, schemaError("%s[%d]: confidence is missing", category, i)
			}
			conf := *e.Confidence
			if math.IsNaN(conf) || conf < 0 || conf > 1 {
				return nil, schemaError("%s[%d]: confidence %v out of range [0, 1]", category, i, conf)
			}

			sample := req.Samples[pos]
			reason := strings.TrimSpace(e.Reason)
			if reason == "" {
				reason = "classified by AI"
			}
			assigned[pos] = selectors.Assignment{
				ID:         sample.ID,
				Selector:   sample.Selector,
				Group:      sample.Group,
				Category:   category,
				Confidence: conf,
				Reason:     reason,
				Source:     selectors.SourceAI,
			}
		}
	}

	out := make([]selectors.Assignment, 0, len(assigned))
	for pos := range req.Samples {
		if a, ok := assigned[pos]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func decodeEntries(raw json.RawMessage) ([]aiEntry, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var entries []aiEntry
	if err := dec.Decode(&entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// sampleIndex сопоставляет ссылки из ответа с позициями в выборке.
type sampleIndex struct {
	byID       map[string]int
	bySelector map[string][]int
	selectors  []string
}

func newSampleIndex(samples []prompt.Sample) *sampleIndex {
	idx := &sampleIndex{
		byID:       make(map[string]int, len(samples)),
		bySelector: make(map[string][]int, len(samples)),
		selectors:  make([]string, len(samples)),
	}
	for i, s := range samples {
		idx.selectors[i] = s.Selector
		idx.byID[s.ID] = i
		idx.bySelector[s.Selector] = append(idx.bySelector[s.Selector], i)
	}
	return idx
}

// resolve возвращает позицию элемента выборки. id имеет приоритет, но
// selector записи обязан совпадать с выборкой; без id берётся первый ещё
// не назначенный элемент с тем же selector.
func (x *sampleIndex) resolve(e aiEntry, assigned map[int]selectors.Assignment) (int, error) {
	if strings.TrimSpace(e.Selector) == "" {
		return 0, errors.New("selector is empty")
	}

	if e.ID != "" {
		pos, ok := x.byID[e.ID]
		if !ok {
			return 0, fmt.Errorf("unknown id %q", e.ID)
		}
		if _, dup := assigned[pos]; dup {
			return 0, fmt.Errorf("id %q assigned twice", e.ID)
		}
		if strings.TrimSpace(e.Selector) != x.selectors[pos] {
			return 0, fmt.Errorf("id %q has selector %q, sampled %q", e.ID, e.Selector, x.selectors[pos])
		}
		return pos, nil
	}

	candidates, ok := x.bySelector[e.Selector]
	if !ok {
		return 0, fmt.Errorf("unknown selector %q", e.Selector)
	}
	for _, pos := range candidates {
		if _, dup := assigned[pos]; !dup {
			return pos, nil
		}
	}
	return 0, fmt.Errorf("selector %q assigned twice", e.Selector)
}
