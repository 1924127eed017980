// Package categorizer распределяет селекторы документа по шести категориям.
//
// Основной путь — одна попытка AI-классификации выборки. При любой ошибке
// AI-пути документ целиком классифицируется правилами; записи, которые AI
// не покрыл, досчитываются правилами. Результат всегда полный: каждая
// запись документа попадает ровно в одну категорию.
package categorizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/ilkoid/selcat/pkg/classifier"
	"github.com/ilkoid/selcat/pkg/prompt"
	"github.com/ilkoid/selcat/pkg/selectors"
	"github.com/ilkoid/selcat/pkg/utils"
)

// unknownURL подставляется, если документ не содержит statistics.url.
const unknownURL = "Unknown"

// Recorder сохраняет итог обработки документа (например, в журнал запусков).
type Recorder interface {
	Record(ctx context.Context, o Outcome) error
}

// Config — зависимости оркестратора.
type Config struct {
	// AI может быть nil: тогда все документы идут через правила.
	AI Classifier
	// ConfigErr объясняет, почему AI недоступен (например, нет API ключа).
	ConfigErr error
	// Model пишется в метаданные результатов AI-пути.
	Model string

	Rules      *classifier.Engine
	Now        func() time.Time
	MaxSamples int
	// BatchDelay — минимальный интервал между обращениями к AI.
	BatchDelay time.Duration
	Recorder   Recorder
}

// Categorizer — оркестратор категоризации.
type Categorizer struct {
	ai         Classifier
	configErr  error
	model      string
	rules      *classifier.Engine
	now        func() time.Time
	maxSamples int
	limiter    *rate.Limiter
	recorder   Recorder
}

// New создаёт оркестратор. Незаданные зависимости получают значения
// по умолчанию: встроенные правила, time.Now, выборка prompt.MaxSamples.
func New(cfg Config) *Categorizer {
	c := &Categorizer{
		ai:         cfg.AI,
		configErr:  cfg.ConfigErr,
		model:      cfg.Model,
		rules:      cfg.Rules,
		now:        cfg.Now,
		maxSamples: cfg.MaxSamples,
		recorder:   cfg.Recorder,
	}
	if c.rules == nil {
		c.rules = classifier.NewDefault()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.maxSamples <= 0 || c.maxSamples > prompt.MaxSamples {
		c.maxSamples = prompt.MaxSamples
	}

	// Burst 1: первый вызов сразу, каждый следующий не раньше чем через BatchDelay
	limit := rate.Inf
	if cfg.BatchDelay > 0 {
		limit = rate.Every(cfg.BatchDelay)
	}
	c.limiter = rate.NewLimiter(limit, 1)

	return c
}

// Categorize классифицирует все записи документа.
//
// Ошибки AI-пути сюда не доходят: они переводят документ на правила и
// отражаются в metadata.method и metadata.fallback_reason. Ошибка
// возвращается только для nil документа и при отмене ctx в ожидании
// интервала между вызовами AI.
func (c *Categorizer) Categorize(ctx context.Context, doc *selectors.Document, source string) (*selectors.Result, error) {
	if doc == nil {
		return nil, &InputError{Source: source, Err: errors.New("document is nil")}
	}

	records := doc.Records()
	if len(records) == 0 {
		utils.Info("Empty document, nothing to classify", "source", source)
		return c.build(doc, source, nil, selectors.MethodNone, "", ""), nil
	}

	aiAssignments, aiErr := c.attemptAI(ctx, doc)
	if aiErr != nil && !isClassification(aiErr) {
		// Отмена в ожидании интервала: документ не обработан
		return nil, aiErr
	}

	if aiErr != nil {
		kind, _ := KindOf(aiErr)
		utils.Warn("AI classification failed, using rules",
			"source", source,
			"kind", kind.String(),
			"error", aiErr)
		return c.build(doc, source, c.rules.ClassifyAll(records), selectors.MethodFallback, aiErr.Error(), ""), nil
	}

	byID := make(map[string]selectors.Assignment, len(aiAssignments))
	for _, a := range aiAssignments {
		byID[a.ID] = a
	}

	// Каждая запись проходит ровно один раз: разбиение полное и без дублей
	merged := make([]selectors.Assignment, 0, len(records))
	filled := 0
	for _, rec := range records {
		if a, ok := byID[rec.ID]; ok {
			merged = append(merged, a)
			continue
		}
		merged = append(merged, c.rules.Classify(rec))
		filled++
	}

	method := selectors.MethodAI
	if filled > 0 {
		method = selectors.MethodAIWithRules
	}
	utils.Info("AI classification merged",
		"source", source,
		"ai", len(records)-filled,
		"rules", filled)

	return c.build(doc, source, merged, method, "", c.model), nil
}

// attemptAI делает одну попытку без повторов. Любая ошибка классификатора,
// не являющаяся ClassificationError, считается TransportFailure.
// Единственная ошибка другого типа — прерванное ожидание лимитера.
func (c *Categorizer) attemptAI(ctx context.Context, doc *selectors.Document) ([]selectors.Assignment, error) {
	if c.ai == nil {
		err := c.configErr
		if err == nil {
			err = ErrAIUnavailable
		}
		return nil, configurationError(err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for ai rate limit: %w", err)
	}

	req := prompt.BuildRequestLimit(doc, c.maxSamples)
	utils.Debug("AI request built", "samples", len(req.Samples), "skipped", req.Skipped())

	assignments, err := c.ai.Classify(ctx, req)
	if err != nil {
		if !isClassification(err) {
			err = transportError(err)
		}
		return nil, err
	}
	if err := checkAssignments(assignments, req); err != nil {
		return nil, err
	}
	return assignments, nil
}

// checkAssignments проверяет ответ любого Classifier перед слиянием:
// категория из закрытого набора, confidence в [0, 1], id из выборки,
// без повторов. Нарушение — SchemaFailure.
func checkAssignments(assignments []selectors.Assignment, req *prompt.Request) error {
	sampled := make(map[string]bool, len(req.Samples))
	for _, s := range req.Samples {
		sampled[s.ID] = true
	}

	seen := make(map[string]bool, len(assignments))
	for i, a := range assignments {
		switch {
		case !a.Category.Valid():
			return schemaError("assignment %d: unknown category %q", i, a.Category)
		case math.IsNaN(a.Confidence) || a.Confidence < 0 || a.Confidence > 1:
			return schemaError("assignment %d: confidence %v out of range [0, 1]", i, a.Confidence)
		case !sampled[a.ID]:
			return schemaError("assignment %d: id %q is not in the sample", i, a.ID)
		case seen[a.ID]:
			return schemaError("assignment %d: id %q assigned twice", i, a.ID)
		}
		seen[a.ID] = true
	}
	return nil
}

func isClassification(err error) bool {
	_, ok := KindOf(err)
	return ok
}

// build собирает неизменяемый результат и статистику.
func (c *Categorizer) build(doc *selectors.Document, source string, assignments []selectors.Assignment,
	method selectors.Method, fallbackReason, model string) *selectors.Result {

	url := doc.Statistics.URL
	if url == "" {
		url = unknownURL
	}

	categorized := make(map[selectors.Category][]selectors.Assignment, len(selectors.Categories()))
	counts := make(map[selectors.Category]int, len(selectors.Categories()))
	for _, cat := range selectors.Categories() {
		categorized[cat] = []selectors.Assignment{}
		counts[cat] = 0
	}

	sum := 0.0
	for _, a := range assignments {
		categorized[a.Category] = append(categorized[a.Category], a)
		counts[a.Category]++
		sum += a.Confidence
	}

	avg := 0.0
	if len(assignments) > 0 {
		avg = math.Round(sum/float64(len(assignments))*100) / 100
	}

	return &selectors.Result{
		Metadata: selectors.Metadata{
			OriginalFile:            source,
			CategorizationTimestamp: c.now().Format(time.RFC3339),
			OriginalURL:             url,
			TotalOriginalSelectors:  doc.GroupCounts(),
			Method:                  method,
			FallbackReason:          fallbackReason,
			Model:                   model,
		},
		Categories:  selectors.DefinitionMap(),
		Categorized: categorized,
		Summary: selectors.Summary{
			TotalCategorized:  len(assignments),
			CategoryCounts:    counts,
			AverageConfidence: avg,
			Method:            method,
		},
		Original: doc.Raw,
	}
}
