// Package classifier реализует детерминированную rule-based классификацию
// селекторов по ключевым словам.
//
// Это запасной путь: он используется, когда AI недоступен или ответил
// некорректно, и для записей, не попавших в выборку для LLM.
package classifier

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ilkoid/selcat/pkg/selectors"
)

// Константы уверенности rule-based классификатора.
const (
	BaseConfidence = 0.5
	ConfidenceStep = 0.05
	MaxConfidence  = 0.8
	// MinConfidence назначается записи без единого совпадения.
	MinConfidence = 0.3
)

// Веса полей записи при подсчёте очков.
const (
	weightSelector  = 2
	weightAttribute = 2
	weightTag       = 1
	weightText      = 1
)

// Rule — ключевые слова одной категории.
type Rule struct {
	Category selectors.Category
	Keywords []string
}

// Engine выполняет классификацию
type Engine struct {
	rules []Rule
}

// New создаёт движок. Правила приводятся к порядку объявления категорий,
// категории без правил получают пустой список ключевых слов.
func New(rules []Rule) *Engine {
	byCategory := make(map[selectors.Category][]string, len(rules))
	for _, r := range rules {
		byCategory[r.Category] = normalize(r.Keywords)
	}

	ordered := make([]Rule, 0, len(selectors.Categories()))
	for _, c := range selectors.Categories() {
		ordered = append(ordered, Rule{Category: c, Keywords: byCategory[c]})
	}
	return &Engine{rules: ordered}
}

// NewDefault создаёт движок со встроенными правилами.
func NewDefault() *Engine {
	return New(DefaultRules())
}

// Rules возвращает копию правил в порядке объявления категорий.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	for i, r := range e.rules {
		out[i] = Rule{Category: r.Category, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// Classify назначает записи ровно одну категорию. Никогда не падает.
//
// Каждое ключевое слово считается один раз с максимальным весом среди
// полей, где оно найдено. Побеждает наибольшая сумма; при равенстве —
// категория, объявленная раньше. Ноль совпадений даёт support_misc.
func (e *Engine) Classify(rec selectors.Record) selectors.Assignment {
	fields := recordFields(rec)

	best := -1
	bestScore := 0
	var bestMatched []string

	for i, rule := range e.rules {
		score := 0
		var matched []string
		for _, kw := range rule.Keywords {
			if w := fields.weight(kw); w > 0 {
				score += w
				matched = append(matched, kw)
			}
		}
		if score > bestScore {
			best, bestScore, bestMatched = i, score, matched
		}
	}

	a := selectors.Assignment{
		ID:       rec.ID,
		Selector: rec.Selector,
		Group:    rec.Group,
		Source:   selectors.SourceRules,
	}

	if best < 0 {
		a.Category = selectors.SupportMisc
		a.Confidence = MinConfidence
		a.Reason = "no category keywords matched"
		return a
	}

	a.Category = e.rules[best].Category
	a.Confidence = Confidence(bestScore)
	a.Reason = fmt.Sprintf("matched %s keywords: %s", a.Category, strings.Join(bestMatched, ", "))
	return a
}

// ClassifyAll классифицирует записи, сохраняя их порядок.
func (e *Engine) ClassifyAll(records []selectors.Record) []selectors.Assignment {
	out := make([]selectors.Assignment, len(records))
	for i, rec := range records {
		out[i] = e.Classify(rec)
	}
	return out
}

// Confidence переводит очки в уверенность: min(0.5 + 0.05*score, 0.8),
// округлённую до сотых. Для score <= 0 возвращает MinConfidence.
func Confidence(score int) float64 {
	if score <= 0 {
		return MinConfidence
	}
	c := math.Min(BaseConfidence+ConfidenceStep*float64(score), MaxConfidence)
	return math.Round(c*100) / 100
}

// fields — нормализованные поля записи с весами.
type fields []weightedField

type weightedField struct {
	text   string
	weight int
}

func recordFields(rec selectors.Record) fields {
	f := fields{
		{strings.ToLower(rec.Selector), weightSelector},
	}

	keys := make([]string, 0, len(rec.Attributes))
	for k := range rec.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		f = append(f, weightedField{strings.ToLower(rec.Attributes[k]), weightAttribute})
	}

	f = append(f,
		weightedField{strings.ToLower(rec.Tag), weightTag},
		weightedField{strings.ToLower(rec.Text), weightText},
	)
	return f
}

// weight возвращает максимальный вес поля, содержащего kw, или 0.
func (f fields) weight(kw string) int {
	best := 0
	for _, field := range f {
		if field.weight > best && field.text != "" && strings.Contains(field.text, kw) {
			best = field.weight
		}
	}
	return best
}

func normalize(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}
