package selectors

import (
	"bytes"
	"encoding/json"
)

// Source — происхождение отдельного назначения категории.
type Source string

const (
	SourceAI    Source = "ai"
	SourceRules Source = "rules"
)

// Method — каким путём был получен результат для документа целиком.
type Method string

const (
	// MethodAI — все записи классифицированы LLM.
	MethodAI Method = "ai"
	// MethodAIWithRules — LLM ответила успешно, но часть записей
	// (не попавших в выборку или пропущенных моделью) досчитана правилами.
	MethodAIWithRules Method = "ai_with_rules"
	// MethodFallback — AI-путь недоступен или вернул ошибку.
	MethodFallback Method = "fallback_rules"
	// MethodNone — в документе нет записей, классифицировать нечего.
	MethodNone Method = "none"
)

// Assignment — категория, назначенная одной записи.
type Assignment struct {
	ID         string   `json:"id"`
	Selector   string   `json:"selector"`
	Group      string   `json:"group"`
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
	Reason     string   `json:"reason"`
	Source     Source   `json:"source"`
}

// Metadata — служебный блок результата.
type Metadata struct {
	OriginalFile            string         `json:"original_file"`
	CategorizationTimestamp string         `json:"categorization_timestamp"`
	OriginalURL             string         `json:"original_url"`
	TotalOriginalSelectors  map[string]int `json:"total_original_selectors"`
	Method                  Method         `json:"method"`
	FallbackReason          string         `json:"fallback_reason,omitempty"`
	Model                   string         `json:"model,omitempty"`
}

// Summary — агрегированная статистика. Для пустого документа
// AverageConfidence равен 0.
type Summary struct {
	TotalCategorized  int              `json:"total_categorized"`
	CategoryCounts    map[Category]int `json:"category_counts"`
	AverageConfidence float64          `json:"average_confidence"`
	Method            Method           `json:"method"`
}

// Result — итоговый документ категоризации. После создания не изменяется.
type Result struct {
	Metadata    Metadata                  `json:"metadata"`
	Categories  map[Category]Definition   `json:"categories"`
	Categorized map[Category][]Assignment `json:"categorized_selectors"`
	Summary     Summary                   `json:"categorization_summary"`
	Original    json.RawMessage           `json:"original_selectors"`
}

// Assignments возвращает все назначения в порядке категорий.
func (r *Result) Assignments() []Assignment {
	var out []Assignment
	for _, c := range Categories() {
		out = append(out, r.Categorized[c]...)
	}
	return out
}

// Marshal сериализует результат с отступом в 4 пробела и без
// HTML-экранирования (селекторы вида a[href='...&...'] остаются читаемыми).
func (r *Result) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DefinitionMap возвращает определения категорий в виде карты для вывода.
func DefinitionMap() map[Category]Definition {
	out := make(map[Category]Definition, len(definitions))
	for _, d := range definitions {
		out[d.Key] = d
	}
	return out
}
