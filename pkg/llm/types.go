// Базовые типы - определяем универсальный язык общения с моделями
package llm

import "errors"

// ErrEmptyResponse — провайдер ответил, но ответ не содержит ни одного варианта.
//
// Отличается от транспортной ошибки: запрос дошёл, но ответ непригоден.
var ErrEmptyResponse = errors.New("llm returned no choices")

// ChatRequest — унифицированный запрос к любой модели
type ChatRequest struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Format      string    // "json_object" или пустая строка
	Messages    []Message // История чата
}

// Message — одно сообщение
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// Константы для удобства
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"

	FormatJSONObject = "json_object"
)
