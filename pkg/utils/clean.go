// Package utils предоставляет вспомогательные функции для обработки данных.
//
// Включает нормализацию ответов LLM (markdown-обёртка вокруг JSON),
// файловый логгер и graceful shutdown для CLI.
package utils

import (
	"strings"
	"unicode/utf8"
)

// CleanJsonBlock удаляет markdown-обёртку вокруг JSON.
//
// LLM часто возвращает JSON обёрнутым в markdown кодовые блоки:
//
//	```json
//	{"key": "value"}
//	```
//
// Функция чистая: не разбирает JSON, а только снимает ограждение
// (с любым регистром и языковой меткой json) и пробелы по краям.
//
// Примеры:
//
//	```json {"a": 1} ``` → {"a": 1}
//	```JSON\n{"a": 1}\n``` → {"a": 1}
//	``` {"a": 1} ``` → {"a": 1}
func CleanJsonBlock(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		// Языковая метка после ```: json, JSON, Json...
		if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
			s = s[4:]
		}
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}

// ExtractJSON пытается извлечь JSON объект из строки.
//
// LLM иногда добавляет пояснительный текст до или после JSON.
// Функция находит первый '{' и соответствующую ему закрывающую скобку,
// учитывая строковые литералы (скобки внутри "..." не считаются).
//
// Возвращает пустую строку если объект не найден.
//
// ВНИМАНИЕ: Не валидирует JSON, только извлекает его по эвристикам.
func ExtractJSON(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	return ""
}

// Truncate обрезает строку до n рун, не разрывая UTF-8 последовательности.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
