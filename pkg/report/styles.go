// Package report рендерит результаты категоризации для терминала.
package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ilkoid/selcat/pkg/selectors"
)

// TitleStyle возвращает стиль заголовка.
func TitleStyle(str string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("86")). // Cyan
		Bold(true).
		Render(str)
}

// DimStyle возвращает стиль второстепенного текста.
func DimStyle(str string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")). // Dim gray
		Render(str)
}

// ErrorStyle возвращает стиль для ошибок.
func ErrorStyle(str string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")). // Red
		Bold(true).
		Render(str)
}

// WarnStyle возвращает стиль для предупреждений (fallback на правила).
func WarnStyle(str string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("228")). // Yellow-orange
		Render(str)
}

// OKStyle возвращает стиль для успешных результатов.
func OKStyle(str string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("154")). // Green
		Render(str)
}

// CategoryStyle возвращает стиль заголовка категории.
func CategoryStyle(str string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")). // Purple
		Bold(true).
		Render(str)
}

// DividerStyle возвращает горизонтальную разделительную линию.
func DividerStyle(width int) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")). // Тёмно-серый
		Render(strings.Repeat("─", width))
}

// MethodStyle подбирает стиль по методу классификации.
func MethodStyle(status string) string {
	switch status {
	case string(selectors.MethodAI):
		return OKStyle(status)
	case string(selectors.MethodAIWithRules), string(selectors.MethodFallback):
		return WarnStyle(status)
	case string(selectors.MethodNone):
		return DimStyle(status)
	default:
		return ErrorStyle(status)
	}
}
