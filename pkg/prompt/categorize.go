package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilkoid/selcat/pkg/llm"
)

// CategorizeFile — имя файла промпта категоризации в app.prompts_dir.
const CategorizeFile = "categorize.yaml"

//go:embed categorize.yaml
var defaultCategorize []byte

// DefaultPrompt возвращает встроенный промпт категоризации.
func DefaultPrompt() *PromptFile {
	pf, err := Parse(defaultCategorize)
	if err != nil {
		// Встроенный файл проверяется тестами
		panic(fmt.Sprintf("embedded categorize prompt is broken: %v", err))
	}
	return pf
}

// LoadCategorizePrompt загружает {dir}/categorize.yaml.
//
// Если dir пустой или файла нет — возвращает встроенный промпт.
// Ошибка разбора существующего файла не маскируется.
func LoadCategorizePrompt(dir string) (*PromptFile, error) {
	if dir == "" {
		return DefaultPrompt(), nil
	}

	path := filepath.Join(dir, CategorizeFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultPrompt(), nil
	}

	pf, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load categorize prompt: %w", err)
	}
	return pf, nil
}

// Render превращает запрос в сообщения чата по шаблону pf.
// nil pf означает встроенный промпт.
func Render(pf *PromptFile, req *Request) ([]llm.Message, error) {
	if pf == nil {
		pf = DefaultPrompt()
	}
	return pf.RenderMessages(req)
}
