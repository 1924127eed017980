// Package docstore абстрагирует хранилище входных документов и результатов:
// локальную файловую систему или S3-совместимый бакет.
package docstore

import (
	"context"
	"path"
	"strings"
)

// Суффиксы имён файлов.
const (
	inputExt        = ".json"
	resultSuffix    = "_categorized.json"
	ResultDirName   = "categorized_selectors"
	jsonContentType = "application/json"
)

// Store — источник документов и приёмник результатов.
type Store interface {
	// List возвращает имена входных документов в стабильном порядке.
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
	// OutputName возвращает имя результата для входного документа.
	OutputName(name string) string
}

// ResultName превращает "page.json" в "page_categorized.json".
func ResultName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimSuffix(base, inputExt) + resultSuffix
}

// isInput отбирает входные документы: *.json, кроме собственных результатов.
func isInput(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, inputExt) && !strings.HasSuffix(lower, resultSuffix)
}
