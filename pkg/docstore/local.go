package docstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Local хранит документы на диске. Имена — пути к файлам.
type Local struct {
	root   string
	outDir string
}

var _ Store = (*Local)(nil)

// NewLocal создаёт хранилище для каталога root.
//
// Если outDir пустой, результаты пишутся в каталог categorized_selectors
// рядом с каталогом входного документа.
func NewLocal(root, outDir string) *Local {
	return &Local{root: root, outDir: outDir}
}

// List возвращает *.json файлы каталога root (без рекурсии), отсортированные по имени.
// Если root — файл, возвращается он один.
func (s *Local) List(ctx context.Context) ([]string, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.root, err)
	}
	if !info.IsDir() {
		return []string{s.root}, nil
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read dir %s: %w", s.root, err)
	}

	var names []string
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || !isInput(e.Name()) {
			continue
		}
		names = append(names, filepath.Join(s.root, e.Name()))
	}
	sort.Strings(names)

	if len(names) == 0 {
		return nil, fmt.Errorf("no selector documents found in %s", s.root)
	}
	return names, nil
}

func (s *Local) Read(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// Write создаёт недостающие каталоги и перезаписывает файл.
func (s *Local) Write(_ context.Context, name string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir for %s: %w", name, err)
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (s *Local) OutputName(name string) string {
	dir := s.outDir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(filepath.Dir(name)), ResultDirName)
	}
	return filepath.Join(dir, ResultName(name))
}
