package categorizer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ilkoid/selcat/pkg/llm"
	"github.com/ilkoid/selcat/pkg/prompt"
	"github.com/ilkoid/selcat/pkg/selectors"
)

// MockLLMProvider — мок llm.Provider для тестов AIClassifier.
type MockLLMProvider struct {
	response string
	err      error
	block    bool // ждать отмены ctx

	mu       sync.Mutex
	requests []llm.ChatRequest
}

func (m *MockLLMProvider) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return m.response, m.err
}

// fakeClassifier — реализация Classifier с настраиваемым поведением.
type fakeClassifier struct {
	fn    func(req *prompt.Request) ([]selectors.Assignment, error)
	calls []time.Time
}

func (f *fakeClassifier) Classify(_ context.Context, req *prompt.Request) ([]selectors.Assignment, error) {
	f.calls = append(f.calls, time.Now())
	return f.fn(req)
}

// failingClassifier всегда возвращает ошибку заданного типа.
func failingClassifier(kind FailureKind) *fakeClassifier {
	return &fakeClassifier{fn: func(*prompt.Request) ([]selectors.Assignment, error) {
		return nil, &ClassificationError{Kind: kind, Err: errors.New("boom")}
	}}
}

// echoClassifier назначает каждой записи выборки категорию по функции pick.
func echoClassifier(pick func(prompt.Sample) selectors.Category) *fakeClassifier {
	return &fakeClassifier{fn: func(req *prompt.Request) ([]selectors.Assignment, error) {
		out := make([]selectors.Assignment, 0, len(req.Samples))
		for _, s := range req.Samples {
			out = append(out, selectors.Assignment{
				ID:         s.ID,
				Selector:   s.Selector,
				Group:      s.Group,
				Category:   pick(s),
				Confidence: 0.9,
				Reason:     "looks right",
				Source:     selectors.SourceAI,
			})
		}
		return out, nil
	}}
}

func alwaysProduct(prompt.Sample) selectors.Category { return selectors.ProductDetails }

// memStore — in-memory docstore.Store.
type memStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	written map[string][]byte
	failOn  string // имя, запись которого падает
}

func newMemStore(files map[string]string) *memStore {
	s := &memStore{files: make(map[string][]byte), written: make(map[string][]byte)}
	for k, v := range files {
		s.files[k] = []byte(v)
	}
	return s
}

func (s *memStore) List(context.Context) ([]string, error) {
	names := make([]string, 0, len(s.files))
	for k := range s.files {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}

func (s *memStore) Read(_ context.Context, name string) ([]byte, error) {
	data, ok := s.files[name]
	if !ok {
		return nil, fmt.Errorf("%s: not found", name)
	}
	return data, nil
}

func (s *memStore) Write(_ context.Context, name string, data []byte) error {
	if s.failOn != "" && strings.Contains(name, s.failOn) {
		return errors.New("disk full")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written[name] = data
	return nil
}

func (s *memStore) OutputName(name string) string {
	return "out/" + strings.TrimSuffix(name, ".json") + "_categorized.json"
}

// memRecorder собирает Outcome.
type memRecorder struct {
	outcomes []Outcome
	err      error
}

func (r *memRecorder) Record(_ context.Context, o Outcome) error {
	r.outcomes = append(r.outcomes, o)
	return r.err
}

// docWithRecords строит документ из n записей в class_selectors.
func docWithRecords(t *testing.T, n int) *selectors.Document {
	t.Helper()
	var b strings.Builder
	b.WriteString(`{"class_selectors": [`)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"uuid": "c%d", "selector": ".item-%d", "tag": "div"}`, i, i)
	}
	b.WriteString(`], "statistics": {"url": "https://shop.example", "total_elements": 99}}`)
	return mustParse(t, b.String())
}

func mustParse(t *testing.T, data string) *selectors.Document {
	t.Helper()
	doc, err := selectors.Parse([]byte(data))
	require.NoError(t, err)
	return doc
}

var fixedNow = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }

// requirePartition проверяет, что каждая запись документа назначена ровно один раз.
func requirePartition(t *testing.T, doc *selectors.Document, res *selectors.Result) {
	t.Helper()
	seen := make(map[string]int)
	for _, a := range res.Assignments() {
		seen[a.ID]++
		require.True(t, a.Category.Valid())
		require.GreaterOrEqual(t, a.Confidence, 0.0)
		require.LessOrEqual(t, a.Confidence, 1.0)
	}
	require.Len(t, seen, doc.Total())
	for _, rec := range doc.Records() {
		require.Equal(t, 1, seen[rec.ID], "record %s", rec.ID)
	}
	require.Len(t, res.Categorized, 6)
	require.Equal(t, doc.Total(), res.Summary.TotalCategorized)
}
