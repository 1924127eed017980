package categorizer

import (
	"context"
	"fmt"
	"time"

	"github.com/ilkoid/selcat/pkg/docstore"
	"github.com/ilkoid/selcat/pkg/selectors"
	"github.com/ilkoid/selcat/pkg/utils"
)

// StatusFailed — статус документа, который не удалось обработать.
const StatusFailed = "failed"

// Outcome — итог обработки одного документа.
type Outcome struct {
	Name      string
	Output    string
	StartedAt time.Time
	Duration  time.Duration
	// Result nil, если документ провален.
	Result *selectors.Result
	Err    error
}

// Failed сообщает, провалена ли обработка документа.
func (o Outcome) Failed() bool {
	return o.Err != nil || o.Result == nil
}

// Status возвращает метод классификации или "failed".
func (o Outcome) Status() string {
	if o.Failed() {
		return StatusFailed
	}
	return string(o.Result.Metadata.Method)
}

// BatchSummary — сводка пакетной обработки.
type BatchSummary struct {
	Outcomes       []Outcome
	Succeeded      int
	Failed         int
	CategoryTotals map[selectors.Category]int
	ByStatus       map[string]int
}

func newBatchSummary() *BatchSummary {
	s := &BatchSummary{
		CategoryTotals: make(map[selectors.Category]int),
		ByStatus:       make(map[string]int),
	}
	for _, c := range selectors.Categories() {
		s.CategoryTotals[c] = 0
	}
	return s
}

func (s *BatchSummary) add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	s.ByStatus[o.Status()]++
	if o.Failed() {
		s.Failed++
		return
	}
	s.Succeeded++
	for c, n := range o.Result.Summary.CategoryCounts {
		s.CategoryTotals[c] += n
	}
}

// ProcessFile читает документ, классифицирует и сохраняет результат.
// Пустой out означает store.OutputName(name).
func (c *Categorizer) ProcessFile(ctx context.Context, store docstore.Store, name, out string) (*selectors.Result, string, error) {
	data, err := store.Read(ctx, name)
	if err != nil {
		return nil, "", &InputError{Source: name, Err: err}
	}

	doc, err := selectors.Parse(data)
	if err != nil {
		return nil, "", &InputError{Source: name, Err: err}
	}

	res, err := c.Categorize(ctx, doc, name)
	if err != nil {
		return nil, "", err
	}

	if out == "" {
		out = store.OutputName(name)
	}
	payload, err := res.Marshal()
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode result for %s: %w", name, err)
	}
	if err := store.Write(ctx, out, payload); err != nil {
		return nil, "", fmt.Errorf("failed to save result for %s: %w", name, err)
	}

	return res, out, nil
}

// Process обрабатывает один документ изолированно: паника превращается
// в проваленный Outcome, итог передаётся Recorder.
func (c *Categorizer) Process(ctx context.Context, store docstore.Store, name, out string) (o Outcome) {
	o = Outcome{Name: name, StartedAt: c.now()}

	defer func() {
		if r := recover(); r != nil {
			o.Result = nil
			o.Err = fmt.Errorf("panic while processing %s: %v", name, r)
		}
		o.Duration = c.now().Sub(o.StartedAt)
		c.record(ctx, o)
	}()

	o.Result, o.Output, o.Err = c.ProcessFile(ctx, store, name, out)
	if o.Err != nil {
		utils.Error("Document failed", "name", name, "error", o.Err)
	} else {
		utils.Info("Document processed",
			"name", name,
			"output", o.Output,
			"method", o.Result.Metadata.Method,
			"total", o.Result.Summary.TotalCategorized)
	}
	return o
}

// RunBatch последовательно обрабатывает документы.
//
// Ошибка одного документа не прерывает пакет. После отмены ctx
// оставшиеся документы помечаются проваленными с ошибкой контекста.
func (c *Categorizer) RunBatch(ctx context.Context, store docstore.Store, names []string) *BatchSummary {
	summary := newBatchSummary()

	for i, name := range names {
		if err := ctx.Err(); err != nil {
			utils.Warn("Batch cancelled", "remaining", len(names)-i)
			for _, rest := range names[i:] {
				o := Outcome{Name: rest, StartedAt: c.now(), Err: err}
				c.record(ctx, o)
				summary.add(o)
			}
			break
		}
		summary.add(c.Process(ctx, store, name, ""))
	}

	utils.Info("Batch finished",
		"total", len(names),
		"succeeded", summary.Succeeded,
		"failed", summary.Failed)
	return summary
}

func (c *Categorizer) record(ctx context.Context, o Outcome) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(context.WithoutCancel(ctx), o); err != nil {
		utils.Warn("Failed to record outcome", "name", o.Name, "error", err)
	}
}
