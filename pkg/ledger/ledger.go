// Package ledger ведёт журнал обработанных документов в SQLite.
//
// Каждый запуск получает свой run_id; по журналу видно, какие документы
// ушли на правила и почему, без разбора выходных файлов.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ilkoid/selcat/pkg/categorizer"
	"github.com/ilkoid/selcat/pkg/selectors"
)

const schema = `
CREATE TABLE IF NOT EXISTS outcomes (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id             TEXT    NOT NULL,
	name               TEXT    NOT NULL,
	output             TEXT    NOT NULL DEFAULT '',
	status             TEXT    NOT NULL,
	error              TEXT    NOT NULL DEFAULT '',
	fallback_reason    TEXT    NOT NULL DEFAULT '',
	total              INTEGER NOT NULL DEFAULT 0,
	average_confidence REAL    NOT NULL DEFAULT 0,
	category_counts    TEXT    NOT NULL DEFAULT '{}',
	started_at         TEXT    NOT NULL,
	duration_ms        INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id);
`

// Entry — одна строка журнала.
type Entry struct {
	ID                int64
	RunID             string
	Name              string
	Output            string
	Status            string
	Error             string
	FallbackReason    string
	Total             int
	AverageConfidence float64
	CategoryCounts    map[selectors.Category]int
	StartedAt         time.Time
	Duration          time.Duration
}

// Ledger реализует categorizer.Recorder.
type Ledger struct {
	db    *sql.DB
	runID string
}

var _ categorizer.Recorder = (*Ledger)(nil)

// Open открывает (или создаёт) журнал и начинает новый запуск.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir ledger dir: %w", err)
		}
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(10000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec ledger schema: %w", err)
	}

	return &Ledger{db: db, runID: uuid.NewString()}, nil
}

// RunID возвращает идентификатор текущего запуска.
func (l *Ledger) RunID() string {
	return l.runID
}

// Record сохраняет итог обработки документа.
func (l *Ledger) Record(ctx context.Context, o categorizer.Outcome) error {
	e := Entry{
		Name:      o.Name,
		Output:    o.Output,
		Status:    o.Status(),
		StartedAt: o.StartedAt,
		Duration:  o.Duration,
	}
	if o.Err != nil {
		e.Error = o.Err.Error()
	}
	if o.Result != nil {
		e.FallbackReason = o.Result.Metadata.FallbackReason
		e.Total = o.Result.Summary.TotalCategorized
		e.AverageConfidence = o.Result.Summary.AverageConfidence
		e.CategoryCounts = o.Result.Summary.CategoryCounts
	}

	counts, err := json.Marshal(e.CategoryCounts)
	if err != nil {
		return fmt.Errorf("encode category counts: %w", err)
	}
	if e.CategoryCounts == nil {
		counts = []byte("{}")
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO outcomes (run_id, name, output, status, error, fallback_reason,
			total, average_confidence, category_counts, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.runID, e.Name, e.Output, e.Status, e.Error, e.FallbackReason,
		e.Total, e.AverageConfidence, string(counts),
		e.StartedAt.UTC().Format(time.RFC3339Nano), e.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("insert outcome %s: %w", o.Name, err)
	}
	return nil
}

// Recent возвращает последние limit записей, новые первыми.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, run_id, name, output, status, error, fallback_reason,
			total, average_confidence, category_counts, started_at, duration_ms
		FROM outcomes ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			counts     string
			startedAt  string
			durationMS int64
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Name, &e.Output, &e.Status, &e.Error, &e.FallbackReason,
			&e.Total, &e.AverageConfidence, &counts, &startedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		if err := json.Unmarshal([]byte(counts), &e.CategoryCounts); err != nil {
			return nil, fmt.Errorf("decode category counts: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			e.StartedAt = t
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close закрывает базу.
func (l *Ledger) Close() error {
	return l.db.Close()
}
