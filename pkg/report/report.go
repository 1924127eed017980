package report

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/ilkoid/selcat/pkg/categorizer"
	"github.com/ilkoid/selcat/pkg/selectors"
)

// Options — параметры рендеринга.
type Options struct {
	Width int
	// MaxPerCategory — сколько назначений показывать в каждой категории.
	MaxPerCategory int
}

// DefaultOptions возвращает параметры по умолчанию.
func DefaultOptions() Options {
	return Options{Width: 80, MaxPerCategory: 5}
}

func (o Options) normalized() Options {
	if o.Width < 40 {
		o.Width = 40
	}
	if o.MaxPerCategory < 0 {
		o.MaxPerCategory = 0
	}
	return o
}

// RenderResult рендерит результат одного документа.
func RenderResult(res *selectors.Result, opts Options) string {
	opts = opts.normalized()
	var b strings.Builder

	md := res.Metadata
	b.WriteString(TitleStyle(md.OriginalFile) + "\n")
	fmt.Fprintf(&b, "%s %s", DimStyle("method:"), MethodStyle(string(md.Method)))
	if md.Model != "" {
		fmt.Fprintf(&b, " %s", DimStyle("("+md.Model+")"))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", DimStyle("url:"), md.OriginalURL)
	if md.FallbackReason != "" {
		reason := wordwrap.String("fallback: "+md.FallbackReason, opts.Width-2)
		b.WriteString(WarnStyle(indent.String(reason, 2)) + "\n")
	}
	fmt.Fprintf(&b, "%s %d  %s %.2f\n",
		DimStyle("total:"), res.Summary.TotalCategorized,
		DimStyle("avg confidence:"), res.Summary.AverageConfidence)
	b.WriteString(DividerStyle(opts.Width) + "\n")

	for _, c := range selectors.Categories() {
		items := res.Categorized[c]
		fmt.Fprintf(&b, "%s %s\n", CategoryStyle(c.Label()), DimStyle(fmt.Sprintf("(%d)", len(items))))

		for i, a := range items {
			if i == opts.MaxPerCategory {
				b.WriteString(DimStyle(fmt.Sprintf("    … and %d more", len(items)-i)) + "\n")
				break
			}
			sel := truncate.StringWithTail(a.Selector, uint(opts.Width-16), "…")
			fmt.Fprintf(&b, "  %s %s %s\n", sel, DimStyle(fmt.Sprintf("%.2f", a.Confidence)), DimStyle(string(a.Source)))
			if a.Reason != "" {
				reason := wordwrap.String(a.Reason, opts.Width-6)
				b.WriteString(DimStyle(indent.String(reason, 4)) + "\n")
			}
		}
	}

	return b.String()
}

// RenderBatch рендерит сводку пакетной обработки.
func RenderBatch(s *categorizer.BatchSummary, opts Options) string {
	opts = opts.normalized()
	var b strings.Builder

	b.WriteString(TitleStyle(fmt.Sprintf("Processed %d documents", len(s.Outcomes))) + "\n")
	b.WriteString(DividerStyle(opts.Width) + "\n")

	for _, o := range s.Outcomes {
		name := truncate.StringWithTail(o.Name, uint(opts.Width-20), "…")
		fmt.Fprintf(&b, "%-*s %s\n", opts.Width-20, name, MethodStyle(o.Status()))
		if o.Err != nil {
			msg := wordwrap.String(o.Err.Error(), opts.Width-4)
			b.WriteString(ErrorStyle(indent.String(msg, 4)) + "\n")
		} else if o.Output != "" {
			b.WriteString(DimStyle(indent.String("→ "+o.Output, 4)) + "\n")
		}
	}

	b.WriteString(DividerStyle(opts.Width) + "\n")
	fmt.Fprintf(&b, "%s %s  %s %s\n",
		DimStyle("succeeded:"), OKStyle(fmt.Sprint(s.Succeeded)),
		DimStyle("failed:"), failedCount(s.Failed))

	total := 0
	for _, n := range s.CategoryTotals {
		total += n
	}
	barWidth := opts.Width - 40
	for _, c := range selectors.Categories() {
		n := s.CategoryTotals[c]
		bar := ""
		if total > 0 {
			bar = strings.Repeat("█", n*barWidth/total)
		}
		fmt.Fprintf(&b, "  %-32s %5d %s\n", c.Label(), n, CategoryStyle(bar))
	}

	return b.String()
}

func failedCount(n int) string {
	if n == 0 {
		return OKStyle("0")
	}
	return ErrorStyle(fmt.Sprint(n))
}
