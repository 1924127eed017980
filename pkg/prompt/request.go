package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ilkoid/selcat/pkg/selectors"
	"github.com/ilkoid/selcat/pkg/utils"
)

const (
	// MaxSamples — верхняя граница числа записей, отправляемых в LLM.
	MaxSamples = 50
	// MaxFieldRunes — длина, до которой обрезаются текст и значения атрибутов.
	MaxFieldRunes = 100
)

// Sample — запись в том виде, в каком она уходит в промпт.
type Sample struct {
	ID         string            `json:"id"`
	Group      string            `json:"group"`
	Selector   string            `json:"selector"`
	Tag        string            `json:"tag,omitempty"`
	Text       string            `json:"text,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Request — всё, что нужно для одного обращения к LLM.
type Request struct {
	Categories    []selectors.Definition
	Samples       []Sample
	URL           string
	TotalElements int
	TotalRecords  int // Размер документа до выборки
}

// BuildRequest собирает запрос с выборкой не больше MaxSamples записей.
func BuildRequest(doc *selectors.Document) *Request {
	return BuildRequestLimit(doc, MaxSamples)
}

// BuildRequestLimit собирает запрос с выборкой не больше limit записей.
//
// Записи берутся по кругу: по одной из каждой группы в порядке групп,
// пока не наберётся limit или группы не закончатся. Так крупная группа
// не вытесняет мелкие, а документ меньше limit попадает целиком.
// limit вне диапазона 1..MaxSamples заменяется на MaxSamples.
func BuildRequestLimit(doc *selectors.Document, limit int) *Request {
	if limit <= 0 || limit > MaxSamples {
		limit = MaxSamples
	}

	req := &Request{
		Categories: selectors.Definitions(),
		Samples:    []Sample{},
	}
	if doc == nil {
		return req
	}

	req.URL = doc.Statistics.URL
	req.TotalElements = doc.Statistics.TotalElements
	req.TotalRecords = doc.Total()

	pos := make(map[string]int, len(selectors.Groups))
	for len(req.Samples) < limit {
		added := false
		for _, group := range selectors.Groups {
			records := doc.Groups[group]
			i := pos[group]
			if i >= len(records) {
				continue
			}
			pos[group] = i + 1
			req.Samples = append(req.Samples, sampleFromRecord(records[i]))
			added = true
			if len(req.Samples) == limit {
				break
			}
		}
		if !added {
			break
		}
	}

	return req
}

func sampleFromRecord(rec selectors.Record) Sample {
	s := Sample{
		ID:       rec.ID,
		Group:    rec.Group,
		Selector: rec.Selector,
		Tag:      rec.Tag,
		Text:     utils.Truncate(strings.TrimSpace(rec.Text), MaxFieldRunes),
	}
	if len(rec.Attributes) > 0 {
		s.Attributes = make(map[string]string, len(rec.Attributes))
		for k, v := range rec.Attributes {
			s.Attributes[k] = utils.Truncate(v, MaxFieldRunes)
		}
	}
	return s
}

// SamplesJSON возвращает выборку в виде JSON для подстановки в шаблон.
func (r *Request) SamplesJSON() string {
	data, err := json.MarshalIndent(r.Samples, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}

// SchemaJSON возвращает пример ответа: ровно шесть ключей категорий,
// у каждой записи id, selector, confidence и reason.
func (r *Request) SchemaJSON() string {
	var b strings.Builder
	b.WriteString("{\n  \"categorized_selectors\": {\n")
	for i, d := range r.Categories {
		fmt.Fprintf(&b, "    %q: [\n      {\"id\": \"sample id\", \"selector\": \"selector string\", \"confidence\": 0.85, \"reason\": \"brief reason\"}\n    ]", string(d.Key))
		if i < len(r.Categories)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("  }\n}")
	return b.String()
}

// Skipped сообщает, сколько записей документа не попало в выборку.
func (r *Request) Skipped() int {
	if n := r.TotalRecords - len(r.Samples); n > 0 {
		return n
	}
	return 0
}
