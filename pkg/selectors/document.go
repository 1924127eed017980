package selectors

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Ошибки валидации входного документа.
var (
	ErrNoGroups       = errors.New("no recognizable selector groups")
	ErrEmptySelector  = errors.New("selector expression is empty")
	ErrDuplicateID    = errors.New("duplicate selector id")
	ErrInvalidGroup   = errors.New("selector group is not a list of objects")
	ErrInvalidPayload = errors.New("document is not a JSON object")
)

// Groups — фиксированный упорядоченный набор групп, в которые
// стадия извлечения раскладывает найденные элементы.
var Groups = []string{
	"id_selectors",
	"class_selectors",
	"name_selectors",
	"type_selectors",
	"attribute_selectors",
	"input_selectors",
	"button_selectors",
	"link_selectors",
	"form_selectors",
}

// Поля записи, которые не попадают в Attributes.
var reservedFields = map[string]bool{
	"uuid":         true,
	"selector":     true,
	"selectors":    true,
	"tag":          true,
	"text_content": true,
	"text":         true,
}

// Record — один найденный на странице элемент.
type Record struct {
	ID         string            `json:"uuid"`
	Selector   string            `json:"selector"`
	Group      string            `json:"group"`
	Tag        string            `json:"tag,omitempty"`
	Text       string            `json:"text_content,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Statistics — необязательные сведения об источнике документа.
type Statistics struct {
	URL           string
	TotalElements int
}

// Document — входной документ с селекторами.
//
// Документ только читается: Raw хранит исходные байты, чтобы результат
// мог сохранить вход дословно.
type Document struct {
	Groups     map[string][]Record
	Statistics Statistics
	Raw        json.RawMessage
}

// Parse разбирает и валидирует документ.
//
// Неизвестные верхнеуровневые ключи (например combined_selectors) не
// классифицируются, но остаются в Raw. Документ без единой известной
// группы считается невалидным; пустая группа допустима.
func Parse(data []byte) (*Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if top == nil {
		return nil, ErrInvalidPayload
	}

	doc := &Document{
		Groups: make(map[string][]Record),
		Raw:    json.RawMessage(bytes.TrimSpace(data)),
	}

	found := false
	seen := make(map[string]bool)

	for _, group := range Groups {
		raw, ok := top[group]
		if !ok {
			continue
		}
		found = true

		items, err := decodeItems(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", group, err)
		}

		records := make([]Record, 0, len(items))
		for i, item := range items {
			rec := recordFromItem(group, item)
			if rec.Selector == "" {
				return nil, fmt.Errorf("%s[%d]: %w", group, i, ErrEmptySelector)
			}
			if rec.ID != "" {
				if seen[rec.ID] {
					return nil, fmt.Errorf("%s[%d]: %w: %s", group, i, ErrDuplicateID, rec.ID)
				}
				seen[rec.ID] = true
			}
			records = append(records, rec)
		}
		doc.Groups[group] = records
	}

	if !found {
		return nil, ErrNoGroups
	}

	assignSyntheticIDs(doc, seen)

	if raw, ok := top["statistics"]; ok {
		doc.Statistics = parseStatistics(raw)
	}

	return doc, nil
}

// Records возвращает все записи в порядке групп, затем в порядке внутри группы.
func (d *Document) Records() []Record {
	var out []Record
	for _, group := range Groups {
		out = append(out, d.Groups[group]...)
	}
	return out
}

// Total возвращает количество записей во всех группах.
func (d *Document) Total() int {
	n := 0
	for _, records := range d.Groups {
		n += len(records)
	}
	return n
}

// GroupCounts возвращает размер каждой известной группы (0 для отсутствующих).
func (d *Document) GroupCounts() map[string]int {
	out := make(map[string]int, len(Groups))
	for _, group := range Groups {
		out[group] = len(d.Groups[group])
	}
	return out
}

func decodeItems(raw json.RawMessage) ([]map[string]any, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, ErrInvalidGroup
	}

	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.UseNumber()
		var m map[string]any
		if err := dec.Decode(&m); err != nil || m == nil {
			return nil, ErrInvalidGroup
		}
		out = append(out, m)
	}
	return out, nil
}

// assignSyntheticIDs выдаёт записи без uuid id вида <group>:<index>.
// Вызывается после сбора всех явных uuid: занятое значение получает
// суффикс #2, #3 и так далее.
func assignSyntheticIDs(doc *Document, taken map[string]bool) {
	for _, group := range Groups {
		records := doc.Groups[group]
		for i := range records {
			if records[i].ID != "" {
				continue
			}
			base := fmt.Sprintf("%s:%d", group, i)
			id := base
			for n := 2; taken[id]; n++ {
				id = fmt.Sprintf("%s#%d", base, n)
			}
			taken[id] = true
			records[i].ID = id
		}
	}
}

// recordFromItem собирает Record из произвольного объекта группы.
//
// Выражение берётся из selector, затем из первого непустого элемента
// selectors, затем из имени тега.
func recordFromItem(group string, item map[string]any) Record {
	rec := Record{
		ID:    scalar(item["uuid"]),
		Group: group,
		Tag:   scalar(item["tag"]),
		Text:  scalar(item["text_content"]),
	}
	if rec.Text == "" {
		rec.Text = scalar(item["text"])
	}

	rec.Selector = strings.TrimSpace(scalar(item["selector"]))
	if rec.Selector == "" {
		if list, ok := item["selectors"].([]any); ok {
			for _, v := range list {
				if s := strings.TrimSpace(scalar(v)); s != "" {
					rec.Selector = s
					break
				}
			}
		}
	}
	if rec.Selector == "" {
		rec.Selector = strings.TrimSpace(rec.Tag)
	}

	for key, value := range item {
		if reservedFields[key] {
			continue
		}
		if s := scalar(value); s != "" {
			if rec.Attributes == nil {
				rec.Attributes = make(map[string]string)
			}
			rec.Attributes[key] = s
		}
	}

	return rec
}

// scalar приводит скалярное JSON-значение к строке. Объекты, массивы и null
// дают пустую строку.
func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func parseStatistics(raw json.RawMessage) Statistics {
	var s struct {
		URL           *string      `json:"url"`
		TotalElements *json.Number `json:"total_elements"`
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return Statistics{}
	}

	var out Statistics
	if s.URL != nil {
		out.URL = *s.URL
	}
	if s.TotalElements != nil {
		if n, err := s.TotalElements.Int64(); err == nil {
			out.TotalElements = int(n)
		}
	}
	return out
}
