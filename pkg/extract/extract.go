// Package extract строит документ с селекторами из HTML страницы.
//
// Формат совпадает с тем, что читает pkg/selectors: девять групп,
// combined_selectors с типовыми паттернами и statistics.
package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/ilkoid/selcat/pkg/utils"
)

// Лимиты длины текстовых полей.
const (
	maxTextRunes       = 200
	maxButtonTextRunes = 50
	maxLinkTextRunes   = 100
	maxHrefSelector    = 100
	maxSampleElements  = 3
)

// importantAttrs — атрибуты, из которых строятся attribute_selectors.
var importantAttrs = []string{"data-testid", "data-hook", "data-component-type", "role", "aria-label", "placeholder"}

// Item — запись группы. Набор полей зависит от группы.
type Item map[string]any

// Statistics — сведения о странице.
type Statistics struct {
	TotalElements     int      `json:"total_elements"`
	ElementsWithID    int      `json:"elements_with_id"`
	ElementsWithClass int      `json:"elements_with_class"`
	ElementsWithName  int      `json:"elements_with_name"`
	UniqueTags        []string `json:"unique_tags"`
	URL               string   `json:"url"`
}

// Pattern — найденный на странице типовой паттерн.
type Pattern struct {
	Pattern        string          `json:"pattern"`
	Description    string          `json:"description"`
	Count          int             `json:"count"`
	SampleElements []SampleElement `json:"sample_elements"`
}

// SampleElement — пример элемента, подошедшего под паттерн.
type SampleElement struct {
	Tag        string            `json:"tag"`
	Attributes map[string]string `json:"attributes"`
	Text       string            `json:"text"`
}

// Document — результат извлечения.
type Document struct {
	IDSelectors        []Item     `json:"id_selectors"`
	ClassSelectors     []Item     `json:"class_selectors"`
	NameSelectors      []Item     `json:"name_selectors"`
	TypeSelectors      []Item     `json:"type_selectors"`
	AttributeSelectors []Item     `json:"attribute_selectors"`
	InputSelectors     []Item     `json:"input_selectors"`
	ButtonSelectors    []Item     `json:"button_selectors"`
	LinkSelectors      []Item     `json:"link_selectors"`
	FormSelectors      []Item     `json:"form_selectors"`
	CombinedSelectors  []Pattern  `json:"combined_selectors"`
	Statistics         Statistics `json:"statistics"`
}

// Marshal сериализует документ с отступом в 2 пробела.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Option настраивает Extractor.
type Option func(*Extractor)

// WithIDGenerator задаёт генератор идентификаторов записей.
func WithIDGenerator(fn func() string) Option {
	return func(e *Extractor) {
		e.newID = fn
	}
}

// WithURL задаёт адрес страницы для statistics.url.
func WithURL(url string) Option {
	return func(e *Extractor) {
		e.url = url
	}
}

// Extractor извлекает селекторы из HTML.
type Extractor struct {
	newID func() string
	url   string
}

// New создаёт Extractor. По умолчанию идентификаторы — UUID v4.
func New(opts ...Option) *Extractor {
	e := &Extractor{newID: uuid.NewString}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract разбирает HTML и возвращает документ с селекторами.
func (e *Extractor) Extract(r io.Reader) (*Document, error) {
	root, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	doc := &Document{
		IDSelectors:        []Item{},
		ClassSelectors:     []Item{},
		NameSelectors:      []Item{},
		TypeSelectors:      []Item{},
		AttributeSelectors: []Item{},
		InputSelectors:     []Item{},
		ButtonSelectors:    []Item{},
		LinkSelectors:      []Item{},
		FormSelectors:      []Item{},
		Statistics:         Statistics{URL: e.url},
	}

	s := &state{
		ids:     make(map[string]bool),
		classes: make(map[string]bool),
		names:   make(map[string]bool),
		attrs:   make(map[string]bool),
		tags:    make(map[string]bool),
	}

	root.Find("*").Each(func(_ int, el *goquery.Selection) {
		e.visit(doc, s, el)
	})

	doc.Statistics.UniqueTags = make([]string, 0, len(s.tags))
	for tag := range s.tags {
		doc.Statistics.UniqueTags = append(doc.Statistics.UniqueTags, tag)
	}
	sort.Strings(doc.Statistics.UniqueTags)

	doc.CombinedSelectors = combinedPatterns(root)

	utils.Info("Selectors extracted",
		"url", e.url,
		"elements", doc.Statistics.TotalElements,
		"ids", len(doc.IDSelectors),
		"classes", len(doc.ClassSelectors),
		"links", len(doc.LinkSelectors))

	return doc, nil
}

// state — множества уже виденных значений для дедупликации.
type state struct {
	ids, classes, names, attrs, tags map[string]bool
}

func (e *Extractor) visit(doc *Document, s *state, el *goquery.Selection) {
	tag := goquery.NodeName(el)
	doc.Statistics.TotalElements++
	s.tags[tag] = true

	text := utils.Truncate(elementText(el), maxTextRunes)
	id := attr(el, "id")
	name := attr(el, "name")
	typ := attr(el, "type")

	if id != "" && !s.ids[id] {
		s.ids[id] = true
		doc.IDSelectors = append(doc.IDSelectors, Item{
			"uuid": e.newID(), "selector": "#" + id, "tag": tag, "text_content": text,
		})
		doc.Statistics.ElementsWithID++
	}

	if classes := strings.Fields(attr(el, "class")); len(classes) > 0 {
		for _, class := range classes {
			if s.classes[class] {
				continue
			}
			s.classes[class] = true
			doc.ClassSelectors = append(doc.ClassSelectors, Item{
				"uuid": e.newID(), "selector": "." + class, "tag": tag, "text_content": text,
			})
		}
		doc.Statistics.ElementsWithClass++
	}

	if name != "" && !s.names[name] {
		s.names[name] = true
		doc.NameSelectors = append(doc.NameSelectors, Item{
			"uuid": e.newID(), "selector": fmt.Sprintf("[name='%s']", name), "tag": tag, "type": typ, "text_content": text,
		})
		doc.Statistics.ElementsWithName++
	}

	if isFormControl(tag) && typ != "" {
		doc.TypeSelectors = append(doc.TypeSelectors, Item{
			"uuid": e.newID(), "selector": fmt.Sprintf("%s[type='%s']", tag, typ), "tag": tag, "name": name, "id": id, "text_content": text,
		})
	}

	for _, a := range importantAttrs {
		value := attr(el, a)
		if value == "" {
			continue
		}
		sel := fmt.Sprintf("[%s='%s']", a, value)
		if s.attrs[sel] {
			continue
		}
		s.attrs[sel] = true
		doc.AttributeSelectors = append(doc.AttributeSelectors, Item{
			"uuid": e.newID(), "selector": sel, "tag": tag, "attribute": a, "value": value, "text_content": text,
		})
	}

	switch tag {
	case "input":
		doc.InputSelectors = append(doc.InputSelectors, e.inputItem(el, id, name, typ))
	case "a":
		if href := attr(el, "href"); href != "" {
			doc.LinkSelectors = append(doc.LinkSelectors, e.linkItem(el, id, href))
		}
	case "form":
		doc.FormSelectors = append(doc.FormSelectors, e.formItem(el, id, name))
	}

	if (tag == "button" || tag == "input") && (typ == "button" || typ == "submit" || typ == "reset") {
		doc.ButtonSelectors = append(doc.ButtonSelectors, e.buttonItem(el, tag, id, name, typ))
	}
}

func (e *Extractor) inputItem(el *goquery.Selection, id, name, typ string) Item {
	placeholder := attr(el, "placeholder")
	selectors := []string{}
	if id != "" {
		selectors = append(selectors, "#"+id)
	}
	if name != "" {
		selectors = append(selectors, fmt.Sprintf("input[name='%s']", name))
	}
	if typ != "" {
		selectors = append(selectors, fmt.Sprintf("input[type='%s']", typ))
	}
	if placeholder != "" {
		selectors = append(selectors, fmt.Sprintf("input[placeholder='%s']", placeholder))
	}
	if typ == "" {
		typ = "text"
	}
	return Item{
		"uuid": e.newID(), "tag": "input", "type": typ, "name": name, "id": id,
		"placeholder": placeholder, "selectors": selectors,
	}
}

func (e *Extractor) buttonItem(el *goquery.Selection, tag, id, name, typ string) Item {
	text := elementText(el)
	if text == "" {
		text = attr(el, "value")
	}
	selectors := []string{}
	if id != "" {
		selectors = append(selectors, "#"+id)
	}
	if name != "" {
		selectors = append(selectors, fmt.Sprintf("%s[name='%s']", tag, name))
	}
	selectors = append(selectors, fmt.Sprintf("%s[type='%s']", tag, typ))
	return Item{
		"uuid": e.newID(), "tag": tag, "type": typ, "text": utils.Truncate(text, maxButtonTextRunes),
		"id": id, "name": name, "selectors": selectors,
	}
}

func (e *Extractor) linkItem(el *goquery.Selection, id, href string) Item {
	sel := "a"
	if len(href) < maxHrefSelector {
		sel = fmt.Sprintf("a[href='%s']", href)
	}
	return Item{
		"uuid": e.newID(), "selector": sel, "href": href,
		"text": utils.Truncate(elementText(el), maxLinkTextRunes),
		"id": id, "class": strings.Join(strings.Fields(attr(el, "class")), " "),
	}
}

func (e *Extractor) formItem(el *goquery.Selection, id, name string) Item {
	action := attr(el, "action")
	method := attr(el, "method")
	if method == "" {
		method = "get"
	}
	selectors := []string{}
	if id != "" {
		selectors = append(selectors, "#"+id)
	}
	if name != "" {
		selectors = append(selectors, fmt.Sprintf("form[name='%s']", name))
	}
	if action != "" {
		selectors = append(selectors, fmt.Sprintf("form[action='%s']", action))
	}
	return Item{
		"uuid": e.newID(), "tag": "form", "action": action, "method": method,
		"id": id, "name": name, "selectors": selectors,
	}
}

func isFormControl(tag string) bool {
	switch tag {
	case "input", "button", "select", "textarea":
		return true
	}
	return false
}

func attr(el *goquery.Selection, name string) string {
	v, _ := el.Attr(name)
	return strings.TrimSpace(v)
}

// elementText возвращает текст элемента со схлопнутыми пробелами.
func elementText(el *goquery.Selection) string {
	return strings.Join(strings.Fields(el.Text()), " ")
}
