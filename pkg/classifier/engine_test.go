package classifier

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/selcat/pkg/selectors"
)

func TestEngine_Classify(t *testing.T) {
	engine := NewDefault()

	tests := []struct {
		name           string
		rec            selectors.Record
		wantCategory   selectors.Category
		wantConfidence float64
		wantReason     string
	}{
		{
			name:           "main nav by id",
			rec:            selectors.Record{ID: "1", Selector: "#main-nav", Group: "id_selectors", Tag: "nav", Attributes: map[string]string{"id": "main-nav"}},
			wantCategory:   selectors.NavigationLayout,
			wantConfidence: 0.7,
			wantReason:     "matched navigation_layout keywords: nav, main",
		},
		{
			name:           "no keywords",
			rec:            selectors.Record{ID: "2", Selector: ".unknown-xyz", Group: "class_selectors", Tag: "div"},
			wantCategory:   selectors.SupportMisc,
			wantConfidence: MinConfidence,
			wantReason:     "no category keywords matched",
		},
		{
			name:           "text only weighs one",
			rec:            selectors.Record{ID: "3", Selector: "div.x", Tag: "button", Text: "Add to Cart"},
			wantCategory:   selectors.ProductDetails,
			wantConfidence: 0.55,
			wantReason:     "matched product_details keywords: cart",
		},
		{
			name:           "keyword counted once at max weight",
			rec:            selectors.Record{ID: "4", Selector: ".cart", Text: "cart"},
			wantCategory:   selectors.ProductDetails,
			wantConfidence: 0.6,
		},
		{
			name:           "confidence capped",
			rec:            selectors.Record{ID: "5", Selector: ".product-item-detail-review-rating-price"},
			wantCategory:   selectors.ProductDetails,
			wantConfidence: MaxConfidence,
		},
		{
			name:           "tie goes to earlier category",
			rec:            selectors.Record{ID: "6", Selector: ".search-nav"},
			wantCategory:   selectors.NavigationLayout,
			wantConfidence: 0.6,
		},
		{
			name:           "attribute value weighs two",
			rec:            selectors.Record{ID: "7", Selector: "input:nth-of-type(2)", Tag: "input", Attributes: map[string]string{"type": "password"}},
			wantCategory:   selectors.AuthenticationAccount,
			wantConfidence: 0.6,
		},
		{
			name:           "case insensitive",
			rec:            selectors.Record{ID: "8", Selector: "#SearchBox"},
			wantCategory:   selectors.SearchFilters,
			wantConfidence: 0.6,
		},
		{
			name:           "tag alone",
			rec:            selectors.Record{ID: "9", Selector: "body > div:nth-child(2)", Tag: "footer"},
			wantCategory:   selectors.NavigationLayout,
			wantConfidence: 0.55,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Classify(tt.rec)

			assert.Equal(t, tt.wantCategory, got.Category)
			assert.InDelta(t, tt.wantConfidence, got.Confidence, 1e-9)
			assert.Equal(t, tt.rec.ID, got.ID)
			assert.Equal(t, tt.rec.Selector, got.Selector)
			assert.Equal(t, selectors.SourceRules, got.Source)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, got.Reason)
			}
		})
	}
}

func TestEngine_DeterministicAndTotal(t *testing.T) {
	engine := NewDefault()

	var records []selectors.Record
	for i, sel := range []string{"#main-nav", ".login-form", "input[name=q]", ".product-card", "", ".xyz", "a[href*='help']"} {
		records = append(records, selectors.Record{ID: fmt.Sprint(i), Selector: sel, Text: "Some text"})
	}

	first := engine.ClassifyAll(records)
	second := engine.ClassifyAll(records)
	require.Len(t, first, len(records))
	assert.Equal(t, first, second)

	for _, a := range first {
		assert.True(t, a.Category.Valid(), "category %q", a.Category)
		assert.GreaterOrEqual(t, a.Confidence, 0.0)
		assert.LessOrEqual(t, a.Confidence, MaxConfidence)
		assert.NotEmpty(t, a.Reason)
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		score int
		want  float64
	}{
		{-1, 0.3},
		{0, 0.3},
		{1, 0.55},
		{2, 0.6},
		{5, 0.75},
		{6, 0.8},
		{40, 0.8},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.score), func(t *testing.T) {
			assert.InDelta(t, tt.want, Confidence(tt.score), 1e-9)
		})
	}
}

func TestNew_NormalizesRules(t *testing.T) {
	engine := New([]Rule{
		{Category: selectors.SupportMisc, Keywords: []string{" Help ", "help", ""}},
		{Category: selectors.NavigationLayout, Keywords: []string{"NAV"}},
	})

	rules := engine.Rules()
	require.Len(t, rules, 6)
	assert.Equal(t, selectors.NavigationLayout, rules[0].Category, "declaration order restored")
	assert.Equal(t, []string{"nav"}, rules[0].Keywords)
	assert.Empty(t, rules[1].Keywords)
	assert.Equal(t, []string{"help"}, rules[5].Keywords)
}

func TestRulesFromKeywords(t *testing.T) {
	rules, err := RulesFromKeywords(map[string][]string{
		"search_filters": {"lookup"},
	})
	require.NoError(t, err)

	engine := New(rules)
	assert.Equal(t, selectors.SearchFilters, engine.Classify(selectors.Record{Selector: "#lookup"}).Category)
	assert.Equal(t, selectors.SupportMisc, engine.Classify(selectors.Record{Selector: ".find"}).Category,
		"overridden category loses its built-in keywords")
	assert.Equal(t, selectors.NavigationLayout, engine.Classify(selectors.Record{Selector: ".menu"}).Category)

	_, err = RulesFromKeywords(map[string][]string{"checkout": {"pay"}})
	assert.Error(t, err)
}
