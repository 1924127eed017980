package classifier

import (
	"fmt"

	"github.com/ilkoid/selcat/pkg/selectors"
)

// DefaultRules возвращает встроенные ключевые слова в порядке объявления категорий.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category: selectors.NavigationLayout,
			Keywords: []string{"nav", "menu", "header", "footer", "breadcrumb", "sidebar", "main", "banner", "layout", "logo", "wrapper"},
		},
		{
			Category: selectors.AuthenticationAccount,
			Keywords: []string{"login", "log-in", "signin", "sign-in", "sign in", "signup", "sign-up", "register", "auth", "account", "user", "profile", "password", "logout", "email"},
		},
		{
			Category: selectors.SearchFilters,
			Keywords: []string{"search", "filter", "sort", "query", "find", "facet", "refine"},
		},
		{
			Category: selectors.CategoryListing,
			Keywords: []string{"categor", "catalog", "listing", "grid", "pagination", "page-", "collection", "department", "browse", "tile", "card"},
		},
		{
			Category: selectors.ProductDetails,
			Keywords: []string{"product", "item", "detail", "review", "rating", "cart", "buy", "price", "add-to", "spec", "stock", "quantity"},
		},
		{
			Category: selectors.SupportMisc,
			Keywords: []string{"help", "contact", "support", "faq", "customer", "service", "notification", "alert", "cookie", "feedback", "chat", "modal", "popup", "toast"},
		},
	}
}

// RulesFromKeywords накладывает переопределения из config.yaml
// (categorizer.keywords) на встроенные правила.
//
// Категория из карты полностью заменяет свои ключевые слова,
// остальные остаются встроенными. Неизвестный ключ — ошибка.
func RulesFromKeywords(overrides map[string][]string) ([]Rule, error) {
	rules := DefaultRules()
	for key, keywords := range overrides {
		c := selectors.Category(key)
		if !c.Valid() {
			return nil, fmt.Errorf("unknown category in keywords: %s", key)
		}
		for i := range rules {
			if rules[i].Category == c {
				rules[i].Keywords = keywords
			}
		}
	}
	return rules, nil
}
