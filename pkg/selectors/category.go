// Package selectors описывает модель данных движка категоризации:
// входной документ с селекторами, закрытый набор категорий и итоговый
// документ с распределёнными по категориям селекторами.
//
// Пакет не содержит логики классификации — только контракт данных.
package selectors

// Category — машинный ключ одной из шести фиксированных категорий.
type Category string

const (
	NavigationLayout      Category = "navigation_layout"
	AuthenticationAccount Category = "authentication_account"
	SearchFilters         Category = "search_filters"
	CategoryListing       Category = "category_listing"
	ProductDetails        Category = "product_details"
	SupportMisc           Category = "support_misc"
)

// Definition — ключ, человекочитаемое имя и описание категории.
//
// Описание используется и как подсказка для LLM, и в выходном документе.
type Definition struct {
	Key         Category `json:"-"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
}

// definitions задаёт порядок объявления. Он же — приоритет при равенстве
// очков в rule-based классификаторе.
var definitions = []Definition{
	{
		Key:         NavigationLayout,
		Name:        "Navigation & Layout",
		Description: "Navigation menus, headers, footers, breadcrumbs, page structure elements, layout components",
	},
	{
		Key:         AuthenticationAccount,
		Name:        "Authentication & User Account",
		Description: "Login forms, registration, user profile, account settings, sign-in/sign-up elements",
	},
	{
		Key:         SearchFilters,
		Name:        "Search & Filters",
		Description: "Search bars, filter controls, sorting options, search results, query inputs",
	},
	{
		Key:         CategoryListing,
		Name:        "Category & Product Listing Pages",
		Description: "Product lists, category pages, pagination, product cards, listing grids, product collections",
	},
	{
		Key:         ProductDetails,
		Name:        "Product Details",
		Description: "Individual product pages, specifications, reviews, ratings, add to cart buttons, product images",
	},
	{
		Key:         SupportMisc,
		Name:        "Support & Miscellaneous",
		Description: "Help sections, contact forms, customer service, notifications, alerts, other miscellaneous elements",
	},
}

// Definitions возвращает копию определений в порядке объявления.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Categories возвращает ключи категорий в порядке объявления.
func Categories() []Category {
	out := make([]Category, len(definitions))
	for i, d := range definitions {
		out[i] = d.Key
	}
	return out
}

// Lookup возвращает определение категории по ключу.
func Lookup(c Category) (Definition, bool) {
	for _, d := range definitions {
		if d.Key == c {
			return d, true
		}
	}
	return Definition{}, false
}

// Valid сообщает, входит ли ключ в закрытый набор категорий.
func (c Category) Valid() bool {
	_, ok := Lookup(c)
	return ok
}

// Label возвращает человекочитаемое имя категории (или сам ключ для неизвестных).
func (c Category) Label() string {
	if d, ok := Lookup(c); ok {
		return d.Name
	}
	return string(c)
}
