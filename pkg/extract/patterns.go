package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/ilkoid/selcat/pkg/utils"
)

// patternGroup — набор CSS паттернов с общим описанием.
type patternGroup struct {
	description string
	patterns    []string
}

var patternGroups = []patternGroup{
	{
		description: "Login/Authentication related",
		patterns: []string{
			"input[type='email']", "input[type='password']",
			"input[name*='email']", "input[name*='username']", "input[name*='login']", "input[name*='password']",
			"button[type='submit']", "input[type='submit']",
			"[class*='login']", "[class*='signin']", "[id*='login']", "[id*='signin']",
		},
	},
	{
		description: "Search related",
		patterns: []string{
			"input[type='search']", "input[name*='search']", "input[name*='query']", "input[name*='q']",
			"[class*='search']", "[id*='search']", "button[class*='search']", "input[class*='search']",
		},
	},
	{
		description: "Navigation related",
		patterns: []string{
			"nav", "[role='navigation']", ".navbar", ".nav", ".menu", "[class*='nav']",
		},
	},
}

// combinedPatterns находит на странице типовые паттерны входа, поиска и навигации.
func combinedPatterns(root *goquery.Document) []Pattern {
	out := []Pattern{}
	for _, group := range patternGroups {
		for _, p := range group.patterns {
			found := root.Find(p)
			if found.Length() == 0 {
				continue
			}

			samples := []SampleElement{}
			found.Slice(0, min(found.Length(), maxSampleElements)).Each(func(_ int, el *goquery.Selection) {
				attrs := make(map[string]string, len(el.Nodes[0].Attr))
				for _, a := range el.Nodes[0].Attr {
					attrs[a.Key] = a.Val
				}
				samples = append(samples, SampleElement{
					Tag:        goquery.NodeName(el),
					Attributes: attrs,
					Text:       utils.Truncate(elementText(el), maxButtonTextRunes),
				})
			})

			out = append(out, Pattern{
				Pattern:        p,
				Description:    group.description,
				Count:          found.Length(),
				SampleElements: samples,
			})
		}
	}
	return out
}
