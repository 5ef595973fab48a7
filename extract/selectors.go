package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/c360studio/facultyatlas/department"
)

// minSelectorMatches is the win condition for a cascade selector: it must
// find more than this many items, otherwise the next selector is tried.
const minSelectorMatches = 2

// minGenericText is the minimum visible text for the generic fallback to
// treat a block as a directory item.
const minGenericText = 5

// Selector cascades per layout, most specific first. The generic fallback
// runs only after every listed selector fails.
var selectorCascades = map[department.StructureType][]string{
	department.StructureTable: {
		"table.faculty tr", "table.directory tr", "table tbody tr", "table tr",
	},
	department.StructureCards: {
		".faculty-card", ".profile-card", ".person-card", "div[class*=card]",
	},
	department.StructureGrid: {
		".faculty-grid > div", ".people-grid > div", "ul.grid > li", "div[class*=grid] > div",
	},
	department.StructureList: {
		"ul.faculty li", "ul.people li", "ul.directory li", ".faculty-list li", "ul li",
	},
	department.StructureUnknown: {
		".faculty-member", ".person", ".profile", "li", "tr",
	},
}

// selectItems runs the cascade for the classified layout and returns the
// first selector's matches that clear the threshold, plus the method tag.
func selectItems(doc *goquery.Document, layout department.StructureType) (*goquery.Selection, Method) {
	for _, selector := range selectorCascades[layout] {
		if sel := doc.Find(selector); sel.Length() > minSelectorMatches {
			return sel, MethodSelector
		}
	}
	if sel := genericItems(doc); sel != nil && sel.Length() > 0 {
		return sel, MethodGeneric
	}
	return nil, MethodGeneric
}

// genericItems is the last-resort item selector: any block or row element
// containing exactly one link and more than minGenericText characters of
// text, excluding navigation and footer blocks.
func genericItems(doc *goquery.Document) *goquery.Selection {
	return doc.Find("div, li, tr, article, section").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		if insideNav(sel) {
			return false
		}
		if sel.Find("a[href]").Length() != 1 {
			return false
		}
		return len(strings.TrimSpace(sel.Text())) > minGenericText
	})
}

func insideNav(sel *goquery.Selection) bool {
	if sel.Closest("nav, header, footer").Length() > 0 {
		return true
	}
	nav := false
	sel.Parents().EachWithBreak(func(_ int, p *goquery.Selection) bool {
		class, _ := p.Attr("class")
		id, _ := p.Attr("id")
		joined := strings.ToLower(class + " " + id)
		if strings.Contains(joined, "nav") || strings.Contains(joined, "menu") || strings.Contains(joined, "footer") {
			nav = true
			return false
		}
		return true
	})
	return nav
}
