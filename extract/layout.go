package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/c360studio/facultyatlas/department"
)

// ClassifyLayout inspects the rendered document for structural markers and
// tags the directory layout. Checks run from most to least specific; a page
// with no recognizable marker is tagged unknown and handled by the generic
// selector fallback.
func ClassifyLayout(doc *goquery.Document) department.StructureType {
	if doc.Find("table tr").Length() > 3 {
		return department.StructureTable
	}
	if hasClassFragment(doc, "card") || doc.Find(".profile-card, .person-card, .faculty-card").Length() > 0 {
		return department.StructureCards
	}
	if hasClassFragment(doc, "grid") || doc.Find("ul.grid, div.grid").Length() > 0 {
		return department.StructureGrid
	}
	if doc.Find("ul li, ol li").Length() > 3 {
		return department.StructureList
	}
	return department.StructureUnknown
}

func hasClassFragment(doc *goquery.Document, fragment string) bool {
	found := false
	doc.Find("div[class], ul[class], section[class]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		class, _ := sel.Attr("class")
		if strings.Contains(strings.ToLower(class), fragment) {
			found = true
			return false
		}
		return true
	})
	return found
}
