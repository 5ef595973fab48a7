// Package department resolves a discovered university pattern into concrete
// department candidates: main-site directory paths, college-grouped pages,
// and department subdomains.
package department

// StructureType tags the page layout a department directory uses.
type StructureType string

const (
	StructureList    StructureType = "list"
	StructureGrid    StructureType = "grid"
	StructureTable   StructureType = "table"
	StructureCards   StructureType = "cards"
	StructureUnknown StructureType = "unknown"
)

// Info is one resolved department candidate.
type Info struct {
	Name             string        `json:"name"`
	URL              string        `json:"url"`
	EstimatedFaculty int           `json:"estimated_faculty,omitempty"`
	Structure        StructureType `json:"structure"`
	Confidence       float64       `json:"confidence"`
	IsSubdomain      bool          `json:"is_subdomain"`
	SubdomainBase    string        `json:"subdomain_base,omitempty"`
}
