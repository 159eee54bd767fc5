// File: internal/replica/settings.go
package replica

import "fmt"

const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// A sorting attribute configured for a store; each one yields one replica of the primary index
type SortingAttribute struct {
	Attribute      string `json:"attribute" yaml:"attribute" toml:"attribute" validate:"required"`
	Sort           string `json:"sort" yaml:"sort" toml:"sort" validate:"required,oneof=asc desc"`
	VirtualReplica bool   `json:"virtual_replica" yaml:"virtual_replica" toml:"virtual_replica"`
}

// IndexSettings is everything the replica manager needs to know about a store's primary index
type IndexSettings struct {
	IndexName string
	Sorting   []SortingAttribute
}

// Returns the replica index name for a sorting attribute, e.g. magento2_default_products_price_asc
func ReplicaName(primary string, s SortingAttribute) string {
	return fmt.Sprintf("%s_%s_%s", primary, s.Attribute, s.Sort)
}

// Returns the ranking criterion for a sorting attribute, e.g. desc(created_at)
func SortCriterion(s SortingAttribute) string {
	return fmt.Sprintf("%s(%s)", s.Sort, s.Attribute)
}

// VirtualCount returns how many of the sorting attributes request virtual replicas
func (s IndexSettings) VirtualCount() int {
	n := 0
	for _, attr := range s.Sorting {
		if attr.VirtualReplica {
			n++
		}
	}
	return n
}
