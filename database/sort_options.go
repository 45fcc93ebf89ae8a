package database

// sort orders for published file listings
const (
	SortNameAsc      = "name_asc"
	SortNameNat      = "name_nat"
	SortModifiedDesc = "modified_desc"
	SortModifiedAsc  = "modified_asc"
)

const DefaultSortOrder = SortNameNat

// IsValidSortOrder checks if a string is a valid sort order constant
func IsValidSortOrder(order string) bool {
	switch order {
	case SortNameAsc, SortNameNat, SortModifiedDesc, SortModifiedAsc:
		return true
	default:
		return false
	}
}
