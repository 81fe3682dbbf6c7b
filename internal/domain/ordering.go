package domain

import (
	"sort"
)

// SortForDisplay orders products for the list view: soonest expiry first,
// products with no expiry date after all dated items. Ties break on
// CreatedAt then ID, so the order is deterministic across snapshots instead
// of depending on whatever order the store happened to return.
func SortForDisplay(products []*Product) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		if a.ExpiryDate != b.ExpiryDate {
			// Canonical YYYY-MM-DD strings compare chronologically.
			if a.ExpiryDate == "" {
				return false
			}
			if b.ExpiryDate == "" {
				return true
			}
			return a.ExpiryDate < b.ExpiryDate
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
