package pricedash

import (
	"cmp"
	"slices"
)

// MergeAndRank combines the database table with an uploaded one. With no
// upload the base table is returned as is, without any top-N reduction.
// Otherwise base rows are followed by uploaded rows, duplicates are kept, and
// the TopN most expensive rows are returned.
func MergeAndRank(base ProductTable, upload *ProductTable) ProductTable {
	if upload == nil {
		return base
	}
	merged := make(ProductTable, 0, len(base)+len(*upload))
	merged = append(merged, base...)
	merged = append(merged, (*upload)...)
	return TopByPrice(merged, TopN)
}

// TopByPrice returns up to n rows of t ordered by descending price. Rows with
// equal prices keep their relative order in t, so at the cutoff the earlier
// row wins. t is not modified.
func TopByPrice(t ProductTable, n int) ProductTable {
	if n <= 0 {
		return ProductTable{}
	}
	sorted := slices.Clone(t)
	if sorted == nil {
		sorted = ProductTable{}
	}
	slices.SortStableFunc(sorted, func(a, b ProductRow) int {
		return cmp.Compare(b.Price, a.Price)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
