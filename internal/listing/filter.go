// Package listing derives the visible company list from the full dataset:
// filtering, pagination, page-number compression and the view state that
// drives them.
package listing

import (
	"sort"

	"github.com/odyssey-erp/companydir/internal/company"
)

// Filter returns the companies matching filters, preserving input order.
func Filter(companies []company.Company, filters company.Filters) []company.Company {
	if filters.IsEmpty() {
		return companies
	}
	out := make([]company.Company, 0, len(companies))
	for _, c := range companies {
		if filters.Match(c) {
			out = append(out, c)
		}
	}
	return out
}

// Industries lists the distinct industry keys present in companies, sorted
// ascending. Records without an industry contribute nothing.
func Industries(companies []company.Company) []string {
	seen := make(map[string]struct{}, len(companies))
	out := make([]string, 0)
	for _, c := range companies {
		key := c.IndustryKey()
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
