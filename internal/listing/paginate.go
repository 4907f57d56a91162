package listing

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
)

// DefaultItemsPerPage is used when no valid page size is chosen.
const DefaultItemsPerPage = 6

// AllowedItemsPerPage lists the selectable page sizes.
var AllowedItemsPerPage = []int{6, 12, 24, 48}

// ValidItemsPerPage reports whether n is a selectable page size.
func ValidItemsPerPage(n int) bool {
	return slices.Contains(AllowedItemsPerPage, n)
}

// Page is one slice of a list.
type Page[T any] struct {
	PageNumber   int `json:"page"`
	ItemsPerPage int `json:"items_per_page"`
	TotalItems   int `json:"total_items"`
	TotalPages   int `json:"total_pages"`
	StartIndex   int `json:"start_index"`
	EndIndex     int `json:"end_index"`
	Items        []T `json:"items"`
}

// Paginate slices items for pageNumber. Page numbers are trusted: callers
// keep them in range by disabling navigation at the boundaries, and an out
// of range page simply yields no items.
func Paginate[T any](items []T, pageNumber, itemsPerPage int) Page[T] {
	if itemsPerPage <= 0 {
		itemsPerPage = DefaultItemsPerPage
	}
	start := (pageNumber - 1) * itemsPerPage
	p := Page[T]{
		PageNumber:   pageNumber,
		ItemsPerPage: itemsPerPage,
		TotalItems:   len(items),
		TotalPages:   totalPages(len(items), itemsPerPage),
		StartIndex:   start,
		EndIndex:     start + itemsPerPage,
	}
	if start < 0 || start >= len(items) {
		p.Items = []T{}
		return p
	}
	p.Items = items[start:min(p.EndIndex, len(items))]
	return p
}

// HasPrevious reports whether the previous-page affordance is enabled.
func (p Page[T]) HasPrevious() bool { return p.PageNumber > 1 }

// HasNext reports whether the next-page affordance is enabled.
func (p Page[T]) HasNext() bool { return p.PageNumber < p.TotalPages }

// Info renders the "Showing a-b of N companies" line.
func (p Page[T]) Info() string {
	if p.TotalItems == 0 {
		return "No companies found."
	}
	if p.StartIndex >= p.TotalItems {
		return fmt.Sprintf("Showing 0 of %d companies", p.TotalItems)
	}
	return fmt.Sprintf("Showing %d-%d of %d companies", p.StartIndex+1, min(p.EndIndex, p.TotalItems), p.TotalItems)
}

// PageLink is one entry of a page-number strip: a page or an ellipsis.
type PageLink struct {
	Number   int
	Ellipsis bool
}

// Ellipsis marks an omitted run of pages.
var Ellipsis = PageLink{Ellipsis: true}

func (l PageLink) String() string {
	if l.Ellipsis {
		return "..."
	}
	return strconv.Itoa(l.Number)
}

// MarshalJSON writes the page number, or "ellipsis".
func (l PageLink) MarshalJSON() ([]byte, error) {
	if l.Ellipsis {
		return []byte(`"ellipsis"`), nil
	}
	return json.Marshal(l.Number)
}

const maxVisiblePages = 5

func totalPages(n, itemsPerPage int) int {
	if itemsPerPage <= 0 {
		itemsPerPage = DefaultItemsPerPage
	}
	return int(math.Ceil(float64(n) / float64(itemsPerPage)))
}

// PageNumbers compresses 1..totalPages around activePage. Up to five pages
// are listed in full; beyond that the first and last page are always shown
// with the neighbours of activePage between them, and ellipses stand in for
// the gaps.
func PageNumbers(totalPages, activePage int) []PageLink {
	links := make([]PageLink, 0, maxVisiblePages+2)
	if totalPages <= maxVisiblePages {
		for i := 1; i <= totalPages; i++ {
			links = append(links, PageLink{Number: i})
		}
		return links
	}
	links = append(links, PageLink{Number: 1})
	if activePage > 3 {
		links = append(links, Ellipsis)
	}
	for i := max(2, activePage-1); i <= min(totalPages-1, activePage+1); i++ {
		links = append(links, PageLink{Number: i})
	}
	if activePage < totalPages-2 {
		links = append(links, Ellipsis)
	}
	return append(links, PageLink{Number: totalPages})
}
