package listing

import "github.com/odyssey-erp/companydir/internal/company"

// View is everything a list screen renders for one State.
type View struct {
	State       State
	Page        Page[company.Company]
	PageNumbers []PageLink
	Industries  []string
}

// Build filters all by s and slices out the requested page. A page past the
// end, e.g. after deletes shrank the list, becomes the last page; the
// returned State carries the page actually shown. Industries are taken from
// the unfiltered dataset so the option list stays stable while filtering.
func Build(all []company.Company, s State) View {
	s = s.normalized()
	filtered := Filter(all, s.Filters())
	s = s.clamped(totalPages(len(filtered), s.ItemsPerPage))
	page := Paginate(filtered, s.PageNumber, s.ItemsPerPage)
	return View{
		State:       s,
		Page:        page,
		PageNumbers: PageNumbers(page.TotalPages, s.PageNumber),
		Industries:  Industries(all),
	}
}
