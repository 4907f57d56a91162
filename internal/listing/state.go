package listing

import (
	"strings"
	"sync"
	"time"

	"github.com/odyssey-erp/companydir/internal/company"
)

// State is the committed filter and page selection of a list view.
type State struct {
	Search       string
	Industry     string
	PageNumber   int
	ItemsPerPage int
}

// DefaultState is page 1 of an unfiltered list.
func DefaultState() State {
	return State{PageNumber: 1, ItemsPerPage: DefaultItemsPerPage}
}

// Filters returns the filter clauses of s.
func (s State) Filters() company.Filters {
	return company.Filters{Search: s.Search, Industry: s.Industry}.Normalize()
}

func (s State) normalized() State {
	if s.PageNumber < 1 {
		s.PageNumber = 1
	}
	if !ValidItemsPerPage(s.ItemsPerPage) {
		s.ItemsPerPage = DefaultItemsPerPage
	}
	return s
}

// clamped moves a page past totalPages back to the last page (1 when empty).
func (s State) clamped(totalPages int) State {
	if last := max(1, totalPages); s.PageNumber > last {
		s.PageNumber = last
	}
	return s
}

// Controller owns the view state. Search keystrokes are buffered and only
// committed after SearchDelay of quiet; every committed change is reported
// to the change callback.
type Controller struct {
	mu       sync.Mutex
	state    State
	input    string
	debounce *Debouncer
	onChange func(State)
}

// NewController starts from initial. onChange may be nil. It is called
// without the controller lock held, possibly from a timer goroutine.
func NewController(initial State, delay time.Duration, onChange func(State)) *Controller {
	initial = initial.normalized()
	if onChange == nil {
		onChange = func(State) {}
	}
	return &Controller{
		state:    initial,
		input:    initial.Search,
		debounce: NewDebouncer(delay),
		onChange: onChange,
	}
}

// State returns the committed state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Input returns the raw search buffer, which may be ahead of State().Search.
func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// SetSearchInput records a keystroke and schedules the debounced commit.
func (c *Controller) SetSearchInput(text string) {
	c.mu.Lock()
	c.input = text
	c.mu.Unlock()
	c.debounce.Debounce(c.commitSearch)
}

// CommitSearch commits the buffered search immediately.
func (c *Controller) CommitSearch() {
	c.debounce.Cancel()
	c.commitSearch()
}

func (c *Controller) commitSearch() {
	c.update(func(s *State) bool {
		search := strings.TrimSpace(c.input)
		if search == s.Search {
			return false
		}
		s.Search = search
		s.PageNumber = 1
		return true
	})
}

// SetIndustry filters by industry; "" clears the clause. Page resets to 1.
func (c *Controller) SetIndustry(industry string) {
	industry = strings.TrimSpace(industry)
	c.update(func(s *State) bool {
		if industry == s.Industry {
			return false
		}
		s.Industry = industry
		s.PageNumber = 1
		return true
	})
}

// SetItemsPerPage switches page size and returns to page 1. Sizes outside
// AllowedItemsPerPage are ignored.
func (c *Controller) SetItemsPerPage(n int) bool {
	if !ValidItemsPerPage(n) {
		return false
	}
	c.update(func(s *State) bool {
		if n == s.ItemsPerPage && s.PageNumber == 1 {
			return false
		}
		s.ItemsPerPage = n
		s.PageNumber = 1
		return true
	})
	return true
}

// GoToPage moves to page n when it lies within 1..totalPages.
func (c *Controller) GoToPage(n, totalPages int) bool {
	if n < 1 || n > totalPages {
		return false
	}
	c.update(func(s *State) bool {
		if s.PageNumber == n {
			return false
		}
		s.PageNumber = n
		return true
	})
	return true
}

// ClampPage moves back to the last page when the list shrank below the
// current page. It reports whether the page changed.
func (c *Controller) ClampPage(totalPages int) bool {
	changed := false
	c.update(func(s *State) bool {
		next := s.clamped(totalPages)
		changed = next.PageNumber != s.PageNumber
		*s = next
		return changed
	})
	return changed
}

// Next advances one page unless already on the last.
func (c *Controller) Next(totalPages int) bool {
	return c.GoToPage(c.State().PageNumber+1, totalPages)
}

// Previous goes back one page unless already on the first.
func (c *Controller) Previous() bool {
	page := c.State().PageNumber
	return c.GoToPage(page-1, page)
}

// ClearFilters empties search and industry and returns to page 1.
func (c *Controller) ClearFilters() {
	c.debounce.Cancel()
	c.mu.Lock()
	c.input = ""
	c.mu.Unlock()
	c.update(func(s *State) bool {
		changed := s.Search != "" || s.Industry != "" || s.PageNumber != 1
		s.Search, s.Industry, s.PageNumber = "", "", 1
		return changed
	})
}

// Close cancels any pending search commit.
func (c *Controller) Close() {
	c.debounce.Cancel()
}

func (c *Controller) update(fn func(*State) bool) {
	c.mu.Lock()
	changed := fn(&c.state)
	next := c.state
	c.mu.Unlock()
	if changed {
		c.onChange(next)
	}
}
