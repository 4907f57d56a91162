package listing

import (
	"net/url"
	"strconv"
	"strings"
)

// Query parameter names of a shareable list view.
const (
	ParamSearch       = "search"
	ParamIndustry     = "industry"
	ParamPage         = "page"
	ParamItemsPerPage = "itemsPerPage"
)

// Encode writes s as query parameters, omitting defaults.
func (s State) Encode() url.Values {
	s = s.normalized()
	v := url.Values{}
	if s.Search != "" {
		v.Set(ParamSearch, s.Search)
	}
	if s.Industry != "" {
		v.Set(ParamIndustry, s.Industry)
	}
	if s.PageNumber != 1 {
		v.Set(ParamPage, strconv.Itoa(s.PageNumber))
	}
	if s.ItemsPerPage != DefaultItemsPerPage {
		v.Set(ParamItemsPerPage, strconv.Itoa(s.ItemsPerPage))
	}
	return v
}

// DecodeState reads a State from query parameters. Missing or malformed
// values fall back to the defaults.
func DecodeState(v url.Values) State {
	s := DefaultState()
	s.Search = strings.TrimSpace(v.Get(ParamSearch))
	s.Industry = strings.TrimSpace(v.Get(ParamIndustry))
	if n, err := strconv.Atoi(v.Get(ParamPage)); err == nil {
		s.PageNumber = n
	}
	if n, err := strconv.Atoi(v.Get(ParamItemsPerPage)); err == nil {
		s.ItemsPerPage = n
	}
	return s.normalized()
}
