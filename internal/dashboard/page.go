package dashboard

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/companydir/internal/company"
	"github.com/odyssey-erp/companydir/internal/listing"
	"github.com/odyssey-erp/companydir/internal/view"
)

type pageLink struct {
	Label    string
	URL      string
	Active   bool
	Ellipsis bool
}

type option struct {
	Value    string
	Selected bool
}

type pageData struct {
	View       viewResponse
	Links      []pageLink
	PrevURL    string
	NextURL    string
	Sizes      []option
	Industries []option
	ClearURL   string
}

// MountPage attaches the server-rendered directory page.
func (h *Handler) MountPage(r chi.Router) {
	r.Get("/", h.page)
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	if h.views == nil {
		http.NotFound(w, r)
		return
	}
	state := listing.DecodeState(r.URL.Query())
	data := view.TemplateData{Title: "Company Directory", CurrentPath: r.URL.Path}

	all, err := h.svc.List(r.Context(), company.Filters{})
	if err != nil {
		h.logger.Error("render directory", slog.Any("error", err))
		data.Notice = company.UserMessage("load", err)
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		data.Data = newPageData(listing.Build(all, state), h.now())
	}
	if err := h.views.Render(w, "companies.html", data); err != nil {
		h.logger.Error("render directory", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func newPageData(v listing.View, now time.Time) pageData {
	out := pageData{
		View:     newViewResponse(v, now),
		ClearURL: "/",
	}
	at := func(n int) string {
		s := v.State
		s.PageNumber = n
		return stateURL(s)
	}
	for _, link := range v.PageNumbers {
		if link.Ellipsis {
			out.Links = append(out.Links, pageLink{Label: link.String(), Ellipsis: true})
			continue
		}
		out.Links = append(out.Links, pageLink{
			Label:  strconv.Itoa(link.Number),
			URL:    at(link.Number),
			Active: link.Number == v.Page.PageNumber,
		})
	}
	if v.Page.HasPrevious() {
		out.PrevURL = at(v.Page.PageNumber - 1)
	}
	if v.Page.HasNext() {
		out.NextURL = at(v.Page.PageNumber + 1)
	}
	for _, n := range listing.AllowedItemsPerPage {
		out.Sizes = append(out.Sizes, option{Value: strconv.Itoa(n), Selected: n == v.State.ItemsPerPage})
	}
	for _, name := range v.Industries {
		out.Industries = append(out.Industries, option{Value: name, Selected: name == v.State.Industry})
	}
	return out
}

func stateURL(s listing.State) string {
	q := s.Encode().Encode()
	if q == "" {
		return "/"
	}
	return "/?" + q
}
