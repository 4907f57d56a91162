package dashboard

import (
	"time"

	"github.com/odyssey-erp/companydir/internal/company"
	"github.com/odyssey-erp/companydir/internal/listing"
)

type displayFields struct {
	Location    string   `json:"location"`
	FullAddress string   `json:"full_address"`
	Industry    string   `json:"industry"`
	Sectors     []string `json:"sectors,omitempty"`
	CEO         string   `json:"ceo"`
	Tenure      string   `json:"tenure,omitempty"`
	Employees   string   `json:"employees"`
	Age         string   `json:"age"`
	Complete    bool     `json:"complete"`
}

type companyView struct {
	company.Company
	Display displayFields `json:"display"`
}

func newCompanyView(c company.Company, now time.Time) companyView {
	return companyView{
		Company: c,
		Display: displayFields{
			Location:    c.Location.Display(),
			FullAddress: company.FullAddress(c.Location),
			Industry:    c.Industry.Display(),
			Sectors:     company.Sectors(c.Industry),
			CEO:         c.CEO.Display(),
			Tenure:      company.Tenure(c.CEO, now),
			Employees:   company.FormatEmployeeCount(c.EmployeeCount),
			Age:         company.FormatAge(c.Founded, now),
			Complete:    c.IsComplete(),
		},
	}
}

type viewResponse struct {
	Items        []companyView      `json:"items"`
	Page         int                `json:"page"`
	ItemsPerPage int                `json:"items_per_page"`
	TotalItems   int                `json:"total_items"`
	TotalPages   int                `json:"total_pages"`
	StartIndex   int                `json:"start_index"`
	EndIndex     int                `json:"end_index"`
	HasPrevious  bool               `json:"has_previous"`
	HasNext      bool               `json:"has_next"`
	PageNumbers  []listing.PageLink `json:"page_numbers"`
	Industries   []string           `json:"industries"`
	Info         string             `json:"info"`
	Search       string             `json:"search"`
	Industry     string             `json:"industry"`
	Query        string             `json:"query"`
	AllowedSizes []int              `json:"allowed_items_per_page"`
}

func newViewResponse(v listing.View, now time.Time) viewResponse {
	items := make([]companyView, 0, len(v.Page.Items))
	for _, c := range v.Page.Items {
		items = append(items, newCompanyView(c, now))
	}
	return viewResponse{
		Items:        items,
		Page:         v.Page.PageNumber,
		ItemsPerPage: v.Page.ItemsPerPage,
		TotalItems:   v.Page.TotalItems,
		TotalPages:   v.Page.TotalPages,
		StartIndex:   v.Page.StartIndex,
		EndIndex:     v.Page.EndIndex,
		HasPrevious:  v.Page.HasPrevious(),
		HasNext:      v.Page.HasNext(),
		PageNumbers:  v.PageNumbers,
		Industries:   v.Industries,
		Info:         v.Page.Info(),
		Search:       v.State.Search,
		Industry:     v.State.Industry,
		Query:        v.State.Encode().Encode(),
		AllowedSizes: listing.AllowedItemsPerPage,
	}
}
