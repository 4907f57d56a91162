package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/companydir/internal/company"
	"github.com/odyssey-erp/companydir/internal/listing"
)

type listFlags struct {
	search   string
	industry string
	page     int
	perPage  int
	json     bool
}

// ListSummary is the --json output of list.
type ListSummary struct {
	Companies   []company.Company  `json:"companies"`
	Page        int                `json:"page"`
	TotalPages  int                `json:"total_pages"`
	TotalItems  int                `json:"total_items"`
	PageNumbers []listing.PageLink `json:"page_numbers"`
	Industries  []string           `json:"industries"`
	Info        string             `json:"info"`
	Query       string             `json:"query"`
}

func newListCommand(g *globals, opts Options) *cobra.Command {
	f := &listFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show one page of the filtered directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !listing.ValidItemsPerPage(f.perPage) {
				return fmt.Errorf("--per-page must be one of %v", listing.AllowedItemsPerPage)
			}
			api, err := g.client(opts)
			if err != nil {
				return err
			}
			all, err := api.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s: %w", company.UserMessage("load", err), err)
			}
			v := listing.Build(all, listing.State{
				Search:       f.search,
				Industry:     f.industry,
				PageNumber:   f.page,
				ItemsPerPage: f.perPage,
			})
			if f.json {
				return writeListJSON(opts.Stdout, v)
			}
			writeListHuman(opts.Stdout, v, time.Now())
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.search, "search", "", "match name or description")
	flags.StringVar(&f.industry, "industry", "", "exact industry")
	flags.IntVar(&f.page, "page", 1, "page number")
	flags.IntVar(&f.perPage, "per-page", listing.DefaultItemsPerPage, "items per page")
	flags.BoolVar(&f.json, "json", false, "print JSON")
	return cmd
}

func writeListJSON(out io.Writer, v listing.View) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(ListSummary{
		Companies:   v.Page.Items,
		Page:        v.Page.PageNumber,
		TotalPages:  v.Page.TotalPages,
		TotalItems:  v.Page.TotalItems,
		PageNumbers: v.PageNumbers,
		Industries:  v.Industries,
		Info:        v.Page.Info(),
		Query:       v.State.Encode().Encode(),
	})
}

func writeListHuman(out io.Writer, v listing.View, now time.Time) {
	_, _ = fmt.Fprintln(out, v.Page.Info())
	if len(v.Page.Items) == 0 {
		return
	}
	rows := make([][]string, 0, len(v.Page.Items))
	for _, c := range v.Page.Items {
		rows = append(rows, []string{
			c.ID,
			c.Name,
			c.Industry.Display(),
			c.Location.Display(),
			company.FormatEmployeeCount(c.EmployeeCount),
			company.FormatAge(c.Founded, now),
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Name", "Industry", "Location", "Employees", "Age").
		Rows(rows...)
	_, _ = fmt.Fprintln(out, t.String())

	if v.Page.TotalPages > 1 {
		labels := make([]string, 0, len(v.PageNumbers))
		for _, link := range v.PageNumbers {
			label := link.String()
			if !link.Ellipsis && link.Number == v.Page.PageNumber {
				label = "[" + label + "]"
			}
			labels = append(labels, label)
		}
		_, _ = fmt.Fprintf(out, "Pages: %s\n", strings.Join(labels, " "))
	}
	if q := v.State.Encode().Encode(); q != "" {
		_, _ = fmt.Fprintf(out, "Query: ?%s\n", q)
	}
}
