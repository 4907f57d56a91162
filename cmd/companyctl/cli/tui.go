package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/companydir/internal/client"
	"github.com/odyssey-erp/companydir/internal/listing"
	"github.com/odyssey-erp/companydir/internal/tui"
)

// TUIOptions carries the starting state of the interactive browser.
type TUIOptions struct {
	Initial listing.State
	Live    bool
}

// runProgram runs the browser on the terminal and returns its final state.
func runProgram(ctx context.Context, api *client.Client, opts TUIOptions) (listing.State, error) {
	cfg := tui.Config{
		Backend: api,
		Initial: opts.Initial,
	}
	if opts.Live {
		cfg.Events = api.Events
	}
	model := tui.New(cfg)
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return listing.State{}, err
	}
	return model.State(), nil
}

func newTUICommand(g *globals, opts Options) *cobra.Command {
	var (
		search   string
		industry string
		perPage  int
		live     bool
	)
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse and edit the directory interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := g.client(opts)
			if err != nil {
				return err
			}
			initial := listing.DefaultState()
			initial.Search = search
			initial.Industry = industry
			if listing.ValidItemsPerPage(perPage) {
				initial.ItemsPerPage = perPage
			}
			final, err := opts.RunTUI(cmd.Context(), api, TUIOptions{Initial: initial, Live: live})
			if err != nil {
				return fmt.Errorf("companyctl: tui: %w", err)
			}
			if q := final.Encode().Encode(); q != "" {
				_, _ = fmt.Fprintf(opts.Stdout, "Query: ?%s\n", q)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&search, "search", "", "initial search")
	flags.StringVar(&industry, "industry", "", "initial industry")
	flags.IntVar(&perPage, "per-page", listing.DefaultItemsPerPage, "initial items per page")
	flags.BoolVar(&live, "live", true, "reload when the server reports changes")
	return cmd
}
