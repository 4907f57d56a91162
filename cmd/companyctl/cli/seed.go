package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/companydir/internal/company"
)

func newSeedCommand(g *globals, opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Replace every company with the sample dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := g.client(opts)
			if err != nil {
				return err
			}
			out, err := api.Seed(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s: %w", "Failed to seed dummy data. Please try again.", err)
			}
			if out.TaskID != "" {
				_, _ = fmt.Fprintf(opts.Stdout, "%s (task %s)\n", out.Message, out.TaskID)
				return nil
			}
			msg := out.Message
			if msg == "" {
				msg = company.SeedMessage(out.Count)
			}
			_, _ = fmt.Fprintln(opts.Stdout, msg)
			return nil
		},
	}
}
