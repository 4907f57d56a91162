package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/companydir/internal/company"
)

func newDeleteCommand(g *globals, opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID [ID...]",
		Short: "Delete one or more companies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := g.client(opts)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if err := api.Delete(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("%s: %w", company.UserMessage("delete", err), err)
				}
				_, _ = fmt.Fprintln(opts.Stdout, "Company deleted successfully!")
				return nil
			}
			out, err := api.BulkDelete(cmd.Context(), args)
			if err != nil {
				return fmt.Errorf("%s: %w", company.UserMessage("delete", err), err)
			}
			_, _ = fmt.Fprintln(opts.Stdout, out.Message)
			if len(out.Failed) > 0 {
				return fmt.Errorf("not deleted: %s", strings.Join(out.Failed, ", "))
			}
			return nil
		},
	}
}
