// Package cli implements the companyctl commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/companydir/internal/client"
	"github.com/odyssey-erp/companydir/internal/listing"
)

// Env holds the settings read from the environment.
type Env struct {
	DashboardURL string        `envconfig:"DASHBOARD_URL" default:"http://127.0.0.1:8080"`
	Timeout      time.Duration `envconfig:"COMPANYCTL_TIMEOUT" default:"15s"`
}

// LoadEnv reads Env from the environment.
func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return Env{}, err
	}
	return env, nil
}

// Options configures the command tree.
type Options struct {
	Env    Env
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	// RunTUI replaces the interactive program in tests.
	RunTUI func(ctx context.Context, api *client.Client, opts TUIOptions) (listing.State, error)
}

type globals struct {
	url     string
	timeout time.Duration
}

// NewRootCommand builds the companyctl command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(opts.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	if opts.RunTUI == nil {
		opts.RunTUI = runProgram
	}
	g := &globals{}
	root := &cobra.Command{
		Use:           "companyctl",
		Short:         "Manage the company directory from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)
	root.PersistentFlags().StringVar(&g.url, "url", opts.Env.DashboardURL, "dashboard base URL")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", opts.Env.Timeout, "per-request timeout")

	root.AddCommand(
		newSeedCommand(g, opts),
		newListCommand(g, opts),
		newDeleteCommand(g, opts),
		newTUICommand(g, opts),
	)
	return root
}

func (g *globals) client(opts Options) (*client.Client, error) {
	api, err := client.New(g.url, client.WithTimeout(g.timeout), client.WithLogger(opts.Logger))
	if err != nil {
		return nil, fmt.Errorf("companyctl: %w", err)
	}
	return api, nil
}
