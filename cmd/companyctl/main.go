// Command companyctl is the terminal client of the company directory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/odyssey-erp/companydir/cmd/companyctl/cli"
	"github.com/odyssey-erp/companydir/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := app.LoadDotEnv(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "companyctl: %v\n", err)
		return 1
	}
	env, err := cli.LoadEnv()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "companyctl: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(cli.Options{Env: env, Stdout: os.Stdout, Stderr: os.Stderr})
	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "companyctl: %v\n", err)
		return 1
	}
	return 0
}
