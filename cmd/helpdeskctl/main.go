package main

import (
	"context"
	"os"
	"os/signal"
	_ "time/tzdata"

	"github.com/fatih/color"

	"github.com/spec-kit/helpdesk-service/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCmd(cli.DefaultLoader).ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
