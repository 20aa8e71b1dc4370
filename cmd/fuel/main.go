package main

import (
	"context"
	"os"
	"os/signal"

	"fuel-client/pkg/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := cli.New(os.Stdout, os.Stderr).Run(ctx, os.Args[1:]); err != nil {
		stop()
		os.Stderr.WriteString(err.Error())
		os.Stderr.WriteString("\n")
		os.Exit(1)
	}
}
