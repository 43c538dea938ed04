package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"taskboard/internal/app"
	"taskboard/internal/cli"
	"taskboard/internal/config"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory := func(ctx context.Context, cfg *config.Config, logToFile bool) (*cli.Runtime, error) {
		a := app.New(cfg)
		if err := a.Init(ctx, logToFile); err != nil {
			a.Close()
			return nil, err
		}
		return &cli.Runtime{
			Service: a.Service(),
			Serve:   a.Serve,
			Close:   a.Close,
		}, nil
	}

	root := cli.NewRootCommand(factory, version)
	if err := root.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
