package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"remindbot/internal/app"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config file (yaml or json)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfgPath)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	if err := a.Start(ctx); err != nil {
		fmt.Println("fatal start:", err)
		_ = a.Stop(context.Background())
		os.Exit(1)
	}

	select {
	case <-ctx.Done():
	case <-a.Done():
	}
	_ = a.Stop(context.Background())

	if err := a.Err(); err != nil && ctx.Err() == nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}
