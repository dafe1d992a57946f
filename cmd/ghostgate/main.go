// Command ghostgate runs the Ghost Score reputation gateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ghostspeak/ghostgate/internal/app"
	"github.com/ghostspeak/ghostgate/internal/config"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config/ghostgate.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ghostgate: %v\n", err)
		os.Exit(1)
	}

	application, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ghostgate: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ghostgate: %v\n", err)
		os.Exit(1)
	}
}
