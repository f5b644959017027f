package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bsm/rfs/internal/config"
	"github.com/bsm/rfs/internal/server"
	"go.uber.org/multierr"
)

func main() {
	log.SetPrefix("[RFS] ")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) (err error) {
	fs, err := cfg.Open(ctx)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, fs.Close()) }()

	log.Printf("serving %s on %s (resolver=%s)", cfg.StorageURL, cfg.Addr, cfg.Resolver)
	if err := server.New(cfg, fs).Run(ctx); err != nil {
		return err
	}
	log.Println("server stopped")
	return nil
}
