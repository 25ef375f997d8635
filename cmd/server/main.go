package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/iudanet/filmapi/internal/auth"
	"github.com/iudanet/filmapi/internal/config"
	"github.com/iudanet/filmapi/internal/logging"
	"github.com/iudanet/filmapi/internal/server"
	"github.com/iudanet/filmapi/internal/server/storage/backend"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if cfg.ShowVersion {
		printVersion()
		return nil
	}

	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	accessLogger, accessCloser, err := logging.OpenAccessLog(cfg.Log.AccessFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := accessCloser.Close(); err != nil {
			logger.Error("failed to close access log", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", slog.Any("error", err))
		}
	}()

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Issuer: cfg.Auth.Issuer,
		Secret: []byte(cfg.Auth.JWTSecret),
		TTL:    cfg.Auth.TokenTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to create token service: %w", err)
	}

	srv, err := server.New(server.Options{
		Config:       cfg,
		Store:        store,
		Hasher:       auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		Tokens:       tokens,
		Logger:       logger,
		AccessLogger: accessLogger,
		Version:      Version,
	})
	if err != nil {
		return err
	}

	logger.Info("film API starting",
		slog.String("version", Version),
		slog.String("addr", cfg.Server.Addr),
		slog.String("storage_driver", cfg.Storage.Driver))

	return srv.Run(ctx)
}

func printVersion() {
	fmt.Printf("Film API Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
