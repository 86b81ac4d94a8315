package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/philfreshman/diffpack/internal/api"
	"github.com/philfreshman/diffpack/internal/config"
	"github.com/philfreshman/diffpack/pkg/archive"
	"github.com/philfreshman/diffpack/pkg/cache"
	"github.com/philfreshman/diffpack/pkg/diff"
	"github.com/philfreshman/diffpack/pkg/registry"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var configPath string
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides config)")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := loggerFromContext(ctx)

	backend := cache.NewMemoryCache()
	defer backend.Close()

	reg, err := registry.New(registry.Options{Cache: backend, CacheTTL: cfg.CacheTTL()})
	if err != nil {
		return err
	}

	fetcher := archive.NewFetcher(backend, cfg.CacheTTL())
	diffs := diff.NewService(fetcher, cfg.Diff.SimilarityThreshold)

	server := api.NewServer(reg, diffs, registry.KindOf(cfg.Registry.Default), logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr, "default_registry", cfg.Registry.Default)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
