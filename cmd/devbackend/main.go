package main

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dwikikusuma/shoping-session/internal/gateway/gatewaytest"
	"github.com/dwikikusuma/shoping-session/pkg/config"
	"github.com/dwikikusuma/shoping-session/pkg/logger"
	"github.com/dwikikusuma/shoping-session/pkg/shutdown"
)

//go:embed seed.yaml
var defaultSeed []byte

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{
		Service:   "devbackend",
		Env:       cfg.AppEnv,
		Level:     cfg.LogLevel,
		AddSource: true,
	})

	root := context.Background()
	ctx, cancel := shutdown.WithSignals(root)
	defer cancel()

	backend := gatewaytest.NewBackend()
	if err := loadSeed(backend, cfg.SeedFile); err != nil {
		log.Error("seed failed", slog.Any("err", err))
		os.Exit(1)
	}
	for _, u := range backend.Users() {
		log.Info("seeded user", slog.String("user_id", u.ID), slog.String("email", u.Email),
			slog.String("token", backend.IssueToken(u.ID, time.Now())))
	}

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           backend.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("http server starting", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", slog.Any("err", err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown error", slog.Any("err", err))
	}

	wg.Wait()
	log.Info("bye")
}

func loadSeed(b *gatewaytest.Backend, path string) error {
	if path == "" {
		return b.LoadSeed(bytes.NewReader(defaultSeed))
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return b.LoadSeed(f)
}
