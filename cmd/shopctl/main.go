package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dwikikusuma/shoping-session/internal/notify"
	"github.com/dwikikusuma/shoping-session/internal/shop"
	"github.com/dwikikusuma/shoping-session/pkg/config"
	"github.com/dwikikusuma/shoping-session/pkg/logger"
	"github.com/dwikikusuma/shoping-session/pkg/shutdown"
)

func main() {
	cfg := config.Load()

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	opener := func(ctx context.Context, f flags) (*shop.Shop, error) {
		c := cfg
		if f.backend != "" {
			c.BackendURL = f.backend
		}
		if f.store != "" {
			c.StoreDriver = f.store
		}
		log := logger.New(logger.Options{
			Service: "shopctl",
			Env:     c.AppEnv,
			Level:   f.logLevel(c.LogLevel),
			Writer:  os.Stderr,
			Text:    true,
		})
		return shop.Open(ctx, c, &notify.Writer{Out: os.Stderr}, log)
	}

	if err := execute(ctx, opener, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
