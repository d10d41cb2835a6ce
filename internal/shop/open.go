package shop

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dwikikusuma/shoping-session/internal/localstore"
	"github.com/dwikikusuma/shoping-session/internal/notify"
	"github.com/dwikikusuma/shoping-session/pkg/config"
)

// Open builds a Shop from configuration, opening the configured local store.
func Open(ctx context.Context, cfg config.Config, n notify.Notifier, log *slog.Logger) (*Shop, error) {
	target := cfg.StorePath
	if cfg.StoreDriver == localstore.DriverRedis {
		target = cfg.RedisURL
	}

	store, err := localstore.Open(ctx, cfg.StoreDriver, target)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	return New(Options{
		BackendURL:  cfg.BackendURL,
		Currency:    cfg.Currency,
		DeliveryFee: cfg.DeliveryFee,
		HTTPClient:  &http.Client{Timeout: cfg.HTTPTimeout},
		Store:       store,
		Notifier:    n,
		Logger:      log,
	}), nil
}
