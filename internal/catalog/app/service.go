package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/dwikikusuma/shoping-session/internal/catalog/domain"
	"github.com/dwikikusuma/shoping-session/internal/gateway"
	"github.com/dwikikusuma/shoping-session/internal/notify"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// Service is the read-only product cache. It is filled by Refresh and only
// ever read by the cart.
type Service struct {
	src    ProductSource
	notify notify.Notifier
	log    *slog.Logger

	mu       sync.RWMutex
	products []domain.Product
	byID     map[string]domain.Product
	loading  bool
}

func NewService(src ProductSource, n notify.Notifier, log *slog.Logger) *Service {
	if n == nil {
		n = notify.Discard{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		src:    src,
		notify: n,
		log:    log,
		byID:   map[string]domain.Product{},
	}
}

// Refresh replaces the cached list with the remote one, newest first. On
// failure the previous list is kept.
func (s *Service) Refresh(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	products, err := s.src.ListProducts(ctx)
	if err != nil {
		s.log.Warn("catalog refresh failed", slog.Any("err", err))
		notify.Error(s.notify, gateway.Message(err))
		return err
	}

	reversed := make([]domain.Product, len(products))
	byID := make(map[string]domain.Product, len(products))
	for i, p := range products {
		reversed[len(products)-1-i] = p
		byID[p.ID] = p
	}

	s.mu.Lock()
	s.products = reversed
	s.byID = byID
	s.mu.Unlock()

	s.log.Debug("catalog refreshed", slog.Int("products", len(reversed)))
	return nil
}

func (s *Service) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out
}

func (s *Service) GetProduct(id string) (domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Product{}, ErrInvalidInput
	}
	s.mu.RLock()
	p, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return domain.Product{}, ErrNotFound
	}
	return p, nil
}

// Price reports ok=false for products missing from the catalog.
func (s *Service) Price(id string) (domain.Money, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return domain.Money{}, false
	}
	return p.Price, true
}

func (s *Service) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Service) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}
