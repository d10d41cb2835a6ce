package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dwikikusuma/shoping-session/internal/cart/domain"
	catalogdomain "github.com/dwikikusuma/shoping-session/internal/catalog/domain"
	"github.com/dwikikusuma/shoping-session/internal/gateway"
	"github.com/dwikikusuma/shoping-session/internal/notify"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNoToken      = errors.New("no session token")
	// ErrSuperseded is returned by Hydrate when a Clear or a newer Hydrate
	// ran while the snapshot was in flight; the snapshot is dropped.
	ErrSuperseded = errors.New("hydration superseded")
)

const msgSelectSize = "Select Product Size"

// Engine owns the in-memory cart. Mutations apply locally first; when a
// session token is present they are then mirrored to the remote service in
// the background. A failed mirror never rolls the local cart back.
type Engine struct {
	mirror Mirror
	prices PriceBook
	tokens TokenSource
	notify notify.Notifier
	log    *slog.Logger

	mu    sync.RWMutex
	cart  domain.Cart
	epoch uint64

	inflight sync.WaitGroup
}

func NewEngine(mirror Mirror, prices PriceBook, tokens TokenSource, n notify.Notifier, log *slog.Logger) *Engine {
	if n == nil {
		n = notify.Discard{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		mirror: mirror,
		prices: prices,
		tokens: tokens,
		notify: n,
		log:    log,
		cart:   domain.New(),
	}
}

func (e *Engine) AddItem(ctx context.Context, productID, size string) error {
	if strings.TrimSpace(size) == "" {
		notify.Error(e.notify, msgSelectSize)
		return fmt.Errorf("%w: size is required", ErrInvalidInput)
	}
	if strings.TrimSpace(productID) == "" {
		return fmt.Errorf("%w: product id is required", ErrInvalidInput)
	}

	e.mu.Lock()
	qty := e.cart.Add(productID, size)
	e.mu.Unlock()

	e.log.Debug("cart item added", slog.String("product_id", productID), slog.String("size", size), slog.Int("quantity", qty))

	if token := e.token(); token != "" {
		e.mirrorAsync(ctx, "add", func(ctx context.Context) error {
			return e.mirror.AddCartItem(ctx, token, productID, size)
		})
	}
	return nil
}

// SetQuantity overwrites the stored quantity as given, zero and negative
// values included. The entry is never pruned.
func (e *Engine) SetQuantity(ctx context.Context, productID, size string, qty int) error {
	e.mu.Lock()
	e.cart.Set(productID, size, qty)
	e.mu.Unlock()

	e.log.Debug("cart quantity set", slog.String("product_id", productID), slog.String("size", size), slog.Int("quantity", qty))

	if token := e.token(); token != "" {
		e.mirrorAsync(ctx, "update", func(ctx context.Context) error {
			return e.mirror.UpdateCartItem(ctx, token, productID, size, qty)
		})
	}
	return nil
}

// ItemCount sums the positive quantities.
func (e *Engine) ItemCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cart.Count()
}

// Total prices every positive line against the catalog. Products the catalog
// no longer knows contribute nothing.
func (e *Engine) Total() catalogdomain.Money {
	var total catalogdomain.Money
	for _, l := range e.Snapshot().Lines() {
		if l.Quantity <= 0 {
			continue
		}
		price, ok := e.prices.Price(l.ProductID)
		if !ok {
			continue
		}
		total = total.Add(price.Mul(l.Quantity))
	}
	return total
}

// Hydrate replaces the local cart with the server's copy for token. On
// failure the local cart is left exactly as it was.
func (e *Engine) Hydrate(ctx context.Context, token string) error {
	if token == "" {
		return ErrNoToken
	}

	e.mu.Lock()
	e.epoch++
	epoch := e.epoch
	e.mu.Unlock()

	remote, err := e.mirror.GetCart(ctx, token)
	if err != nil {
		e.log.Warn("cart hydration failed", slog.Any("err", err))
		if gateway.IsTransport(err) {
			notify.Error(e.notify, gateway.Message(err))
		}
		return fmt.Errorf("hydrate cart: %w", err)
	}
	if remote == nil {
		remote = domain.New()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch != epoch {
		e.log.Debug("dropping stale cart snapshot")
		return ErrSuperseded
	}
	e.cart = remote.Clone()

	e.log.Debug("cart hydrated", slog.Int("items", e.cart.Count()))
	return nil
}

// Clear empties the cart and invalidates any hydration in flight.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.epoch++
	e.cart = domain.New()
	e.mu.Unlock()
}

func (e *Engine) Snapshot() domain.Cart {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cart.Clone()
}

// Wait blocks until every in-flight mirror call has returned.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

func (e *Engine) token() string {
	if e.tokens == nil {
		return ""
	}
	return e.tokens.Token()
}

// mirrorAsync runs fn detached from the caller's cancellation. Acks are
// ignored; only failures surface, as warnings.
func (e *Engine) mirrorAsync(ctx context.Context, op string, fn func(context.Context) error) {
	mctx := context.WithoutCancel(ctx)
	e.inflight.Go(func() {
		if err := fn(mctx); err != nil {
			e.log.Warn("cart mirror failed", slog.String("op", op), slog.Any("err", err))
			notify.Warn(e.notify, gateway.Message(err))
		}
	})
}
