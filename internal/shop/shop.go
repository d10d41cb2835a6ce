// Package shop wires the catalog, cart engine, identity resolver and session
// lifecycle into the one object a front end holds. There are no package
// level singletons: every consumer gets a *Shop.
package shop

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	cartapp "github.com/dwikikusuma/shoping-session/internal/cart/app"
	cartdomain "github.com/dwikikusuma/shoping-session/internal/cart/domain"
	catalogapp "github.com/dwikikusuma/shoping-session/internal/catalog/app"
	catalogdomain "github.com/dwikikusuma/shoping-session/internal/catalog/domain"
	checkoutapp "github.com/dwikikusuma/shoping-session/internal/checkout/app"
	checkoutdomain "github.com/dwikikusuma/shoping-session/internal/checkout/domain"
	checkoutadapter "github.com/dwikikusuma/shoping-session/internal/checkout/infra/adapter"
	"github.com/dwikikusuma/shoping-session/internal/gateway"
	identityapp "github.com/dwikikusuma/shoping-session/internal/identity/app"
	identitydomain "github.com/dwikikusuma/shoping-session/internal/identity/domain"
	"github.com/dwikikusuma/shoping-session/internal/localstore"
	"github.com/dwikikusuma/shoping-session/internal/notify"
	sessionapp "github.com/dwikikusuma/shoping-session/internal/session/app"
	sessiondomain "github.com/dwikikusuma/shoping-session/internal/session/domain"
)

type Options struct {
	BackendURL string
	Currency   string

	// DeliveryFee is in major units, as configured.
	DeliveryFee int64

	HTTPClient *http.Client
	Store      localstore.Store
	Notifier   notify.Notifier
	Logger     *slog.Logger
}

type Shop struct {
	id       string
	currency string
	log      *slog.Logger
	store    localstore.Store

	catalog  *catalogapp.Service
	cart     *cartapp.Engine
	identity *identityapp.Resolver
	session  *sessionapp.Lifecycle
	checkout *checkoutapp.Service
}

func New(opts Options) *Shop {
	id := uuid.NewString()

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("session_id", id))

	n := opts.Notifier
	if n == nil {
		n = notify.Log{Logger: log}
	}
	store := opts.Store
	if store == nil {
		store = localstore.NewMemoryStore()
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}

	gw := gateway.NewClient(opts.BackendURL,
		gateway.WithHTTPClient(hc),
		gateway.WithLogger(log.With(slog.String("component", "gateway"))),
		gateway.WithCurrency(opts.Currency),
	)

	s := &Shop{id: id, currency: opts.Currency, log: log, store: store}

	s.catalog = catalogapp.NewService(gw, n, log.With(slog.String("component", "catalog")))
	s.cart = cartapp.NewEngine(gw, s.catalog, cartapp.TokenFunc(s.Token), n, log.With(slog.String("component", "cart")))
	s.identity = identityapp.NewResolver(gw, localstore.NewProfileCache(store), n, log.With(slog.String("component", "identity")))
	s.session = sessionapp.NewLifecycle(s.cart, s.identity, localstore.NewTokenStore(store), log.With(slog.String("component", "session")))
	s.checkout = checkoutapp.NewService(
		checkoutadapter.NewCartEngineReader(s.cart),
		checkoutadapter.NewCatalogServiceReader(s.catalog),
		opts.Currency, opts.DeliveryFee*catalogdomain.MinorUnits, 0,
	)
	return s
}

// Start loads the catalog and restores any stored session in parallel. A
// catalog that cannot be loaded is reported but does not fail Start.
func (s *Shop) Start(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		_ = s.catalog.Refresh(ctx)
		return nil
	})
	g.Go(func() error {
		return s.session.Start(ctx)
	})
	return g.Wait()
}

// Close waits for in-flight cart mirrors and releases the local store.
func (s *Shop) Close() error {
	s.cart.Wait()
	return s.store.Close()
}

func (s *Shop) ID() string { return s.id }

func (s *Shop) RefreshProducts(ctx context.Context) error { return s.catalog.Refresh(ctx) }

func (s *Shop) Products() []catalogdomain.Product { return s.catalog.Products() }

func (s *Shop) Product(id string) (catalogdomain.Product, error) { return s.catalog.GetProduct(id) }

func (s *Shop) Loading() bool { return s.catalog.Loading() }

func (s *Shop) Currency() string { return s.currency }

func (s *Shop) DeliveryFee() checkoutdomain.Money { return s.checkout.DeliveryFee() }

func (s *Shop) AddToCart(ctx context.Context, productID, size string) error {
	return s.cart.AddItem(ctx, productID, size)
}

func (s *Shop) UpdateQuantity(ctx context.Context, productID, size string, qty int) error {
	return s.cart.SetQuantity(ctx, productID, size, qty)
}

func (s *Shop) CartItems() cartdomain.Cart { return s.cart.Snapshot() }

func (s *Shop) CartCount() int { return s.cart.ItemCount() }

func (s *Shop) CartTotal() catalogdomain.Money { return s.cart.Total() }

func (s *Shop) Quote(ctx context.Context) (checkoutdomain.Quote, error) { return s.checkout.Quote(ctx) }

// WaitForSync blocks until every cart mirror issued so far has returned.
func (s *Shop) WaitForSync() { s.cart.Wait() }

func (s *Shop) Login(ctx context.Context, token string) error { return s.session.Login(ctx, token) }

func (s *Shop) Logout(ctx context.Context) error { return s.session.Logout(ctx) }

func (s *Shop) Token() string { return s.session.Token() }

func (s *Shop) State() sessiondomain.State { return s.session.State() }

func (s *Shop) User() (identitydomain.User, bool) { return s.session.CurrentUser() }

func (s *Shop) UpdateProfile(ctx context.Context, patch identitydomain.ProfilePatch) (identityapp.UpdateResult, error) {
	return s.session.UpdateProfile(ctx, patch)
}
