package app

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dwikikusuma/shoping-session/internal/cart/domain"
	catalogdomain "github.com/dwikikusuma/shoping-session/internal/catalog/domain"
	"github.com/dwikikusuma/shoping-session/internal/gateway"
	"github.com/dwikikusuma/shoping-session/internal/notify"
	"github.com/dwikikusuma/shoping-session/pkg/logger"
)

type call struct {
	op        string
	token     string
	productID string
	size      string
	qty       int
}

type fakeMirror struct {
	mu      sync.Mutex
	calls   []call
	err     error
	cart    domain.Cart
	cartErr error
	gate    chan struct{}
}

func (f *fakeMirror) record(c call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.err
}

func (f *fakeMirror) AddCartItem(_ context.Context, token, productID, size string) error {
	return f.record(call{op: "add", token: token, productID: productID, size: size})
}

func (f *fakeMirror) UpdateCartItem(_ context.Context, token, productID, size string, qty int) error {
	return f.record(call{op: "update", token: token, productID: productID, size: size, qty: qty})
}

func (f *fakeMirror) GetCart(ctx context.Context, token string) (domain.Cart, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.cartErr != nil {
		return nil, f.cartErr
	}
	return f.cart.Clone(), nil
}

func (f *fakeMirror) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]call, len(f.calls))
	copy(out, f.calls)
	return out
}

type priceMap map[string]int64

func (p priceMap) Price(id string) (catalogdomain.Money, bool) {
	amt, ok := p[id]
	if !ok {
		return catalogdomain.Money{}, false
	}
	return catalogdomain.Money{Currency: "INR", Amount: amt}, true
}

func newEngine(t *testing.T, mirror *fakeMirror, token string) (*Engine, *notify.Recorder) {
	t.Helper()
	rec := &notify.Recorder{}
	e := NewEngine(mirror, priceMap{"p1": 100, "p2": 250}, TokenFunc(func() string { return token }), rec, logger.Discard())
	return e, rec
}

func TestAddItemExample(t *testing.T) {
	defer goleak.VerifyNone(t)
	e, _ := newEngine(t, &fakeMirror{}, "")
	ctx := context.Background()

	require.NoError(t, e.AddItem(ctx, "p1", "M"))
	assert.Equal(t, domain.Cart{"p1": {"M": 1}}, e.Snapshot())
	assert.Equal(t, 1, e.ItemCount())

	require.NoError(t, e.AddItem(ctx, "p1", "M"))
	assert.Equal(t, domain.Cart{"p1": {"M": 2}}, e.Snapshot())
	assert.Equal(t, 2, e.ItemCount())

	require.NoError(t, e.SetQuantity(ctx, "p1", "M", 0))
	assert.Equal(t, domain.Cart{"p1": {"M": 0}}, e.Snapshot())
	assert.Equal(t, 0, e.ItemCount())
	e.Wait()
}

func TestAddItemWithoutSizeIsRejected(t *testing.T) {
	mirror := &fakeMirror{}
	e, rec := newEngine(t, mirror, "tok")
	require.NoError(t, e.AddItem(context.Background(), "p1", "S"))
	e.Wait()
	before := e.Snapshot()

	for _, size := range []string{"", "   "} {
		err := e.AddItem(context.Background(), "p1", size)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
	e.Wait()

	assert.Equal(t, before, e.Snapshot())
	assert.Len(t, mirror.Calls(), 1, "rejected adds are never mirrored")
	assert.True(t, rec.Has(notify.LevelError, "Select Product Size"))
}

func TestItemCountMatchesSumOfAdds(t *testing.T) {
	products := []string{"p1", "p2", "p3", "gone"}
	sizes := []string{"S", "M", "L", "XL"}

	for _, remoteUp := range []bool{true, false} {
		mirror := &fakeMirror{}
		if !remoteUp {
			mirror.err = &gateway.TransportError{Op: gateway.OpAddCartItem, Err: errors.New("connection refused")}
		}
		e, _ := newEngine(t, mirror, "tok")
		rng := rand.New(rand.NewSource(42))

		want := map[[2]string]int{}
		for i := 0; i < 200; i++ {
			p, s := products[rng.Intn(len(products))], sizes[rng.Intn(len(sizes))]
			require.NoError(t, e.AddItem(context.Background(), p, s))
			want[[2]string{p, s}]++
		}
		e.Wait()

		sum := 0
		snap := e.Snapshot()
		for k, n := range want {
			assert.Equal(t, n, snap.Quantity(k[0], k[1]))
			sum += n
		}
		assert.Equal(t, 200, sum)
		assert.Equal(t, sum, e.ItemCount(), "remote up=%v", remoteUp)
	}
}

func TestMirrorOnlyWithToken(t *testing.T) {
	t.Run("no token", func(t *testing.T) {
		mirror := &fakeMirror{}
		e, _ := newEngine(t, mirror, "")
		require.NoError(t, e.AddItem(context.Background(), "p1", "M"))
		require.NoError(t, e.SetQuantity(context.Background(), "p1", "M", 5))
		e.Wait()
		assert.Empty(t, mirror.Calls())
	})

	t.Run("with token", func(t *testing.T) {
		mirror := &fakeMirror{}
		e, _ := newEngine(t, mirror, "tok")
		require.NoError(t, e.AddItem(context.Background(), "p1", "M"))
		e.Wait()
		require.NoError(t, e.SetQuantity(context.Background(), "p1", "M", 5))
		e.Wait()

		assert.Equal(t, []call{
			{op: "add", token: "tok", productID: "p1", size: "M"},
			{op: "update", token: "tok", productID: "p1", size: "M", qty: 5},
		}, mirror.Calls())
	})
}

func TestMirrorFailureWarnsWithoutRollback(t *testing.T) {
	defer goleak.VerifyNone(t)
	mirror := &fakeMirror{err: &gateway.ApplicationError{Op: gateway.OpAddCartItem, Message: "cart locked"}}
	e, rec := newEngine(t, mirror, "tok")

	require.NoError(t, e.AddItem(context.Background(), "p1", "M"))
	require.NoError(t, e.SetQuantity(context.Background(), "p2", "L", 3))
	e.Wait()

	assert.Equal(t, domain.Cart{"p1": {"M": 1}, "p2": {"L": 3}}, e.Snapshot())
	assert.True(t, rec.Has(notify.LevelWarn, "cart locked"))
}

func TestMirrorSurvivesCallerCancel(t *testing.T) {
	mirror := &fakeMirror{}
	e, _ := newEngine(t, mirror, "tok")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, e.AddItem(ctx, "p1", "M"))
	e.Wait()

	assert.Len(t, mirror.Calls(), 1)
}

func TestTotalSkipsUnknownProductsAndNonPositive(t *testing.T) {
	e, _ := newEngine(t, &fakeMirror{}, "")
	ctx := context.Background()

	require.NoError(t, e.SetQuantity(ctx, "p1", "M", 2))  // 200
	require.NoError(t, e.SetQuantity(ctx, "p2", "S", 1))  // 250
	require.NoError(t, e.SetQuantity(ctx, "p2", "L", 0))  // 0
	require.NoError(t, e.SetQuantity(ctx, "p1", "L", -4)) // ignored
	require.NoError(t, e.SetQuantity(ctx, "deleted", "M", 7))

	total := e.Total()
	assert.Equal(t, int64(450), total.Amount)
	assert.Equal(t, "INR", total.Currency)
	assert.Equal(t, 3+7, e.ItemCount())
}

func TestTotalKeepsFractionalPrices(t *testing.T) {
	prices := priceMap{"p1": 1050, "p2": 1949}
	e := NewEngine(&fakeMirror{}, prices, TokenFunc(func() string { return "" }), nil, logger.Discard())
	ctx := context.Background()

	require.NoError(t, e.SetQuantity(ctx, "p1", "M", 2))
	assert.Equal(t, catalogdomain.FromMajor("INR", 21), e.Total())

	require.NoError(t, e.SetQuantity(ctx, "p2", "L", 2))
	assert.Equal(t, int64(2100+3898), e.Total().Amount)
	assert.Equal(t, "INR59.98", e.Total().String())
}

func TestHydrateReplacesCart(t *testing.T) {
	mirror := &fakeMirror{cart: domain.Cart{"p2": {"XL": 3}}}
	e, _ := newEngine(t, mirror, "")
	require.NoError(t, e.AddItem(context.Background(), "p1", "M"))

	require.NoError(t, e.Hydrate(context.Background(), "tok"))

	assert.Equal(t, domain.Cart{"p2": {"XL": 3}}, e.Snapshot())
	assert.Equal(t, 3, e.ItemCount())
}

func TestHydrateFailureLeavesCartUntouched(t *testing.T) {
	cases := map[string]error{
		"transport":   &gateway.TransportError{Op: gateway.OpGetCart, Err: errors.New("dial tcp: refused")},
		"application": &gateway.ApplicationError{Op: gateway.OpGetCart, Message: "Not Authorized Login Again"},
	}
	for name, cause := range cases {
		t.Run(name, func(t *testing.T) {
			e, rec := newEngine(t, &fakeMirror{cartErr: cause}, "")
			require.NoError(t, e.AddItem(context.Background(), "p1", "M"))
			before := e.Snapshot()

			err := e.Hydrate(context.Background(), "tok")

			assert.ErrorIs(t, err, cause)
			assert.Equal(t, before, e.Snapshot())
			assert.Equal(t, name == "transport", len(rec.Notices()) == 1)
		})
	}
}

func TestHydrateSupersededByClear(t *testing.T) {
	mirror := &fakeMirror{cart: domain.Cart{"p1": {"M": 9}}, gate: make(chan struct{})}
	e, _ := newEngine(t, mirror, "")

	done := make(chan error, 1)
	go func() { done <- e.Hydrate(context.Background(), "tok") }()

	// Wait until the hydration has bumped the epoch before clearing.
	require.Eventually(t, func() bool {
		e.mu.RLock()
		defer e.mu.RUnlock()
		return e.epoch == 1
	}, timeout, tick)

	e.Clear()
	close(mirror.gate)

	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Empty(t, e.Snapshot())
}

func TestHydrateWithoutToken(t *testing.T) {
	e, _ := newEngine(t, &fakeMirror{}, "")
	assert.ErrorIs(t, e.Hydrate(context.Background(), ""), ErrNoToken)
}

func TestHydrateKeepsValidEntriesOfPartlyMalformedSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"cartData":{"p1":{"M":2},"p2":{"L":"1"}}}`))
	}))
	t.Cleanup(srv.Close)

	client := gateway.NewClient(srv.URL, gateway.WithHTTPClient(srv.Client()), gateway.WithLogger(logger.Discard()))
	e := NewEngine(client, priceMap{"p1": 100, "p2": 250}, TokenFunc(func() string { return "" }), nil, logger.Discard())
	ctx := context.Background()
	require.NoError(t, e.AddItem(ctx, "p2", "S"))

	require.NoError(t, e.Hydrate(ctx, "tok"))

	assert.Equal(t, domain.Cart{"p1": {"M": 2}}, e.Snapshot())
	assert.Equal(t, 2, e.ItemCount())
}
