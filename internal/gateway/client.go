// Package gateway talks to the remote product/cart/user service.
//
// Every call maps to one request. The client never retries and applies no
// timeout of its own; that belongs to the *http.Client it is given. Callers
// decide what a failure means.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"

	cartdomain "github.com/dwikikusuma/shoping-session/internal/cart/domain"
	catalogdomain "github.com/dwikikusuma/shoping-session/internal/catalog/domain"
	identitydomain "github.com/dwikikusuma/shoping-session/internal/identity/domain"
	"github.com/tidwall/gjson"
)

const TokenHeader = "token"

const (
	OpListProducts  = "list_products"
	OpAddCartItem   = "add_cart_item"
	OpUpdateCart    = "update_cart_item"
	OpGetCart       = "get_cart"
	OpGetProfile    = "get_profile"
	OpUpdateProfile = "update_profile"
)

const (
	PathListProducts  = "/api/product/list"
	PathAddCartItem   = "/api/cart/add"
	PathUpdateCart    = "/api/cart/update"
	PathGetCart       = "/api/cart/get"
	PathGetProfile    = "/api/user/profile"
	PathUpdateProfile = "/api/user/update-profile"
)

type Client struct {
	baseURL  string
	http     *http.Client
	log      *slog.Logger
	currency string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithCurrency tags decoded prices. The wire format carries bare numbers.
func WithCurrency(cur string) Option {
	return func(c *Client) { c.currency = cur }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListProducts(ctx context.Context) ([]catalogdomain.Product, error) {
	res, err := c.do(ctx, OpListProducts, http.MethodGet, PathListProducts, "", nil)
	if err != nil {
		return nil, err
	}

	var dtos []ProductDTO
	if raw := res.Get("products").Raw; raw != "" {
		if err := json.Unmarshal([]byte(raw), &dtos); err != nil {
			return nil, &TransportError{Op: OpListProducts, Err: fmt.Errorf("decode products: %w", err)}
		}
	}

	out := make([]catalogdomain.Product, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toDomain(c.currency))
	}
	return out, nil
}

func (c *Client) AddCartItem(ctx context.Context, token, productID, size string) error {
	_, err := c.do(ctx, OpAddCartItem, http.MethodPost, PathAddCartItem, token, addItemRequest{ItemID: productID, Size: size})
	return err
}

func (c *Client) UpdateCartItem(ctx context.Context, token, productID, size string, qty int) error {
	_, err := c.do(ctx, OpUpdateCart, http.MethodPost, PathUpdateCart, token, updateItemRequest{ItemID: productID, Size: size, Quantity: qty})
	return err
}

func (c *Client) GetCart(ctx context.Context, token string) (cartdomain.Cart, error) {
	res, err := c.do(ctx, OpGetCart, http.MethodPost, PathGetCart, token, struct{}{})
	if err != nil {
		return nil, err
	}

	return c.decodeCart(res.Get("cartData")), nil
}

// decodeCart keeps every entry whose quantity is a whole number and drops the
// rest, so one bad entry cannot cost the whole snapshot.
func (c *Client) decodeCart(data gjson.Result) cartdomain.Cart {
	cart := cartdomain.New()
	if !data.IsObject() {
		if data.Exists() && data.Type != gjson.Null {
			c.log.Warn("cart snapshot is not an object", slog.String("raw", data.Raw))
		}
		return cart
	}

	data.ForEach(func(id, sizes gjson.Result) bool {
		if !sizes.IsObject() {
			c.log.Warn("dropping malformed cart entry", slog.String("product_id", id.String()), slog.String("raw", sizes.Raw))
			return true
		}
		sizes.ForEach(func(size, qty gjson.Result) bool {
			if qty.Type != gjson.Number || qty.Num != math.Trunc(qty.Num) {
				c.log.Warn("dropping malformed cart entry",
					slog.String("product_id", id.String()), slog.String("size", size.String()), slog.String("raw", qty.Raw))
				return true
			}
			cart.Set(id.String(), size.String(), int(qty.Int()))
			return true
		})
		return true
	})
	return cart
}

func (c *Client) GetProfile(ctx context.Context, token string) (identitydomain.User, error) {
	res, err := c.do(ctx, OpGetProfile, http.MethodPost, PathGetProfile, token, struct{}{})
	if err != nil {
		return identitydomain.User{}, err
	}
	return decodeUser(OpGetProfile, res)
}

// UpdateProfile returns the server's record and its confirmation message.
func (c *Client) UpdateProfile(ctx context.Context, token string, patch identitydomain.ProfilePatch) (identitydomain.User, string, error) {
	res, err := c.do(ctx, OpUpdateProfile, http.MethodPost, PathUpdateProfile, token, patch)
	if err != nil {
		return identitydomain.User{}, "", err
	}
	u, err := decodeUser(OpUpdateProfile, res)
	if err != nil {
		return identitydomain.User{}, "", err
	}
	return u, res.Get("message").String(), nil
}

func decodeUser(op string, res gjson.Result) (identitydomain.User, error) {
	raw := res.Get("user").Raw
	if raw == "" || raw == "null" {
		return identitydomain.User{}, &TransportError{Op: op, Err: fmt.Errorf("response has no user")}
	}
	var dto UserDTO
	if err := json.Unmarshal([]byte(raw), &dto); err != nil {
		return identitydomain.User{}, &TransportError{Op: op, Err: fmt.Errorf("decode user: %w", err)}
	}
	return dto.toDomain(), nil
}

// do issues one request and classifies the outcome. Network errors, 5xx
// answers and bodies that are not JSON envelopes are transport failures; an
// envelope with success=false is an application failure.
func (c *Client) do(ctx context.Context, op, method, path, token string, body any) (gjson.Result, error) {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return gjson.Result{}, fmt.Errorf("%s: encode request: %w", op, err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return gjson.Result{}, &TransportError{Op: op, Err: err}
	}
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(TokenHeader, token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("gateway request failed", slog.String("op", op), slog.Any("err", err))
		return gjson.Result{}, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, &TransportError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return gjson.Result{}, &TransportError{Op: op, Err: fmt.Errorf("server answered %d", resp.StatusCode)}
	}

	if !gjson.ValidBytes(payload) {
		return gjson.Result{}, &TransportError{Op: op, Err: fmt.Errorf("unexpected response body (status %d)", resp.StatusCode)}
	}

	res := gjson.ParseBytes(payload)
	if !res.Get("success").Bool() {
		msg := res.Get("message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		c.log.Debug("gateway request rejected", slog.String("op", op), slog.String("message", msg))
		return gjson.Result{}, &ApplicationError{Op: op, Message: msg}
	}

	return res, nil
}
