// Package gatewaytest provides an in-memory implementation of the remote
// shop service. It speaks the same envelope protocol as the real backend and
// supports fault injection, so it backs both tests and cmd/devbackend.
package gatewaytest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	cartdomain "github.com/dwikikusuma/shoping-session/internal/cart/domain"
	"github.com/dwikikusuma/shoping-session/internal/gateway"
)

const notAuthorized = "Not Authorized Login Again"

var DefaultSecret = []byte("dev-backend-secret")

type Backend struct {
	mu sync.Mutex

	secret   []byte
	products []gateway.ProductDTO
	users    map[string]gateway.UserDTO
	carts    map[string]cartdomain.Cart

	down    bool
	rejects map[string]string
	holds   map[string]chan struct{}
	calls   map[string]int
}

func NewBackend() *Backend {
	return &Backend{
		secret:  DefaultSecret,
		users:   map[string]gateway.UserDTO{},
		carts:   map[string]cartdomain.Cart{},
		rejects: map[string]string{},
		holds:   map[string]chan struct{}{},
		calls:   map[string]int{},
	}
}

// Seed is the YAML layout accepted by LoadSeed.
type Seed struct {
	Products []gateway.ProductDTO `yaml:"products"`
	Users    []gateway.UserDTO    `yaml:"users"`
}

func (b *Backend) LoadSeed(r io.Reader) error {
	var seed Seed
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode seed: %w", err)
	}
	for _, p := range seed.Products {
		b.AddProduct(p)
	}
	for _, u := range seed.Users {
		b.PutUser(u)
	}
	return nil
}

// AddProduct appends p to the catalog, assigning an id when missing.
func (b *Backend) AddProduct(p gateway.ProductDTO) gateway.ProductDTO {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Date == 0 {
		p.Date = time.Now().UnixMilli()
	}
	b.products = append(b.products, p)
	return p
}

// PutUser stores u, assigning an id when missing.
func (b *Backend) PutUser(u gateway.UserDTO) gateway.UserDTO {
	b.mu.Lock()
	defer b.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.JoinDate == "" {
		u.JoinDate = time.Now().UTC().Format(time.RFC3339)
	}
	b.users[u.ID] = u
	return u
}

func (b *Backend) Users() []gateway.UserDTO {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]gateway.UserDTO, 0, len(b.users))
	for _, u := range b.users {
		out = append(out, u)
	}
	return out
}

func (b *Backend) User(id string) (gateway.UserDTO, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[id]
	return u, ok
}

// IssueToken mints a token for userID signed with the backend secret.
func (b *Backend) IssueToken(userID string, iat time.Time) string {
	return SignToken(b.secret, userID, iat)
}

// SignToken builds an HS256 JWT carrying the id/iat claims the client reads.
func SignToken(secret []byte, userID string, iat time.Time) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"iat": iat.Unix(),
	})
	signed, err := tok.SignedString(secret)
	if err != nil {
		panic(fmt.Sprintf("sign token: %v", err))
	}
	return signed
}

func (b *Backend) Cart(userID string) cartdomain.Cart {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.carts[userID].Clone()
}

func (b *Backend) SetCart(userID string, c cartdomain.Cart) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.carts[userID] = c.Clone()
}

// SetDown makes every endpoint answer 503.
func (b *Backend) SetDown(down bool) {
	b.mu.Lock()
	b.down = down
	b.mu.Unlock()
}

// Reject makes op answer success=false with msg.
func (b *Backend) Reject(op, msg string) {
	b.mu.Lock()
	b.rejects[op] = msg
	b.mu.Unlock()
}

// Hold blocks requests for op until the returned release func is called.
func (b *Backend) Hold(op string) (release func()) {
	ch := make(chan struct{})
	b.mu.Lock()
	b.holds[op] = ch
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			if b.holds[op] == ch {
				delete(b.holds, op)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Backend) ClearFaults() {
	b.mu.Lock()
	b.down = false
	b.rejects = map[string]string{}
	b.mu.Unlock()
}

// Calls returns how many requests reached op, faults included.
func (b *Backend) Calls(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

func (b *Backend) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Route("/api", func(r chi.Router) {
		r.Get("/product/list", b.wrap(gateway.OpListProducts, false, b.listProducts))
		r.Post("/cart/add", b.wrap(gateway.OpAddCartItem, true, b.addToCart))
		r.Post("/cart/update", b.wrap(gateway.OpUpdateCart, true, b.updateCart))
		r.Post("/cart/get", b.wrap(gateway.OpGetCart, true, b.getCart))
		r.Post("/user/profile", b.wrap(gateway.OpGetProfile, true, b.getProfile))
		r.Post("/user/update-profile", b.wrap(gateway.OpUpdateProfile, true, b.updateProfile))
	})
	return r
}

type authedHandler func(w http.ResponseWriter, r *http.Request, userID string)

func (b *Backend) wrap(op string, auth bool, h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[op]++
		hold := b.holds[op]
		b.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}

		b.mu.Lock()
		down := b.down
		msg, rejected := b.rejects[op]
		b.mu.Unlock()

		if down {
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}
		if rejected {
			writeError(w, http.StatusOK, msg)
			return
		}

		var userID string
		if auth {
			id, err := b.userFromToken(r.Header.Get(gateway.TokenHeader))
			if err != nil {
				writeError(w, http.StatusOK, notAuthorized)
				return
			}
			userID = id
		}
		h(w, r, userID)
	}
}

func (b *Backend) userFromToken(raw string) (string, error) {
	if raw == "" {
		return "", errors.New("missing token")
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return b.secret, nil
	})
	if err != nil {
		return "", err
	}
	id, _ := claims["id"].(string)
	if id == "" {
		return "", errors.New("token has no id")
	}
	return id, nil
}

func (b *Backend) listProducts(w http.ResponseWriter, _ *http.Request, _ string) {
	b.mu.Lock()
	products := make([]gateway.ProductDTO, len(b.products))
	copy(products, b.products)
	b.mu.Unlock()

	writeSuccess(w, map[string]any{"products": products})
}

func (b *Backend) addToCart(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		ItemID string `json:"itemId"`
		Size   string `json:"size"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	b.mu.Lock()
	c := b.cartLocked(userID)
	c.Add(req.ItemID, req.Size)
	b.mu.Unlock()

	writeSuccess(w, map[string]any{"message": "Added To Cart"})
}

func (b *Backend) updateCart(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		ItemID   string `json:"itemId"`
		Size     string `json:"size"`
		Quantity int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	b.mu.Lock()
	c := b.cartLocked(userID)
	c.Set(req.ItemID, req.Size, req.Quantity)
	b.mu.Unlock()

	writeSuccess(w, map[string]any{"message": "Cart Updated"})
}

func (b *Backend) getCart(w http.ResponseWriter, _ *http.Request, userID string) {
	b.mu.Lock()
	c := b.cartLocked(userID).Clone()
	b.mu.Unlock()

	writeSuccess(w, map[string]any{"cartData": c})
}

func (b *Backend) getProfile(w http.ResponseWriter, _ *http.Request, userID string) {
	u, ok := b.User(userID)
	if !ok {
		writeError(w, http.StatusOK, "User not found")
		return
	}
	writeSuccess(w, map[string]any{"user": u})
}

func (b *Backend) updateProfile(w http.ResponseWriter, r *http.Request, userID string) {
	var patch struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	b.mu.Lock()
	u, ok := b.users[userID]
	if ok && patch.Name != "" {
		u.Name = patch.Name
		b.users[userID] = u
	}
	b.mu.Unlock()

	if !ok {
		writeError(w, http.StatusOK, "User not found")
		return
	}
	writeSuccess(w, map[string]any{"message": "Profile updated successfully", "user": u})
}

func (b *Backend) cartLocked(userID string) cartdomain.Cart {
	c, ok := b.carts[userID]
	if !ok {
		c = cartdomain.New()
		b.carts[userID] = c
	}
	return c
}

func writeSuccess(w http.ResponseWriter, fields map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "message": msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
