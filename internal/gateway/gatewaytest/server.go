package gatewaytest

import (
	"net/http/httptest"
	"testing"
)

// Start runs a fresh Backend behind an httptest server closed at test end.
func Start(tb testing.TB) (*Backend, *httptest.Server) {
	tb.Helper()
	b := NewBackend()
	srv := httptest.NewServer(b.Router())
	tb.Cleanup(srv.Close)
	return b, srv
}
