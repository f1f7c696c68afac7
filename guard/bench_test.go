package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonwraymond/tokenops/token"
)

func newBenchGuard(b *testing.B) *Guard {
	b.Helper()
	s := token.NewMemoryStorage()
	if err := s.Store(context.Background(), &token.Token{
		Value:     "tok-bench",
		Kind:      token.KindAccess,
		ClientID:  "app",
		Scope:     token.Scope{"read", "write"},
		ExpiresAt: time.Now().Add(time.Hour),
	}); err != nil {
		b.Fatal(err)
	}
	return New(Config{Storage: s})
}

// BenchmarkGuard_RequireScope measures a granted header token check.
func BenchmarkGuard_RequireScope(b *testing.B) {
	g := newBenchGuard(b)
	r := bearerRequest("tok-bench")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := g.RequireScope(r, "read"); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkGuard_Denied measures an insufficient scope rejection.
func BenchmarkGuard_Denied(b *testing.B) {
	g := newBenchGuard(b)
	r := bearerRequest("tok-bench")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = g.RequireScope(r, "admin")
	}
}

// BenchmarkMiddleware_Query measures the middleware with a query token.
func BenchmarkMiddleware_Query(b *testing.B) {
	h := newBenchGuard(b).Middleware("read")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, resourceURL+"?access_token=tok-bench", nil))
	}
}
