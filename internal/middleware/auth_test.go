package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dsemenov/remindd/internal/request"
	"github.com/dsemenov/remindd/internal/services/token"
)

const testAuthSecret = "test-auth-secret"

func TestAuthAcceptsValidToken(t *testing.T) {
	t.Parallel()

	signed, err := token.Mint(testAuthSecret, "gateway", 42, time.Minute)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	var gotOwner int64
	handler := Auth(token.NewVerifier(testAuthSecret))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := request.ClaimsFromContext(r)
		if claims == nil {
			t.Fatal("claims missing from request context")
		}
		gotOwner = claims.OwnerID
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest("GET", "/api/v1/reminders", nil)
	r.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if gotOwner != 42 {
		t.Errorf("OwnerID = %d, want 42", gotOwner)
	}
}

func TestAuthRejectsBadRequests(t *testing.T) {
	t.Parallel()

	expired, err := token.Mint(testAuthSecret, "gateway", 42, -time.Minute)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	foreign, err := token.Mint("some-other-secret", "gateway", 42, time.Minute)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"malformed token", "Bearer not.a.token"},
		{"expired token", "Bearer " + expired},
		{"wrong secret", "Bearer " + foreign},
	}

	handler := Auth(token.NewVerifier(testAuthSecret))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest("GET", "/api/v1/reminders", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
		})
	}
}
