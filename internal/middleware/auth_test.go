package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func signToken(t *testing.T, subject string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func scopeProbe(gotScope *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope, _ := GetOwnerScope(r.Context())
		*gotScope = scope
		w.WriteHeader(http.StatusOK)
	})
}

func TestOwnerScopeFromBearerToken(t *testing.T) {
	var gotScope string
	handler := OwnerScopeMiddleware(testSecret, false, zap.NewNop())(scopeProbe(&gotScope))

	req := httptest.NewRequest("GET", "/api/products", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-42", time.Now().Add(time.Hour)))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotScope != "user:user-42" {
		t.Errorf("scope = %q, want user:user-42", gotScope)
	}
}

func TestOwnerScopeRejectsBadTokens(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "expired token", header: "Bearer " + ""},
		{name: "malformed header", header: "Token abc"},
		{name: "garbage token", header: "Bearer not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := tt.header
			if tt.name == "expired token" {
				header = "Bearer " + signToken(t, "user-42", time.Now().Add(-time.Hour))
			}

			var gotScope string
			handler := OwnerScopeMiddleware(testSecret, true, zap.NewNop())(scopeProbe(&gotScope))

			req := httptest.NewRequest("GET", "/api/products", nil)
			req.Header.Set("Authorization", header)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
			if gotScope != "" {
				t.Errorf("handler ran with scope %q despite bad credentials", gotScope)
			}
		})
	}
}

func TestOwnerScopeRejectsTokenWithoutSubject(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	var gotScope string
	handler := OwnerScopeMiddleware(testSecret, false, zap.NewNop())(scopeProbe(&gotScope))

	req := httptest.NewRequest("GET", "/api/products", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAnonymousFallback(t *testing.T) {
	tests := []struct {
		name           string
		allowAnonymous bool
		deviceID       string
		wantStatus     int
		wantScope      string
	}{
		{
			name:           "device id accepted when anonymous allowed",
			allowAnonymous: true,
			deviceID:       "d3adb33f",
			wantStatus:     http.StatusOK,
			wantScope:      "anon:d3adb33f",
		},
		{
			name:           "no identity at all",
			allowAnonymous: true,
			wantStatus:     http.StatusUnauthorized,
		},
		{
			name:           "device id ignored when anonymous disabled",
			allowAnonymous: false,
			deviceID:       "d3adb33f",
			wantStatus:     http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotScope string
			handler := OwnerScopeMiddleware(testSecret, tt.allowAnonymous, zap.NewNop())(scopeProbe(&gotScope))

			req := httptest.NewRequest("GET", "/api/products", nil)
			if tt.deviceID != "" {
				req.Header.Set(DeviceIDHeader, tt.deviceID)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if gotScope != tt.wantScope {
				t.Errorf("scope = %q, want %q", gotScope, tt.wantScope)
			}
		})
	}
}
