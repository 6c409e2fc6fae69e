package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// dummyHandler is a simple handler that returns 200 OK for testing the auth middleware.
var dummyHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
})

func serveAuth(h http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/jsonrpc", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRequireToken_ValidToken(t *testing.T) {
	secret := "test-secret-12345"
	rr := serveAuth(requireToken(secret, false, dummyHandler), "Bearer "+secret)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Fatalf("expected 'ok' body, got %q", rr.Body.String())
	}
}

func TestRequireToken_MissingToken(t *testing.T) {
	rr := serveAuth(requireToken("test-secret-12345", false, dummyHandler), "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["jsonrpc"] != "2.0" {
		t.Fatalf("expected jsonrpc 2.0, got %v", resp["jsonrpc"])
	}
	errObj, ok := resp["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object, got %v", resp["error"])
	}
	if errObj["code"].(float64) != -32600 {
		t.Fatalf("expected error code -32600, got %v", errObj["code"])
	}
	if errObj["message"] != "Unauthorized" {
		t.Fatalf("expected 'Unauthorized', got %v", errObj["message"])
	}
}

func TestRequireToken_WrongToken(t *testing.T) {
	rr := serveAuth(requireToken("test-secret-12345", false, dummyHandler), "Bearer wrong-token")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRequireToken_EmptySecret(t *testing.T) {
	tests := []struct {
		name       string
		allowEmpty bool
		auth       string
		want       int
	}{
		{"rejected by default", false, "Bearer anything", http.StatusUnauthorized},
		{"rejected without header", false, "", http.StatusUnauthorized},
		{"allowed on loopback", true, "", http.StatusOK},
		{"allowed with any header", true, "Bearer anything", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serveAuth(requireToken("", tt.allowEmpty, dummyHandler), tt.auth)
			if rr.Code != tt.want {
				t.Fatalf("got %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestRequireToken_AllowEmptyIgnoredWithSecret(t *testing.T) {
	rr := serveAuth(requireToken("set", true, dummyHandler), "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRequireToken_BearerPrefix(t *testing.T) {
	secret := "my-secret"
	handler := requireToken(secret, false, dummyHandler)

	if rr := serveAuth(handler, secret); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without Bearer prefix, got %d", rr.Code)
	}
	if rr := serveAuth(handler, "Bearer "+secret); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with Bearer prefix, got %d", rr.Code)
	}
}

func TestValidToken(t *testing.T) {
	if !validToken("secret", "Bearer secret") {
		t.Fatal("expected matching tokens to return true")
	}
	if validToken("secret", "Bearer wrong") {
		t.Fatal("expected non-matching tokens to return false")
	}
	if validToken("secret", "") {
		t.Fatal("expected empty auth header to return false")
	}
	if validToken("secret", "secret") {
		t.Fatal("expected missing Bearer prefix to return false")
	}
	if validToken("", "Bearer anything") {
		t.Fatal("expected empty secret to return false")
	}
}
