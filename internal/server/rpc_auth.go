package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// requireToken guards the RPC and WebSocket endpoints. A request passes when
// its bearer token matches secret; rejected requests get a JSON-RPC error
// object with status 401 so jrpc2 clients can decode it.
//
// allowEmpty is set by the daemon only when rpc.secret is empty and the
// endpoint listens on a loopback address. In that mode every request passes.
// With an empty secret and allowEmpty unset, every request is rejected.
func requireToken(secret string, allowEmpty bool, next http.Handler) http.Handler {
	noAuth := secret == "" && allowEmpty
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if noAuth || validToken(secret, r.Header.Get("Authorization")) {
			next.ServeHTTP(w, r)
			return
		}
		writeUnauthorized(w)
	})
}

// unauthorizedBody is the JSON-RPC error sent with every 401.
var unauthorizedBody = map[string]any{
	"jsonrpc": "2.0",
	"error":   map[string]any{"code": -32600, "message": "Unauthorized"},
	"id":      nil,
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(unauthorizedBody)
}

// validToken reports whether authHeader is "Bearer <secret>". An empty
// secret never matches.
func validToken(secret, authHeader string) bool {
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if secret == "" || !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}
