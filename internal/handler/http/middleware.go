package http

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

// shopperIDKey is the context key for the authenticated shopper ID.
const shopperIDKey contextKey = "shopper_id"

// ShopperIDFromHeader is middleware that reads the X-User-ID header (injected
// by the API gateway after JWT validation) and stores it in the request
// context. If the header is absent the request is rejected with 401.
func ShopperIDFromHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := r.Header.Get("X-User-ID")
		if uid == "" {
			writeUnauthorized(w)
			return
		}
		ctx := context.WithValue(r.Context(), shopperIDKey, uid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// shopperIDFromContext extracts the authenticated shopper ID from the request
// context. Returns the ID and true if present, or empty string and false.
func shopperIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(shopperIDKey).(string)
	return uid, ok && uid != ""
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
