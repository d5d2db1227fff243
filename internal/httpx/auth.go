package httpx

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey int

const identityKey ctxKey = 0

// Identity = hasil verifikasi token yang sudah opaque buat core ini.
type Identity struct {
	Role string // staff | admin
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// RequireStaff: bearer token statis -> role. 401 kalau token absen/tidak
// dikenal, 403 kalau role bukan staff/admin.
func RequireStaff(tokens map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			tok, ok := strings.CutPrefix(raw, "Bearer ")
			if !ok || tok == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
				return
			}
			role, ok := tokens[tok]
			if !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unknown token"})
				return
			}
			if role != "staff" && role != "admin" {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient role"})
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, Identity{Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
