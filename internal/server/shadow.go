package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// shadowHeader identifies anonymous sessions so usage can be attributed
// without an authenticated user.
const shadowHeader = "X-Shadow-ID"

type shadowKey struct{}

// shadowID propagates the caller's shadow session id, minting one when the
// header is absent and echoing it back so the client can persist it.
func shadowID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(shadowHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(shadowHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), shadowKey{}, id)))
	})
}

func shadowIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(shadowKey{}).(string); ok {
		return id
	}
	return ""
}
