package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/cory-johannsen/fitquest/internal/auth"
	"github.com/cory-johannsen/fitquest/internal/storage/postgres"
)

type claimsKey struct{}

func withClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// claimsFrom returns the session claims stored by authenticate.
func claimsFrom(ctx context.Context) auth.Claims {
	c, _ := ctx.Value(claimsKey{}).(auth.Claims)
	return c
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return token
}

// authenticate admits requests carrying a valid, unrevoked bearer token.
func (h *handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := h.Tokens.Parse(bearerToken(r))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if err := h.Sessions.Verify(r.Context(), claims); err != nil {
			h.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claimsFrom(r.Context()).Role != postgres.RoleAdmin {
			writeJSON(w, http.StatusForbidden, errorBody{Error: "admin role required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requirePlayer admits sessions whose user has created a player.
func requirePlayer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claimsFrom(r.Context()).PlayerID == nil {
			writeJSON(w, http.StatusForbidden, errorBody{Error: errNoPlayer.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// playerID returns the caller's player id. Only valid behind requirePlayer.
func playerID(ctx context.Context) int64 {
	return *claimsFrom(ctx).PlayerID
}
