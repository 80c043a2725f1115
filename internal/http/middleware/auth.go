package middleware

import (
	"context"
	"net/http"

	"github.com/tendant/simple-tenancy/internal/httputil"
	"github.com/tendant/simple-tenancy/pkg/auth"
	"github.com/tendant/simple-tenancy/pkg/domain"
)

type contextKey string

// PrincipalKey is the context key for the authenticated principal.
const PrincipalKey contextKey = "principal"

// ErrNoPrincipal is reported when a protected handler runs without Authenticate.
var ErrNoPrincipal = domain.NewError(domain.KindUnauthenticated, "access denied: no token provided")

// Authenticator resolves bearer tokens to principals.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Principal, error)
}

// Authorizer makes role decisions for an authenticated principal.
type Authorizer interface {
	Authorize(p domain.Principal, allowed ...domain.Role) error
}

// Gate authenticates requests and guards routes by role. *auth.Gate
// satisfies it.
type Gate interface {
	Authenticator
	Authorizer
}

// Authenticate creates middleware that requires a valid bearer token and
// stores the resolved principal in the request context.
func Authenticate(gate Authenticator, rs *httputil.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// A missing or malformed header is passed through as an empty token.
			token, _ := auth.BearerToken(r.Header.Get("Authorization"))

			p, err := gate.Authenticate(r.Context(), token)
			if err != nil {
				rs.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalKey, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles asks the gate whether the principal holds one of roles. It must
// run after Authenticate.
func RequireRoles(gate Authorizer, rs *httputil.Responder, roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				rs.WriteError(w, r, ErrNoPrincipal)
				return
			}
			if err := gate.Authorize(p, roles...); err != nil {
				rs.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PrincipalFrom extracts the authenticated principal from the context.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(domain.Principal)
	return p, ok
}
