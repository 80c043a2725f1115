package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-tenancy/internal/httputil"
	"github.com/tendant/simple-tenancy/pkg/auth"
	"github.com/tendant/simple-tenancy/pkg/domain"
)

type stubGate struct {
	principal domain.Principal
	err       error
	gotToken  string
}

// denyAll refuses every role check.
type denyAll struct{}

func (denyAll) Authorize(domain.Principal, ...domain.Role) error {
	return domain.Forbidden("access denied: branch closed")
}

func (g *stubGate) Authenticate(_ context.Context, token string) (domain.Principal, error) {
	g.gotToken = token
	return g.principal, g.err
}

func testResponder() *httputil.Responder {
	return httputil.NewResponder(slog.New(slog.NewTextHandler(io.Discard, nil)), false)
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body["error"]
}

func TestAuthenticate(t *testing.T) {
	owner := domain.Principal{ID: uuid.New(), Role: domain.RoleOwner, TenantID: uuid.New()}

	t.Run("stores principal", func(t *testing.T) {
		gate := &stubGate{principal: owner}
		var got domain.Principal
		handler := Authenticate(gate, testResponder())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = PrincipalFrom(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/branches", nil)
		req.Header.Set("Authorization", "Bearer abc.def")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "abc.def", gate.gotToken)
		assert.Equal(t, owner, got)
	})

	t.Run("gate errors map to status", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			want int
		}{
			{"unauthenticated", domain.NewError(domain.KindUnauthenticated, "invalid or expired token"), http.StatusUnauthorized},
			{"principal not found", domain.NewError(domain.KindPrincipalNotFound, "user not found"), http.StatusUnauthorized},
			{"store failure", domain.Unexpected(errors.New("db down"), "failed to resolve user"), http.StatusInternalServerError},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				handler := Authenticate(&stubGate{err: tt.err}, testResponder())(okHandler())
				req := httptest.NewRequest(http.MethodGet, "/", nil)
				req.Header.Set("Authorization", "Bearer x")
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)
				assert.Equal(t, tt.want, w.Code)
			})
		}
	})

	t.Run("malformed header passes empty token", func(t *testing.T) {
		gate := &stubGate{err: domain.NewError(domain.KindUnauthenticated, "access denied: no token provided")}
		handler := Authenticate(gate, testResponder())(okHandler())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwdw==")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "", gate.gotToken)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "access denied: no token provided", errorOf(t, w))
	})
}

func TestRequireRoles(t *testing.T) {
	gate := auth.NewGate(nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	handler := RequireRoles(gate, testResponder(), domain.RoleSuperadmin, domain.RoleOwner)(okHandler())

	for _, tt := range []struct {
		role domain.Role
		want int
	}{
		{domain.RoleSuperadmin, http.StatusOK},
		{domain.RoleOwner, http.StatusOK},
		{domain.RoleManager, http.StatusForbidden},
		{domain.RoleCustomer, http.StatusForbidden},
	} {
		t.Run(string(tt.role), func(t *testing.T) {
			ctx := context.WithValue(context.Background(), PrincipalKey, domain.Principal{ID: uuid.New(), Role: tt.role})
			req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	t.Run("no principal", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("decision comes from the gate", func(t *testing.T) {
		handler := RequireRoles(denyAll{}, testResponder(), domain.RoleSuperadmin)(okHandler())
		ctx := context.WithValue(context.Background(), PrincipalKey, domain.Principal{ID: uuid.New(), Role: domain.RoleSuperadmin})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "access denied: branch closed", errorOf(t, w))
	})
}
