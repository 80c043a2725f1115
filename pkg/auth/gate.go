package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/tendant/simple-tenancy/pkg/domain"
)

// UserFinder resolves token subjects to users.
type UserFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*TokenClaims, error)
}

// Gate authenticates bearer credentials and makes role decisions.
type Gate struct {
	tokens TokenVerifier
	users  UserFinder
	logger *slog.Logger
}

// NewGate creates a new credential gate.
func NewGate(tokens TokenVerifier, users UserFinder, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{tokens: tokens, users: users, logger: logger}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", domain.ErrMissingToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domain.ErrMissingToken
	}
	return token, nil
}

// Authenticate verifies a bearer token and resolves the acting principal.
func (g *Gate) Authenticate(ctx context.Context, token string) (domain.Principal, error) {
	if token == "" {
		return domain.Principal{}, domain.WrapError(domain.ErrMissingToken, domain.KindUnauthenticated, "access denied: no token provided")
	}

	claims, err := g.tokens.Verify(token)
	if err != nil {
		return domain.Principal{}, domain.WrapError(err, domain.KindUnauthenticated, "invalid or expired token")
	}

	userID, err := claims.UserID()
	if err != nil {
		return domain.Principal{}, domain.WrapError(domain.ErrInvalidToken, domain.KindUnauthenticated, "invalid or expired token")
	}

	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			g.logger.WarnContext(ctx, "token subject not found", "user_id", userID)
			return domain.Principal{}, domain.WrapError(err, domain.KindPrincipalNotFound, "user not found")
		}
		return domain.Principal{}, domain.Unexpected(err, "failed to resolve user")
	}

	if !user.IsActive {
		g.logger.WarnContext(ctx, "token presented for deactivated user", "user_id", userID)
		return domain.Principal{}, domain.WrapError(domain.ErrInactiveUser, domain.KindUnauthenticated, "invalid or expired token")
	}

	return domain.PrincipalFromUser(user), nil
}

// Authorize checks that the principal holds one of the allowed roles.
func (g *Gate) Authorize(p domain.Principal, allowed ...domain.Role) error {
	if !p.HasRole(allowed...) {
		g.logger.Warn("role denied", "user_id", p.ID, "role", p.Role)
		return domain.Forbidden("access denied: insufficient permissions")
	}
	return nil
}
