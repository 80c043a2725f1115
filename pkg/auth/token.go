package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-tenancy/pkg/domain"
)

// TokenTTL is the fixed lifetime of issued credentials.
const TokenTTL = 7 * 24 * time.Hour

// TokenConfig holds credential service configuration.
type TokenConfig struct {
	Secret []byte
	Issuer string
	// Now overrides the clock (tests).
	Now func() time.Time
}

// TokenClaims are the claims carried by an issued credential.
type TokenClaims struct {
	jwt.RegisteredClaims
	Role domain.Role `json:"role"`
}

// UserID returns the subject as a user ID.
func (c *TokenClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// IssuedToken is a signed credential and its expiry.
type IssuedToken struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenService issues and verifies signed bearer tokens.
type TokenService struct {
	config TokenConfig
}

// NewTokenService creates a new token service.
func NewTokenService(config TokenConfig) *TokenService {
	if config.Now == nil {
		config.Now = time.Now
	}
	return &TokenService{config: config}
}

// Issue signs a token for the user embedding its id and role.
func (s *TokenService) Issue(user *domain.User) (*IssuedToken, error) {
	now := s.config.Now()
	expiresAt := now.Add(TokenTTL)

	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		Role: user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.config.Secret)
	if err != nil {
		return nil, err
	}

	return &IssuedToken{
		Token:     signed,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks the signature and expiry of a token and returns its claims.
func (s *TokenService) Verify(tokenString string) (*TokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.config.Now),
		jwt.WithExpirationRequired(),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return s.config.Secret, nil
	}, opts...)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}
