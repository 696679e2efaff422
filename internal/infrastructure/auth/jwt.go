package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iho/exledger/internal/domain"
)

const issuer = "exledger"

// Claims represents the JWT claims
type Claims struct {
	UserID    string      `json:"user_id"`
	Login     string      `json:"login"`
	Name      string      `json:"name,omitempty"`
	Role      domain.Role `json:"role"`
	ServiceID *string     `json:"service_id,omitempty"`
	jwt.RegisteredClaims
}

// User rebuilds the acting user the token was issued for.
func (c *Claims) User() *domain.User {
	return &domain.User{
		ID:        c.UserID,
		Login:     c.Login,
		Name:      c.Name,
		Role:      c.Role,
		ServiceID: c.ServiceID,
		Active:    true,
	}
}

// JWTManager manages JWT token creation and validation
type JWTManager struct {
	secretKey     []byte
	tokenDuration time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secretKey string, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
	}
}

// Generate generates a new JWT token for a user.
// Operators must be attached to a service; the token carries it.
func (m *JWTManager) Generate(user *domain.User) (string, error) {
	if !user.Role.IsValid() {
		return "", fmt.Errorf("cannot issue token for role %q", user.Role)
	}
	if user.Role == domain.RoleOperator && user.ServiceID == nil {
		return "", errors.New("operator token requires a service")
	}

	now := time.Now()
	claims := Claims{
		UserID:    user.ID,
		Login:     user.Login,
		Name:      user.Name,
		Role:      user.Role,
		ServiceID: user.ServiceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// Verify verifies a JWT token and returns the claims
func (m *JWTManager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
		jwt.WithIssuer(issuer),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrExpiredToken
		}
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || !claims.Role.IsValid() {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}
