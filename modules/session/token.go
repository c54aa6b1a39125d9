package session

import (
	"errors"
	"time"

	"github.com/000francisca0/Peluchemaniav3/domain/user"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a session token is malformed or badly signed.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrExpiredToken is returned when a session token has expired.
	ErrExpiredToken = errors.New("session token has expired")
)

// TokenConfig holds session token configuration.
type TokenConfig struct {
	SecretKey string
	Duration  time.Duration
	Issuer    string
}

// DefaultTokenConfig returns a development configuration.
// In production the secret comes from SESSION_SECRET.
func DefaultTokenConfig() TokenConfig {
	return TokenConfig{
		SecretKey: "peluchemania-dev-secret-change-me",
		Duration:  24 * time.Hour,
		Issuer:    "peluchemania",
	}
}

// Claims are the session token claims. The token only points at the stored
// session; account data is always read from storage.
type Claims struct {
	SessionID string    `json:"sid"`
	Email     string    `json:"email"`
	Role      user.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates session tokens.
type TokenManager struct {
	config TokenConfig
}

// NewTokenManager creates a TokenManager.
func NewTokenManager(config TokenConfig) *TokenManager {
	return &TokenManager{config: config}
}

// Issue signs a token for the session, expiring with it.
func (m *TokenManager) Issue(s user.Session) (string, error) {
	claims := Claims{
		SessionID: s.ID,
		Email:     s.User.Email,
		Role:      s.User.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   s.User.Email,
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(s.CreatedAt),
			NotBefore: jwt.NewNumericDate(s.CreatedAt.Add(-time.Second)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.SecretKey))
}

// Validate checks the signature and expiry and returns the claims.
func (m *TokenManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.config.SecretKey), nil
	}, jwt.WithIssuer(m.config.Issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Duration returns the configured session lifetime.
func (m *TokenManager) Duration() time.Duration {
	return m.config.Duration
}

// backendClaims are the claims carried by the shop backend's own token.
type backendClaims struct {
	Role string `json:"rol"`
	jwt.RegisteredClaims
}

// decodeBackendToken reads the subject (email) and role from a backend token
// without verifying it. The backend verifies its own tokens on every call;
// this only recovers the account for legacy logins that return a bare token.
func decodeBackendToken(tokenString string) (string, user.Role, error) {
	var claims backendClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, &claims); err != nil {
		return "", "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", "", ErrInvalidToken
	}

	role, err := user.ParseRole(claims.Role)
	if err != nil {
		role = user.RoleCliente
	}
	return claims.Subject, role, nil
}
