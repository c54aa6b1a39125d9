package session

import (
	"testing"
	"time"

	"github.com/000francisca0/Peluchemaniav3/domain/user"
	"github.com/golang-jwt/jwt/v5"
)

func testTokenConfig() TokenConfig {
	return TokenConfig{
		SecretKey: "test-secret-key",
		Duration:  time.Hour,
		Issuer:    "test-issuer",
	}
}

func testSession(expiresIn time.Duration) user.Session {
	now := time.Now()
	return user.Session{
		ID:        "sess-1",
		User:      user.User{Email: "ana@gmail.com", Role: user.RoleVendedor},
		CreatedAt: now,
		ExpiresAt: now.Add(expiresIn),
	}
}

func TestTokenManager_IssueAndValidate(t *testing.T) {
	manager := NewTokenManager(testTokenConfig())

	token, err := manager.Issue(testSession(time.Hour))
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := manager.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if claims.SessionID != "sess-1" {
		t.Errorf("claims.SessionID = %q, want %q", claims.SessionID, "sess-1")
	}
	if claims.Email != "ana@gmail.com" {
		t.Errorf("claims.Email = %q, want %q", claims.Email, "ana@gmail.com")
	}
	if claims.Role != user.RoleVendedor {
		t.Errorf("claims.Role = %q, want %q", claims.Role, user.RoleVendedor)
	}
}

func TestTokenManager_Rejects(t *testing.T) {
	manager := NewTokenManager(testTokenConfig())

	expired, err := manager.Issue(user.Session{
		ID:        "sess-old",
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	otherCfg := testTokenConfig()
	otherCfg.SecretKey = "another-secret"
	foreign, err := NewTokenManager(otherCfg).Issue(testSession(time.Hour))
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"expired", expired, ErrExpiredToken},
		{"wrong secret", foreign, ErrInvalidToken},
		{"garbage", "not-a-jwt", ErrInvalidToken},
		{"empty", "", ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manager.Validate(tt.token)
			if err != tt.wantErr {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeBackendToken(t *testing.T) {
	sign := func(claims jwt.MapClaims) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-only-secret"))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return tok
	}

	tests := []struct {
		name      string
		token     string
		wantEmail string
		wantRole  user.Role
		wantErr   bool
	}{
		{"legacy admin alias", sign(jwt.MapClaims{"sub": "admin@duoc.cl", "rol": "ROLE_ADMIN"}), "admin@duoc.cl", user.RoleAdmin, false},
		{"lowercase vendedor", sign(jwt.MapClaims{"sub": "v@duoc.cl", "rol": "vendedor"}), "v@duoc.cl", user.RoleVendedor, false},
		{"unknown role falls back", sign(jwt.MapClaims{"sub": "c@gmail.com", "rol": "GUEST"}), "c@gmail.com", user.RoleCliente, false},
		{"missing subject", sign(jwt.MapClaims{"rol": "ADMIN"}), "", "", true},
		{"not a jwt", "abc", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, role, err := decodeBackendToken(tt.token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeBackendToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if email != tt.wantEmail || role != tt.wantRole {
				t.Errorf("decodeBackendToken() = (%q, %q), want (%q, %q)", email, role, tt.wantEmail, tt.wantRole)
			}
		})
	}
}
