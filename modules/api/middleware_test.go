package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/000francisca0/Peluchemaniav3/domain/user"
	"github.com/000francisca0/Peluchemaniav3/modules/admin"
	"github.com/000francisca0/Peluchemaniav3/modules/session"
	"github.com/gofiber/fiber/v2"
)

// mockSessions implements session.SessionPort for testing
type mockSessions struct {
	loginFunc         func(ctx context.Context, email, password string) (session.Grant, error)
	registerFunc      func(ctx context.Context, form session.RegistrationForm) (session.Grant, error)
	resolveFunc       func(ctx context.Context, token string) (user.Session, error)
	updateAddressFunc func(ctx context.Context, token string, addr user.Address) (user.Session, error)
	logoutFunc        func(ctx context.Context, token string) error
}

func (m *mockSessions) Login(ctx context.Context, email, password string) (session.Grant, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, email, password)
	}
	return session.Grant{}, errors.New("not implemented")
}

func (m *mockSessions) Register(ctx context.Context, form session.RegistrationForm) (session.Grant, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, form)
	}
	return session.Grant{}, errors.New("not implemented")
}

func (m *mockSessions) Resolve(ctx context.Context, token string) (user.Session, error) {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, token)
	}
	return user.Session{}, errors.New("not implemented")
}

func (m *mockSessions) UpdateAddress(ctx context.Context, token string, addr user.Address) (user.Session, error) {
	if m.updateAddressFunc != nil {
		return m.updateAddressFunc(ctx, token, addr)
	}
	return user.Session{}, errors.New("not implemented")
}

func (m *mockSessions) Logout(ctx context.Context, token string) error {
	if m.logoutFunc != nil {
		return m.logoutFunc(ctx, token)
	}
	return errors.New("not implemented")
}

// sessionsFor resolves token "valid-<role>" to a session with that role.
func sessionsFor(sessions map[string]user.Session) *mockSessions {
	return &mockSessions{
		resolveFunc: func(_ context.Context, token string) (user.Session, error) {
			sess, ok := sessions[token]
			if !ok {
				return user.Session{}, session.ErrNotAuthenticated
			}
			return sess, nil
		},
	}
}

func TestSessionMiddleware(t *testing.T) {
	sessions := sessionsFor(map[string]user.Session{
		"valid-token": {ID: "sess-1", User: user.User{ID: 1, Email: "ana@gmail.com", Role: user.RoleCliente}},
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "missing authorization header",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `Missing authorization header`,
		},
		{
			name:           "invalid authorization format - no bearer",
			authHeader:     "Basic token123",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `Invalid authorization header format`,
		},
		{
			name:           "unknown session token",
			authHeader:     "Bearer stale-token",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"redirect":"/inicio"`,
		},
		{
			name:           "valid token",
			authHeader:     "Bearer valid-token",
			expectedStatus: http.StatusOK,
			expectedBody:   `sess-1 ana@gmail.com`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: customErrorHandler})
			app.Get("/protected", SessionMiddleware(sessions), func(c *fiber.Ctx) error {
				sess, ok := currentSession(c)
				if !ok {
					return c.SendStatus(http.StatusInternalServerError)
				}
				return c.SendString(c.Locals(LocalSessionID).(string) + " " + sess.User.Email)
			})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("Failed to execute request: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, resp.StatusCode)
			}

			body, _ := io.ReadAll(resp.Body)
			if !strings.Contains(string(body), tt.expectedBody) {
				t.Errorf("Expected body to contain %q, got %q", tt.expectedBody, string(body))
			}
		})
	}
}

func TestRequireSection(t *testing.T) {
	tests := []struct {
		name           string
		role           user.Role
		section        admin.Section
		expectedStatus int
	}{
		{name: "admin reaches users", role: user.RoleAdmin, section: admin.SectionUsers, expectedStatus: http.StatusOK},
		{name: "seller reaches products", role: user.RoleVendedor, section: admin.SectionProducts, expectedStatus: http.StatusOK},
		{name: "seller blocked from users", role: user.RoleVendedor, section: admin.SectionUsers, expectedStatus: http.StatusForbidden},
		{name: "customer blocked from products", role: user.RoleCliente, section: admin.SectionProducts, expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := sessionsFor(map[string]user.Session{
				"token": {ID: "sess", User: user.User{Role: tt.role}},
			})

			app := fiber.New(fiber.Config{ErrorHandler: customErrorHandler})
			app.Get("/section", SessionMiddleware(sessions), RequireSection(tt.section), func(c *fiber.Ctx) error {
				return c.SendStatus(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/section", nil)
			req.Header.Set("Authorization", "Bearer token")

			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("Failed to execute request: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, resp.StatusCode)
			}
		})
	}
}

func TestRequireSection_WithoutSession(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: customErrorHandler})
	app.Get("/section", RequireSection(admin.SectionProducts), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/section", nil), -1)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, resp.StatusCode)
	}
}
