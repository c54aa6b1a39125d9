package api

import (
	"strings"

	"github.com/000francisca0/Peluchemaniav3/domain/user"
	"github.com/000francisca0/Peluchemaniav3/modules/admin"
	"github.com/000francisca0/Peluchemaniav3/modules/session"
	"github.com/gofiber/fiber/v2"
)

// Keys under which the session middleware stores request state.
const (
	LocalSession   = "session"
	LocalSessionID = "session_id"
	LocalToken     = "session_token"
)

// SessionMiddleware resolves the bearer session token and stores the session
// in the request locals.
func SessionMiddleware(sessions session.SessionPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "Missing authorization header")
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return unauthorized(c, "Invalid authorization header format")
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			return unauthorized(c, "Missing token")
		}

		sess, err := sessions.Resolve(c.UserContext(), token)
		if err != nil {
			return err
		}

		c.Locals(LocalSession, sess)
		c.Locals(LocalSessionID, sess.ID)
		c.Locals(LocalToken, token)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error:    "unauthorized",
		Message:  message,
		Redirect: RedirectLogin,
	})
}

// RequireSection rejects sessions whose role may not use section.
func RequireSection(section admin.Section) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := currentSession(c)
		if !ok {
			return session.ErrNotAuthenticated
		}
		if !admin.CanAccess(sess.User.Role, section) {
			return errForbidden
		}
		return c.Next()
	}
}

// currentSession returns the session stored by SessionMiddleware.
func currentSession(c *fiber.Ctx) (user.Session, bool) {
	sess, ok := c.Locals(LocalSession).(user.Session)
	return sess, ok
}

func currentToken(c *fiber.Ctx) string {
	token, _ := c.Locals(LocalToken).(string)
	return token
}
