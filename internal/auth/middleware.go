package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	apperrors "github.com/spec-kit/ticket-generator/pkg/util"
)

const sessionKey = "session_id"

// SessionMiddleware binds every request to a visitor session, minting a
// new signed cookie when the request carries none or an invalid one.
type SessionMiddleware struct {
	tokens     *TokenManager
	cookieName string
	secure     bool
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(tokens *TokenManager, cookieName string, secure bool) *SessionMiddleware {
	return &SessionMiddleware{tokens: tokens, cookieName: cookieName, secure: secure}
}

// Handle resolves or creates the session id.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	if _, ok := SessionIDFromContext(c); ok {
		return c.Next()
	}
	if raw := c.Cookies(m.cookieName); raw != "" {
		if claims, err := m.tokens.ParseToken(raw); err == nil {
			c.Locals(sessionKey, claims.SessionID)
			return c.Next()
		}
	}

	sessionID := uuid.NewString()
	token, expiresAt, err := m.tokens.GenerateToken(sessionID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(m.tokens.TTL() / time.Second),
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Locals(sessionKey, sessionID)
	return c.Next()
}

// SessionIDFromContext retrieves the session bound by the middleware.
func SessionIDFromContext(c *fiber.Ctx) (string, bool) {
	id, ok := c.Locals(sessionKey).(string)
	return id, ok && id != ""
}
