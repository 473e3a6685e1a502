package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/landlord-propsdb/internal/services"
	"github.com/localnerve/landlord-propsdb/internal/store"
)

// SessionCookie is the session cookie issued by the Authorizer
const SessionCookie = "cookie_session"

// PrincipalKey is the fiber Locals key of the authenticated *store.Principal
const PrincipalKey = "principal"

// AuthUser validates that the request has user role authorization
func AuthUser(auth services.Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, auth, []string{"user"}, store.TypeForbidden)
	}
}

// Principal returns the principal set by AuthUser, or nil
func Principal(c *fiber.Ctx) *store.Principal {
	p, _ := c.Locals(PrincipalKey).(*store.Principal)
	return p
}

func authorize(c *fiber.Ctx, auth services.Authenticator, roles []string, errorType string) error {
	session := c.Cookies(SessionCookie)
	if session == "" {
		return store.NewError(fiber.StatusForbidden, errorType,
			fmt.Sprintf("Authorizer cookie %q not found", SessionCookie))
	}

	principal, err := auth.ValidateSession(session, roles)
	if err != nil {
		return store.NewError(fiber.StatusForbidden, errorType, fmt.Sprintf("Invalid session: %v", err))
	}

	c.Locals(PrincipalKey, principal)
	return c.Next()
}
