package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gofiber/fiber/v2"

	"github.com/polarais/haru-sub000/internal/auth"
)

// The auth middleware only resolves identity; it never rejects. The
// repository short-circuits unauthenticated calls itself, so a missing or
// bad token simply leaves the request anonymous and every data operation
// answers "User not authenticated".

// AuthFiber verifies a bearer token and attaches the resolved user to the
// request's user context.
func AuthFiber(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if profileID, ok := bearerProfileID(c.Get(fiber.HeaderAuthorization), secret); ok {
			c.SetUserContext(auth.WithUser(c.UserContext(), &auth.User{ID: profileID}))
		}
		return c.Next()
	}
}

// AuthGin verifies a bearer token and attaches the resolved user to the
// request context.
func AuthGin(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if profileID, ok := bearerProfileID(c.GetHeader("Authorization"), secret); ok {
			ctx := auth.WithUser(c.Request.Context(), &auth.User{ID: profileID})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

func bearerProfileID(header string, secret []byte) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	profileID, err := auth.ProfileIDFromToken(strings.TrimPrefix(header, prefix), secret)
	if err != nil {
		return "", false
	}
	return profileID, true
}
